package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/service"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	chat *service.ChatService
}

func NewHandler(chat *service.ChatService) *Handler {
	return &Handler{chat: chat}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "chat service is running at port " + os.Getenv("SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode health response: %v", err)
	}
}

type sendRequest struct {
	GameNo  int64  `json:"game_no"`
	UserID  int64  `json:"user_id"`
	Content string `json:"content"`
}

func (h *Handler) SendHandler(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return
	}

	msg, err := h.chat.Send(r.Context(), req.UserID, req.GameNo, req.Content)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{Message: "message sent", Code: http.StatusOK, Data: msg})
}

func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	gameNo, err := strconv.ParseInt(r.URL.Query().Get("game_no"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid game_no"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	msgType := r.URL.Query().Get("type")

	messages, err := h.chat.GetHistory(r.Context(), gameNo, msgType, limit)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{Message: "chat history", Code: http.StatusOK, Data: messages})
}

func (h *Handler) AvailableHandler(w http.ResponseWriter, r *http.Request) {
	gameNo, err := strconv.ParseInt(r.URL.Query().Get("game_no"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid game_no"})
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid user_id"})
		return
	}

	available, err := h.chat.IsChatAvailable(r.Context(), gameNo, userID)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "chat availability",
		Code:    http.StatusOK,
		Data:    map[string]bool{"available": available},
	})
}

func (h *Handler) errorResponse(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		code = http.StatusConflict
	default:
		log.Errorf("request failed: %v", err)
	}

	h.CreateResponse(w, Response{Code: code, Error: err.Error()})
}
