package handlers

import (
	"github.com/doojoo9999/liargame-services/internal/chatsvc/service"
	"github.com/go-chi/chi"
)

func SetRoutes(r *chi.Mux, chat *service.ChatService) {
	h := NewHandler(chat)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)
		r.Route("/chat", func(r chi.Router) {
			r.Post("/send", h.SendHandler)
			r.Get("/history", h.HistoryHandler)
			r.Get("/available", h.AvailableHandler)
		})
	})
}
