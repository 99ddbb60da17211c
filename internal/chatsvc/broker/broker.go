package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
	"github.com/doojoo9999/liargame-services/internal/chatsvc/service"
	"github.com/doojoo9999/liargame-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn        *nats.Conn
	ChatService *service.ChatService
	TurnService *service.TurnService
	Messenger   *service.Messenger
}

func NewBroker(nc *nats.Conn, chatService *service.ChatService,
	turnService *service.TurnService, messenger *service.Messenger) *Broker {
	return &Broker{
		Conn:        nc,
		ChatService: chatService,
		TurnService: turnService,
		Messenger:   messenger,
	}
}

// SubscribeChatService consumes chat commands and game lifecycle events
// forwarded by the socket and game services.
func (b *Broker) SubscribeChatService(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessage)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "chat-message":
		var req comm.ChatSendRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding chat-message request: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, err := b.ChatService.Send(ctx, req.UserID, req.GameNo, req.Content)
		if err != nil {
			// policy rejections are routine, only faults are errors
			if isClientError(err) {
				log.Debugf("chat rejected for user %d in game %d: %v", req.UserID, req.GameNo, err)
			} else {
				log.Errorf("Error [ChatService.Send] %s", err)
			}
			b.Messenger.SendDirect(msg.SocketId, "chat-error", comm.ChatErrorData{
				GameNo: req.GameNo,
				Error:  err.Error(),
			})
			return
		}
		// accepted messages reach the sender through the game broadcast

	case "chat-history":
		var req comm.ChatHistoryRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding chat-history request: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		messages, err := b.ChatService.GetHistory(ctx, req.GameNo, req.Type, req.Limit)
		if err != nil {
			log.Errorf("Error [ChatService.GetHistory] %s", err)
			b.Messenger.SendDirect(msg.SocketId, "chat-error", comm.ChatErrorData{
				GameNo: req.GameNo,
				Error:  err.Error(),
			})
			return
		}

		b.Messenger.SendDirect(msg.SocketId, "chat-history-response", toHistoryData(req.GameNo, messages))

	case "chat-available":
		var req comm.ChatAvailableRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Errorf("Error decoding chat-available request: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		available, err := b.ChatService.IsChatAvailable(ctx, req.GameNo, req.UserID)
		if err != nil && !isClientError(err) {
			log.Errorf("Error [ChatService.IsChatAvailable] %s", err)
		}

		b.Messenger.SendDirect(msg.SocketId, "chat-available-response", comm.ChatAvailableResponse{
			GameNo:    req.GameNo,
			UserID:    req.UserID,
			Available: available,
		})

	case "speech-started":
		var evt comm.GameEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			log.Errorf("Error decoding speech-started event: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.TurnService.ResumeTurnTimer(ctx, evt.GameNo)

	case "round-ended":
		var evt comm.GameEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			log.Errorf("Error decoding round-ended event: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.ChatService.StartPostRoundChat(ctx, evt.GameNo); err != nil {
			log.Errorf("Error [ChatService.StartPostRoundChat] %s", err)
		}

	case "player-left":
		var evt comm.GameEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			log.Errorf("Error decoding player-left event: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := b.ChatService.ArchivePlayerMessages(ctx, evt.UserID, evt.Nickname); err != nil {
			log.Errorf("Error [ChatService.ArchivePlayerMessages] %s", err)
		}

	default:
		log.Warnf("unknown message type received: %s", msg.Type)
	}
}

func isClientError(err error) bool {
	return errors.Is(err, service.ErrValidation) ||
		errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrForbidden) ||
		errors.Is(err, service.ErrConflict)
}

func toHistoryData(gameNo int64, messages []*models.ChatMessage) comm.ChatHistoryData {
	data := comm.ChatHistoryData{GameNo: gameNo, Messages: make([]comm.ChatMessageData, 0, len(messages))}
	for _, m := range messages {
		item := comm.ChatMessageData{
			ID:        m.ID,
			GameNo:    gameNo,
			Nickname:  m.Nickname,
			Content:   m.Content,
			Type:      m.Type,
			Timestamp: m.Timestamp,
		}
		if m.PlayerUserID.Valid {
			uid := m.PlayerUserID.Int64
			item.UserID = &uid
		}
		data.Messages = append(data.Messages, item)
	}
	return data
}
