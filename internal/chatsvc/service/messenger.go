package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/doojoo9999/liargame-services/internal/chatsvc/models"
	"github.com/doojoo9999/liargame-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// Messenger formats chat and system notifications and hands them to the
// transport. It owns no game state and makes no policy decisions.
type Messenger struct {
	pub      Publisher
	messages ChatMessageStore
	now      func() time.Time
}

func NewMessenger(pub Publisher, messages ChatMessageStore) *Messenger {
	return &Messenger{
		pub:      pub,
		messages: messages,
		now:      time.Now,
	}
}

// BroadcastChat publishes a persisted message on the game's chat channel.
// Delivery failures are logged, never surfaced: the message is already
// committed by the time we get here.
func (m *Messenger) BroadcastChat(game *models.Game, msg *models.ChatMessage) {
	m.publish(game.GameNo, "chat-message", toChatMessageData(game.GameNo, msg))
}

// SendSystemMessage persists a SYSTEM typed message with no author and
// broadcasts it on the game's chat channel.
func (m *Messenger) SendSystemMessage(ctx context.Context, game *models.Game, text string) error {
	msg := &models.ChatMessage{
		GameID:    game.ID,
		Nickname:  models.SystemNickname,
		Content:   text,
		Type:      models.MessageTypeSystem,
		Timestamp: m.now(),
	}

	saved, err := m.messages.Create(ctx, msg)
	if err != nil {
		return err
	}

	m.BroadcastChat(game, saved)
	return nil
}

// SendChatStatus broadcasts a chat availability change, e.g. the post-round
// window opening and closing.
func (m *Messenger) SendChatStatus(game *models.Game, status string, data map[string]string) {
	m.publish(game.GameNo, "chat-status", comm.ChatStatusData{
		GameNo: game.GameNo,
		Status: status,
		Data:   data,
	})
}

// SendDirect publishes a reply addressed to a single socket.
func (m *Messenger) SendDirect(socketId, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("error marshaling %s payload: %v", msgType, err)
		return
	}

	envelope, err := json.Marshal(&comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	})
	if err != nil {
		log.Errorf("error marshaling %s envelope: %v", msgType, err)
		return
	}

	if err := m.pub.Publish(comm.SubjectChatDirect, envelope); err != nil {
		log.Errorf("error publishing %s to %s: %v", msgType, comm.SubjectChatDirect, err)
	}
}

func (m *Messenger) publish(gameNo int64, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("error marshaling %s payload: %v", msgType, err)
		return
	}

	envelope, err := json.Marshal(&comm.WSMessage{
		Type: msgType,
		Data: data,
	})
	if err != nil {
		log.Errorf("error marshaling %s envelope: %v", msgType, err)
		return
	}

	subject := comm.ChatGameSubject(gameNo)
	if err := m.pub.Publish(subject, envelope); err != nil {
		log.Errorf("error publishing %s to %s: %v", msgType, subject, err)
	}
}

func toChatMessageData(gameNo int64, msg *models.ChatMessage) comm.ChatMessageData {
	data := comm.ChatMessageData{
		ID:        msg.ID,
		GameNo:    gameNo,
		Nickname:  msg.Nickname,
		Content:   msg.Content,
		Type:      msg.Type,
		Timestamp: msg.Timestamp,
	}
	if msg.PlayerUserID.Valid {
		uid := msg.PlayerUserID.Int64
		data.UserID = &uid
	}
	return data
}
