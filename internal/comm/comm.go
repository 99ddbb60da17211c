package comm

import (
	"encoding/json"
	"fmt"
	"time"
)

// NATS subjects used between the chat, voting and socket services.
const (
	SubjectChatService   = "chat.service"   // inbound chat commands from socketsvc
	SubjectChatDirect    = "chat.direct"    // per-socket replies and errors
	SubjectVotingService = "voting.service" // voting collaborator commands
)

// ChatGameSubject is the broadcast channel for one game.
func ChatGameSubject(gameNo int64) string {
	return fmt.Sprintf("chat.game.%d", gameNo)
}

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "chat-message", "chat-history"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

type ChatSendRequest struct {
	GameNo  int64  `json:"game_no"`
	UserID  int64  `json:"user_id"`
	Content string `json:"content"`
}

type ChatHistoryRequest struct {
	GameNo int64  `json:"game_no"`
	Type   string `json:"type,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type ChatAvailableRequest struct {
	GameNo int64 `json:"game_no"`
	UserID int64 `json:"user_id"`
}

type ChatAvailableResponse struct {
	GameNo    int64 `json:"game_no"`
	UserID    int64 `json:"user_id"`
	Available bool  `json:"available"`
}

type ChatMessageData struct {
	ID        int64     `json:"id"`
	GameNo    int64     `json:"game_no"`
	UserID    *int64    `json:"user_id,omitempty"` // nil for system messages
	Nickname  string    `json:"nickname"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatHistoryData struct {
	GameNo   int64             `json:"game_no"`
	Messages []ChatMessageData `json:"messages"`
}

type ChatStatusData struct {
	GameNo int64             `json:"game_no"`
	Status string            `json:"status"` // e.g. "POST_ROUND_CHAT_STARTED"
	Data   map[string]string `json:"data,omitempty"`
}

type ChatErrorData struct {
	GameNo int64  `json:"game_no"`
	Error  string `json:"error"`
}

type StartVotingCommand struct {
	GameID int64 `json:"game_id"`
	GameNo int64 `json:"game_no"`
}

// GameEvent covers lifecycle notifications the chat service consumes from
// the game service: "speech-started", "round-ended", "player-left".
type GameEvent struct {
	GameNo   int64  `json:"game_no"`
	UserID   int64  `json:"user_id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}
