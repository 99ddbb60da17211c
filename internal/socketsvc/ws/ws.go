package ws

import (
	"encoding/json"
	"sync"

	"github.com/doojoo9999/liargame-services/internal/comm"
	"github.com/doojoo9999/liargame-services/internal/socketsvc/broker"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Ws struct {
	connMap sync.Map // socketId -> *websocket.Conn
	gameMap sync.Map // socketId -> game number the socket is watching
	Broker  *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "chat-join":
		s.handleJoin(socketId, message)
	case "chat-message", "chat-history", "chat-available":
		s.forwardToChatService(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

// handleJoin subscribes this socket to a game's chat channel.
func (s *Ws) handleJoin(socketId string, msg *comm.WSMessage) {
	var payload struct {
		GameNo int64 `json:"game_no"`
	}

	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: invalid chat-join payload %s", err)
		return
	}

	if payload.GameNo == 0 {
		log.Error("Invalid chat-join payload: missing game_no")
		return
	}

	s.gameMap.Store(socketId, payload.GameNo)
	log.Infof("socket %s joined chat channel for game %d", socketId, payload.GameNo)
}

// forwardToChatService stamps the socket id on the command and hands it to
// the chat service over NATS.
func (s *Ws) forwardToChatService(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(comm.SubjectChatService, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", comm.SubjectChatService, err)
		return
	}

	log.Debugf("forwarded %s from socket %s to %s", msg.Type, socketId, comm.SubjectChatService)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// GetGameSockets lists the sockets watching a game's chat channel.
func (s *Ws) GetGameSockets(gameNo int64) ([]string, bool) {
	var sockets []string
	found := false

	s.gameMap.Range(func(key, value interface{}) bool {
		if value.(int64) == gameNo {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.gameMap.Delete(socketId)
}
