package broker

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/doojoo9999/liargame-services/internal/comm"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn           *nats.Conn
	GetConnection  func(string) (*websocket.Conn, bool)
	GetGameSockets func(int64) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*websocket.Conn, bool),
	fncGetGameSockets func(int64) ([]string, bool)) *Broker {
	return &Broker{
		Conn:           conn,
		GetConnection:  fncGetConnection,
		GetGameSockets: fncGetGameSockets,
	}
}

// SubscribeChatGames consumes per-game chat broadcasts (chat.game.*) from the
// chat service and fans them out to every socket watching that game.
func (b *Broker) SubscribeChatGames() (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe("chat.game.*", b.handleGameBroadcast)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// SubscribeChatDirect consumes per-socket replies (history responses, errors)
// from the chat service.
func (b *Broker) SubscribeChatDirect() (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(comm.SubjectChatDirect, b.handleDirect)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// publish message to the chat service
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

func (b *Broker) handleGameBroadcast(msgNats *nats.Msg) {
	gameNo, ok := gameNoFromSubject(msgNats.Subject)
	if !ok {
		log.Errorf("unparseable chat broadcast subject: %s", msgNats.Subject)
		return
	}

	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, &message); err != nil {
		log.Errorf("Error %s", err)
		return
	}

	sockets, found := b.GetGameSockets(gameNo)
	if !found {
		return // nobody watching this game on this instance
	}

	for _, socketId := range sockets {
		if conn, ok := b.GetConnection(socketId); ok {
			if err := conn.WriteJSON(message); err != nil {
				log.Errorf("Error writing to socket %s: %s", socketId, err)
			}
		}
	}
}

func (b *Broker) handleDirect(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, &message); err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if conn, ok := b.GetConnection(message.SocketId); ok {
		if err := conn.WriteJSON(message); err != nil {
			log.Errorf("Error writing to socket %s: %s", message.SocketId, err)
		}
	}
}

func gameNoFromSubject(subject string) (int64, bool) {
	idx := strings.LastIndex(subject, ".")
	if idx < 0 {
		return 0, false
	}
	gameNo, err := strconv.ParseInt(subject[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return gameNo, true
}
