package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ahmedkamals/horizonredux"
	"github.com/ahmedkamals/horizonredux/natsource"
	"github.com/nats-io/nats.go"
)

const (
	messagesSubject = "chat.messages"
	addSubject      = "chat.messages.add"
	clearSubject    = "chat.messages.clear"
	noticesSubject  = "chat.notices"
)

type (
	chatDocument struct {
		ID     string `json:"id,omitempty"`
		Author string `json:"author"`
		Text   string `json:"text"`
	}

	// chatService keeps the chat history and answers the write requests.
	chatService struct {
		mux           sync.Mutex
		source        *natsource.Source
		history       []chatDocument
		subscriptions []*nats.Subscription
	}
)

func startChatService(source *natsource.Source) (*chatService, error) {
	service := &chatService{
		source:  source,
		history: make([]chatDocument, 0),
	}

	handlers := map[string]nats.MsgHandler{
		addSubject:   service.add,
		clearSubject: service.clear,
	}

	for subject, handler := range handlers {
		subscription, err := source.Conn().Subscribe(subject, handler)
		if err != nil {
			service.stop()
			return nil, err
		}
		service.subscriptions = append(service.subscriptions, subscription)
	}

	return service, nil
}

func (cs *chatService) add(msg *nats.Msg) {
	var document chatDocument
	if err := json.Unmarshal(msg.Data, &document); err != nil {
		_ = natsource.Reply(msg, nil, err)
		return
	}

	if strings.TrimSpace(document.Text) == "" {
		_ = natsource.Reply(msg, nil, fmt.Errorf("message from %s is empty", document.Author))
		return
	}

	document.ID = string(horizonredux.NewUUID())

	cs.mux.Lock()
	cs.history = append(cs.history, document)
	history := append([]chatDocument{}, cs.history...)
	cs.mux.Unlock()

	_ = natsource.Reply(msg, document, nil)
	_ = cs.source.Publish(messagesSubject, history)
}

func (cs *chatService) clear(*nats.Msg) {
	cs.mux.Lock()
	cleared := len(cs.history)
	cs.history = make([]chatDocument, 0)
	cs.mux.Unlock()

	_ = cs.source.Publish(messagesSubject, []chatDocument{})
	_ = cs.source.Publish(noticesSubject, fmt.Sprintf("%d messages cleared", cleared))
}

func (cs *chatService) stop() {
	for _, subscription := range cs.subscriptions {
		_ = subscription.Unsubscribe()
	}
}
