package main

import (
	"fmt"
	"sync"

	"github.com/ahmedkamals/horizonredux"
)

type (
	message struct {
		ID     string
		Author string
		Text   string
	}

	chatState struct {
		Messages  []message
		Pending   int
		Notices   []string
		Errors    []string
		Connected bool
	}

	reducer func(chatState, horizonredux.Action) chatState

	// store is the smallest store that can host a middleware chain.
	store struct {
		mux      sync.Mutex
		state    chatState
		reducer  reducer
		dispatch horizonredux.Dispatch
	}
)

func newStore(reducer reducer, middlewares ...horizonredux.Middleware) *store {
	s := &store{
		reducer: reducer,
	}

	dispatch := horizonredux.Dispatch(s.reduce)
	for index := len(middlewares) - 1; index >= 0; index-- {
		dispatch = middlewares[index](s)(dispatch)
	}
	s.dispatch = dispatch

	return s
}

func (s *store) Dispatch(action horizonredux.Action) interface{} {
	return s.dispatch(action)
}

func (s *store) GetState() interface{} {
	return s.snapshot()
}

func (s *store) snapshot() chatState {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.state
}

func (s *store) reduce(action horizonredux.Action) interface{} {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.state = s.reducer(s.state, action)

	return action
}

func chatReducer(state chatState, action horizonredux.Action) chatState {
	switch action.Type {
	case addMessageRequest:
		state.Pending++

	case addMessageSuccess:
		state.Pending--

	case addMessageFailure:
		state.Pending--
		state.Errors = append(state.Errors, fmt.Sprint(action.Payload))

	case newMessages:
		state.Messages = decodeMessages(action.Payload)
		state.Connected = true

	case systemNotice:
		state.Notices = append(state.Notices, fmt.Sprint(action.Payload))

	case chatDisconnected:
		state.Connected = false
	}

	return state
}

// decodeMessages reads the JSON decoded message list published by the chat service.
func decodeMessages(payload interface{}) []message {
	documents, ok := payload.([]interface{})
	if !ok {
		return nil
	}

	messages := make([]message, 0, len(documents))
	for _, document := range documents {
		fields, ok := document.(map[string]interface{})
		if !ok {
			continue
		}

		messages = append(messages, message{
			ID:     fmt.Sprint(fields["id"]),
			Author: fmt.Sprint(fields["author"]),
			Text:   fmt.Sprint(fields["text"]),
		})
	}

	return messages
}
