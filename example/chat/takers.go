package main

import (
	"fmt"

	"github.com/ahmedkamals/horizonredux"
	"github.com/ahmedkamals/horizonredux/natsource"
)

const (
	watchMessages     horizonredux.ActionType = "WATCH_MESSAGES"
	newMessages       horizonredux.ActionType = "NEW_MESSAGES"
	addMessageRequest horizonredux.ActionType = "ADD_MESSAGE_REQUEST"
	addMessageSuccess horizonredux.ActionType = "ADD_MESSAGE_SUCCESS"
	addMessageFailure horizonredux.ActionType = "ADD_MESSAGE_FAILURE"
	clearMessages     horizonredux.ActionType = "CLEAR_MESSAGES"
	systemNotice      horizonredux.ActionType = "SYSTEM_NOTICE"
	chatDisconnected  horizonredux.ActionType = "CHAT_DISCONNECTED"
)

func registerActionTakers(hr *horizonredux.HorizonRedux, source *natsource.Source) error {
	// Every new watch replaces the previous one.
	if _, err := hr.TakeLatest(
		horizonredux.ExactType(watchMessages),
		func(dataSource horizonredux.DataSource, action horizonredux.Action) horizonredux.ResultStream {
			return dataSource.Query(messagesSubject)
		},
		func(result interface{}, action horizonredux.Action, dispatch horizonredux.Dispatch) {
			dispatch(horizonredux.NewAction(newMessages, result))
		},
		func(err error, action horizonredux.Action, dispatch horizonredux.Dispatch) {
			dispatch(horizonredux.NewErrorAction(chatDisconnected, err))
		},
	); err != nil {
		return err
	}

	if _, err := hr.TakeEvery(
		horizonredux.ExactType(addMessageRequest),
		func(dataSource horizonredux.DataSource, action horizonredux.Action) horizonredux.ResultStream {
			return dataSource.Query(addSubject, action.Payload)
		},
		func(result interface{}, action horizonredux.Action, dispatch horizonredux.Dispatch) {
			dispatch(horizonredux.NewAction(addMessageSuccess, result).WithMeta("request", action.ID))
		},
		func(err error, action horizonredux.Action, dispatch horizonredux.Dispatch) {
			dispatch(horizonredux.NewErrorAction(addMessageFailure, err).WithMeta("request", action.ID))
		},
	); err != nil {
		return err
	}

	// Fire and forget, the cleared history comes back through the watch.
	_, err := hr.TakeEvery(
		horizonredux.ExactType(clearMessages),
		func(horizonredux.DataSource, horizonredux.Action) horizonredux.ResultStream {
			if err := source.Publish(clearSubject, nil); err != nil {
				fmt.Println(colorized.Red(err.Error()))
			}
			return nil
		},
		nil,
		nil,
	)

	return err
}

func subscribeNotices(source *natsource.Source, dispatch horizonredux.Dispatch) ([]horizonredux.Subscription, error) {
	return horizonredux.SetupSubscriptionActions(source, dispatch, []horizonredux.SubscriptionAction{
		{
			Query: func(dataSource horizonredux.DataSource) horizonredux.ResultStream {
				return dataSource.Query(noticesSubject)
			},
			ActionCreator: func(result interface{}) horizonredux.Action {
				return horizonredux.NewAction(systemNotice, result)
			},
			OnQueryError: func(err error) {
				fmt.Println(colorized.Red(err.Error()))
			},
		},
	})
}

// loggingMiddleware prints every action that reaches the store.
func loggingMiddleware(horizonredux.StoreAPI) func(next horizonredux.Dispatch) horizonredux.Dispatch {
	return func(next horizonredux.Dispatch) horizonredux.Dispatch {
		return func(action horizonredux.Action) interface{} {
			encoded, err := action.Marshal()
			if err != nil {
				fmt.Println(colorized.Red(err.Error()))
				return next(action)
			}

			fmt.Printf("%s %s\n", colorized.Magenta("dispatch"), colorized.White(string(encoded)))

			return next(action)
		}
	}
}
