package horizonredux

import (
	"sync"
)

type (
	// DataSource is the reactive data source action takers query.
	// The meaning of selector and args belongs to the implementation.
	DataSource interface {
		Query(selector string, args ...interface{}) ResultStream
	}

	// ReadinessNotifier is implemented by data sources that connect asynchronously.
	// Actions dispatched before OnReady emits are buffered.
	ReadinessNotifier interface {
		OnReady() ResultStream
		OnDisconnected() ResultStream
	}

	// ResultStream is a cancellable source of asynchronous values,
	// terminated by completion or error.
	ResultStream interface {
		Subscribe(Observer) Subscription
	}

	// Subscription cancels a subscribed stream. Unsubscribe is idempotent.
	Subscription interface {
		Unsubscribe()
	}

	// Observer receives the events of a stream. Every callback is optional.
	Observer struct {
		Next     func(interface{})
		Error    func(error)
		Complete func()
	}

	// Producer feeds an observer until it returns a teardown, or forever.
	Producer func(Observer) (teardown func())

	stream struct {
		produce Producer
	}

	// streamSubscription guards an observer so nothing is delivered
	// after termination or cancellation.
	streamSubscription struct {
		mux      sync.Mutex
		closed   bool
		observer Observer
		teardown func()
		once     sync.Once
	}

	subscriptionFunc func()
)

// NewStream creates a ResultStream that runs produce for every subscriber.
func NewStream(produce Producer) ResultStream {
	return &stream{
		produce: produce,
	}
}

// Of emits every value synchronously on subscribe and completes.
func Of(values ...interface{}) ResultStream {
	return NewStream(func(observer Observer) func() {
		for _, value := range values {
			observer.Next(value)
		}
		observer.Complete()

		return nil
	})
}

// Throw fails every subscriber with err.
func Throw(err error) ResultStream {
	return NewStream(func(observer Observer) func() {
		observer.Error(err)

		return nil
	})
}

// SubscriptionFunc adapts a cancel function to a Subscription.
func SubscriptionFunc(cancel func()) Subscription {
	var once sync.Once

	return subscriptionFunc(func() {
		once.Do(cancel)
	})
}

func (f subscriptionFunc) Unsubscribe() {
	f()
}

func (s *stream) Subscribe(observer Observer) Subscription {
	sub := &streamSubscription{
		observer: observer,
	}

	teardown := s.produce(Observer{
		Next:     sub.next,
		Error:    sub.error,
		Complete: sub.complete,
	})

	sub.mux.Lock()
	sub.teardown = teardown
	closed := sub.closed
	sub.mux.Unlock()

	// Terminated while producing, nobody else will release it.
	if closed {
		sub.release()
	}

	return sub
}

func (s *streamSubscription) isClosed() bool {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.closed
}

// close marks the subscription as closed and reports whether this call did it.
func (s *streamSubscription) close() bool {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.closed {
		return false
	}
	s.closed = true

	return true
}

func (s *streamSubscription) release() {
	s.mux.Lock()
	teardown := s.teardown
	s.mux.Unlock()

	if teardown == nil {
		return
	}

	s.once.Do(teardown)
}

func (s *streamSubscription) next(value interface{}) {
	if s.isClosed() || s.observer.Next == nil {
		return
	}

	s.observer.Next(value)
}

func (s *streamSubscription) error(err error) {
	if !s.close() {
		return
	}

	if s.observer.Error != nil {
		s.observer.Error(err)
	}
	s.release()
}

func (s *streamSubscription) complete() {
	if !s.close() {
		return
	}

	if s.observer.Complete != nil {
		s.observer.Complete()
	}
	s.release()
}

func (s *streamSubscription) Unsubscribe() {
	s.close()
	s.release()
}
