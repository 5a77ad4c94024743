package horizonredux

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type (
	fakeEventLogger struct {
		logChan chan string
	}

	fakeErrorQueue struct {
		errChan chan error
	}

	// fakeStream records its lifecycle into a shared journal and lets tests
	// push values to every live subscriber.
	fakeStream struct {
		mux       sync.Mutex
		name      string
		journal   *journal
		observers map[int]Observer
		nextID    int
	}

	journal struct {
		mux     sync.Mutex
		entries []string
	}

	fakeDataSource struct {
		mux     sync.Mutex
		journal *journal
		streams []*fakeStream
		queries []string
	}

	readyDataSource struct {
		*fakeDataSource
		ready        *fakeStream
		disconnected *fakeStream
	}

	fakeStore struct {
		mux      sync.Mutex
		dispatch Dispatch
		reduced  []Action
	}
)

const (
	testBufferSize = 100
	delayTime      = 2 * time.Second
)

func newFakeEventLogger(logChan chan string) Logger {
	return &fakeEventLogger{
		logChan: logChan,
	}
}

func (fel *fakeEventLogger) Log(message string) {
	select {
	case fel.logChan <- message:
	// Drop any log message that exceeds the log queue size.
	default:
	}
}

func newFakeErrorQueue(errChan chan error) ErrorQueue {
	return &fakeErrorQueue{
		errChan: errChan,
	}
}

func (feq *fakeErrorQueue) Report(err error) {
	select {
	case feq.errChan <- err:
	// Drop any error message that exceeds the error queue size.
	default:
	}
}

func (feq *fakeErrorQueue) getError(t *testing.T) error {
	t.Helper()

	select {
	case err := <-feq.errChan:
		return err
	case <-time.After(delayTime):
		t.Fatal("timed out waiting for a reported error")
	}

	return nil
}

func (feq *fakeErrorQueue) isEmpty() bool {
	return len(feq.errChan) == 0
}

func (j *journal) add(entry string) {
	j.mux.Lock()
	j.entries = append(j.entries, entry)
	j.mux.Unlock()
}

func (j *journal) get() []string {
	j.mux.Lock()
	defer j.mux.Unlock()

	return append([]string{}, j.entries...)
}

func newFakeStream(name string, j *journal) *fakeStream {
	return &fakeStream{
		name:      name,
		journal:   j,
		observers: make(map[int]Observer),
	}
}

func (fs *fakeStream) Subscribe(observer Observer) Subscription {
	fs.mux.Lock()
	id := fs.nextID
	fs.nextID++
	fs.observers[id] = observer
	fs.mux.Unlock()

	fs.journal.add(fmt.Sprintf("subscribe %s", fs.name))

	return SubscriptionFunc(func() {
		fs.mux.Lock()
		delete(fs.observers, id)
		fs.mux.Unlock()

		fs.journal.add(fmt.Sprintf("unsubscribe %s", fs.name))
	})
}

func (fs *fakeStream) live() []Observer {
	fs.mux.Lock()
	defer fs.mux.Unlock()

	observers := make([]Observer, 0, len(fs.observers))
	for id := 0; id < fs.nextID; id++ {
		if observer, ok := fs.observers[id]; ok {
			observers = append(observers, observer)
		}
	}

	return observers
}

func (fs *fakeStream) emit(value interface{}) {
	for _, observer := range fs.live() {
		if observer.Next != nil {
			observer.Next(value)
		}
	}
}

func (fs *fakeStream) fail(err error) {
	for _, observer := range fs.live() {
		if observer.Error != nil {
			observer.Error(err)
		}
	}
}

func (fs *fakeStream) complete() {
	for _, observer := range fs.live() {
		if observer.Complete != nil {
			observer.Complete()
		}
	}
}

func (fs *fakeStream) subscribers() int {
	fs.mux.Lock()
	defer fs.mux.Unlock()

	return len(fs.observers)
}

func newFakeDataSource() *fakeDataSource {
	return &fakeDataSource{
		journal: &journal{},
	}
}

// Query returns a new fakeStream named after the selector and the query count.
func (fds *fakeDataSource) Query(selector string, args ...interface{}) ResultStream {
	fds.mux.Lock()
	defer fds.mux.Unlock()

	fds.queries = append(fds.queries, selector)
	stream := newFakeStream(fmt.Sprintf("%s#%d", selector, len(fds.queries)), fds.journal)
	fds.streams = append(fds.streams, stream)

	return stream
}

func (fds *fakeDataSource) stream(t *testing.T, index int) *fakeStream {
	t.Helper()

	fds.mux.Lock()
	defer fds.mux.Unlock()

	require.Greater(t, len(fds.streams), index, "query was not run")

	return fds.streams[index]
}

func (fds *fakeDataSource) queryCount() int {
	fds.mux.Lock()
	defer fds.mux.Unlock()

	return len(fds.queries)
}

func newReadyDataSource() *readyDataSource {
	source := newFakeDataSource()

	return &readyDataSource{
		fakeDataSource: source,
		ready:          newFakeStream("ready", source.journal),
		disconnected:   newFakeStream("disconnected", source.journal),
	}
}

func (rds *readyDataSource) OnReady() ResultStream {
	return rds.ready
}

func (rds *readyDataSource) OnDisconnected() ResultStream {
	return rds.disconnected
}

func (fs *fakeStore) Dispatch(action Action) interface{} {
	return fs.dispatch(action)
}

func (fs *fakeStore) GetState() interface{} {
	return fs.actions()
}

func (fs *fakeStore) reduce(action Action) interface{} {
	fs.mux.Lock()
	fs.reduced = append(fs.reduced, action)
	fs.mux.Unlock()

	return action
}

func (fs *fakeStore) actions() []Action {
	fs.mux.Lock()
	defer fs.mux.Unlock()

	return append([]Action{}, fs.reduced...)
}

func (fs *fakeStore) types() []ActionType {
	types := make([]ActionType, 0)
	for _, action := range fs.actions() {
		types = append(types, action.Type)
	}

	return types
}

// newFakeStore applies the middleware the way a store does, reducing into a slice.
func newFakeStore(middleware Middleware) *fakeStore {
	store := &fakeStore{}
	store.dispatch = middleware(store)(store.reduce)

	return store
}

func newTestHorizonRedux(t *testing.T, dataSource DataSource, options ...Option) (*HorizonRedux, *fakeErrorQueue) {
	t.Helper()

	errorQueue := newFakeErrorQueue(make(chan error, testBufferSize)).(*fakeErrorQueue)
	options = append([]Option{
		WithLogger(newFakeEventLogger(make(chan string, testBufferSize))),
		WithErrorQueue(errorQueue),
	}, options...)

	hr, err := New(dataSource, options...)
	require.NoError(t, err)
	t.Cleanup(hr.Close)

	return hr, errorQueue
}

func watch(selector string) QueryProducer {
	return func(dataSource DataSource, action Action) ResultStream {
		return dataSource.Query(selector)
	}
}

func noopSuccess(interface{}, Action, Dispatch) {}
