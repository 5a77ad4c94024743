// Package natsource is a NATS backed data source for horizonredux.
//
// Query(subject) watches a subject and emits every JSON message published on it.
// Query(subject, document) sends the document as a request and emits the reply
// once, which is how writes are acknowledged. Replies carrying the ErrorHeader
// fail the stream.
package natsource

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ahmedkamals/horizonredux"
	"github.com/ahmedkamals/horizonredux/internal/errors"
	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ErrorHeader marks a reply as a failure, its value is the reason.
const ErrorHeader = "Hz-Error"

var errNotConnected = errors.Errorf("not connected")

// Source implements horizonredux.DataSource and horizonredux.ReadinessNotifier.
type Source struct {
	cfg    Config
	logger zerolog.Logger

	mux  sync.RWMutex
	conn *nats.Conn

	ready        *signal
	disconnected *signal
}

// New creates a Source that is not connected yet. Actions dispatched through
// a HorizonRedux built on it are buffered until Connect succeeds.
func New(cfg Config, logger zerolog.Logger) *Source {
	s := &Source{
		cfg:          cfg.withDefaults(),
		logger:       logger.With().Str("component", "natsource").Logger(),
		disconnected: newSignal(nil),
	}
	s.ready = newSignal(s.IsConnected)

	return s
}

// Dial creates a Source and connects it.
func Dial(ctx context.Context, cfg Config, logger zerolog.Logger) (*Source, error) {
	const op errors.Operation = "natsource.Dial"

	s := New(cfg, logger)
	if err := s.Connect(ctx); err != nil {
		return nil, errors.E(op, err)
	}

	return s, nil
}

// Connect connects to NATS, retrying with exponential backoff.
func (s *Source) Connect(ctx context.Context) error {
	const op errors.Operation = "Source.Connect"

	if ctx == nil {
		return errors.E(op, errors.Invalid, "nil context")
	}

	if s.IsConnected() {
		return errors.E(op, errors.Exist, "already connected")
	}

	cfg := s.cfg
	options := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			s.logger.Info().Str("url", conn.ConnectedUrl()).Msg("reconnected")
			s.ready.fire()
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			s.logger.Warn().Err(err).Msg("disconnected")
			s.disconnected.fire()
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			s.logger.Debug().Msg("connection closed")
		}),
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.BaseBackoff
	exp.MaxInterval = cfg.MaxBackoff
	exp.Multiplier = 2
	exp.Reset()

	attempt := 0
	connect := func() error {
		attempt++
		conn, err := nats.Connect(cfg.URL, options...)
		if err != nil {
			s.logger.Warn().Err(err).Int("attempt", attempt).Str("url", cfg.URL).Msg("connect failed")
			return err
		}

		s.mux.Lock()
		s.conn = conn
		s.mux.Unlock()

		return nil
	}

	retries := cfg.ConnectAttempts - 1
	if err := backoff.Retry(connect, backoff.WithContext(backoff.WithMaxRetries(exp, retries), ctx)); err != nil {
		return errors.E(op, errors.Failure, err)
	}

	s.logger.Info().Str("url", cfg.URL).Msg("connected")
	s.ready.fire()

	return nil
}

// Conn returns the underlying connection.
func (s *Source) Conn() *nats.Conn {
	s.mux.RLock()
	defer s.mux.RUnlock()

	return s.conn
}

// IsConnected reports whether the connection is currently up.
func (s *Source) IsConnected() bool {
	conn := s.Conn()

	return conn != nil && conn.IsConnected()
}

// OnReady emits when the connection is up, right away if it already is.
func (s *Source) OnReady() horizonredux.ResultStream {
	return s.ready.stream()
}

// OnDisconnected emits every time the connection is lost.
func (s *Source) OnDisconnected() horizonredux.ResultStream {
	return s.disconnected.stream()
}

// Query watches subject, or requests it with a single document argument.
func (s *Source) Query(subject string, args ...interface{}) horizonredux.ResultStream {
	const op errors.Operation = "Source.Query"

	if subject == "" {
		return horizonredux.Throw(errors.E(op, errors.Invalid, "empty subject"))
	}

	switch len(args) {
	case 0:
		return s.watch(subject)
	case 1:
		return s.request(subject, args[0])
	}

	return horizonredux.Throw(errors.E(op, errors.Invalid, "at most one document is accepted"))
}

// Publish sends document to subject without waiting for anything.
func (s *Source) Publish(subject string, document interface{}) error {
	const op errors.Operation = "Source.Publish"

	data, err := json.Marshal(document)
	if err != nil {
		return errors.E(op, errors.Failure, err)
	}

	conn := s.Conn()
	if conn == nil {
		return errors.E(op, errors.Failure, errNotConnected)
	}

	if err := conn.Publish(subject, data); err != nil {
		return errors.E(op, errors.Failure, err)
	}

	return nil
}

func (s *Source) watch(subject string) horizonredux.ResultStream {
	const op errors.Operation = "Source.watch"

	return horizonredux.NewStream(func(observer horizonredux.Observer) func() {
		conn := s.Conn()
		if conn == nil {
			observer.Error(errors.E(op, errors.Query, errNotConnected))
			return nil
		}

		subscription, err := conn.Subscribe(subject, func(msg *nats.Msg) {
			result, err := decode(msg.Data)
			if err != nil {
				observer.Error(errors.E(op, errors.Failure, err))
				return
			}
			observer.Next(result)
		})
		if err != nil {
			observer.Error(errors.E(op, errors.Query, err))
			return nil
		}

		return func() {
			if err := subscription.Unsubscribe(); err != nil {
				s.logger.Debug().Err(err).Str("subject", subject).Msg("unsubscribe")
			}
		}
	})
}

func (s *Source) request(subject string, document interface{}) horizonredux.ResultStream {
	const op errors.Operation = "Source.request"

	return horizonredux.NewStream(func(observer horizonredux.Observer) func() {
		conn := s.Conn()
		if conn == nil {
			observer.Error(errors.E(op, errors.Query, errNotConnected))
			return nil
		}

		data, err := json.Marshal(document)
		if err != nil {
			observer.Error(errors.E(op, errors.Failure, err))
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)

		go func() {
			defer cancel()

			msg, err := conn.RequestWithContext(ctx, subject, data)
			if err != nil {
				if ctx.Err() == context.Canceled {
					return
				}
				observer.Error(errors.E(op, errors.Query, err))
				return
			}

			if reason := msg.Header.Get(ErrorHeader); reason != "" {
				observer.Error(errors.E(op, errors.Query, reason))
				return
			}

			result, err := decode(msg.Data)
			if err != nil {
				observer.Error(errors.E(op, errors.Failure, err))
				return
			}

			observer.Next(result)
			observer.Complete()
		}()

		return cancel
	})
}

// Reply answers a request made through Query(subject, document).
// A non nil failure is sent in the ErrorHeader and fails the requesting stream.
func Reply(msg *nats.Msg, result interface{}, failure error) error {
	const op errors.Operation = "natsource.Reply"

	reply := nats.NewMsg(msg.Reply)

	if failure != nil {
		reply.Header.Set(ErrorHeader, failure.Error())
		reply.Data = []byte("null")
	} else {
		data, err := json.Marshal(result)
		if err != nil {
			return errors.E(op, errors.Failure, err)
		}
		reply.Data = data
	}

	if err := msg.RespondMsg(reply); err != nil {
		return errors.E(op, errors.Failure, err)
	}

	return nil
}

// Flush waits until the server processed everything sent so far.
func (s *Source) Flush(timeout time.Duration) error {
	conn := s.Conn()
	if conn == nil {
		return errNotConnected
	}

	return conn.FlushTimeout(timeout)
}

// Close closes the connection.
func (s *Source) Close() {
	if conn := s.Conn(); conn != nil {
		conn.Close()
	}
}

func decode(data []byte) (interface{}, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var result interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return result, nil
}
