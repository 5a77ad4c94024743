package errors

import (
	"bytes"
	"fmt"
	"log"
	"runtime"
)

type (
	// Kind is the error classification.
	Kind uint8
	// Operation that was performed to produce this error.
	Operation string

	// Error is the implementation of the error interface.
	Error struct {
		// Op is the performed operation, usually it is the method name.
		// e.g. HorizonRedux.AddActionTaker
		Op Operation
		// Kind of the error such as an invalid pattern
		// or "Other" if its class is unknown or irrelevant.
		Kind Kind
		// Err is the underlying error that has triggered this one, if any.
		Err error
	}
)

const (
	// Other is a fallback classification of the error.
	Other Kind = iota
	// Invalid entity is not allowed.
	Invalid
	// Exist item already exists.
	Exist
	// NotFound item is not found.
	NotFound
	// MinLength should be 1 or more.
	MinLength
	// Failure to apply an operation.
	Failure
	// Panic recovery errors.
	Panic
	// InvalidPattern is neither an exact type, a type set nor a predicate.
	InvalidPattern
	// InvalidQueryProducer is a missing query producer.
	InvalidQueryProducer
	// InvalidHandler is a missing handler where one is required.
	InvalidHandler
	// MissingDataSource is a nil data source.
	MissingDataSource
	// MissingDispatch is a nil dispatch function.
	MissingDispatch
	// MissingConfig is a nil configuration collection.
	MissingConfig
	// Unbound dispatch reference, the middleware was never attached to a store.
	Unbound
	// NilStream is a query producer that returned no stream.
	NilStream
	// Query failures reported by the data source.
	Query
)

var (
	// Separator is used to separate nested errors.
	Separator = ":\n\t"
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid entity is provided, entity can not be nil"
	case Exist:
		return "item already exists"
	case NotFound:
		return "item not found"
	case MinLength:
		return "at least one entity, should be passed"
	case Failure:
		return "could not perform operation"
	case Panic:
		return "panic"
	case InvalidPattern:
		return "pattern must be an exact action type, a set of action types, or a predicate"
	case InvalidQueryProducer:
		return "query producer must be a function that returns a result stream"
	case InvalidHandler:
		return "handler must be a function"
	case MissingDataSource:
		return "a data source instance must be provided"
	case MissingDispatch:
		return "a store dispatch function must be provided"
	case MissingConfig:
		return "a configuration must be provided"
	case Unbound:
		return "dispatch is not bound to a store yet"
	case NilStream:
		return "query producer returned a nil stream"
	case Query:
		return "query failed"
	}

	return "unknown error kind"
}

// E creates an error
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("call to errors.E with no arguments")
	}

	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case Operation:
			e.Op = arg
		case Kind:
			e.Kind = arg
		case *Error:
			// Make a clone
			clone := *arg
			e.Err = &clone
		case error:
			e.Err = arg
		case string:
			e.Err = Errorf("%s", arg)
		default:
			_, file, line, _ := runtime.Caller(1)
			log.Printf("errors.E: bad call from %s:%d: %v", file, line, args)

			return Errorf("unknown type %T, value %v in error call", arg, arg)
		}
	}

	return e
}

func (e *Error) Error() string {
	b := new(bytes.Buffer)

	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(string(e.Op))
	}

	if e.Kind != 0 {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}

	if e.Err != nil {
		// Indent on new line if we are cascading non-empty errors.
		if prevErr, ok := e.Err.(*Error); ok {
			if !prevErr.isZero() {
				pad(b, Separator)
				b.WriteString(e.Err.Error())
			}
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}

	if b.Len() == 0 {
		return "no error"
	}

	return b.String()
}

// Unwrap returns the underlying error, so the standard library errors.Is/As can walk the chain.
func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) isZero() bool {
	return e.Op == "" && e.Kind == 0 && e.Err == nil
}

// Errorf creates an error from a given format string.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Is checks if the error of a given kind.
func Is(kind Kind, err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}

	if e.Kind != Other {
		return e.Kind == kind
	}

	if e.Err != nil {
		return Is(kind, e.Err)
	}

	return false
}

// pad appends str to the buffer if the buffer already has some data.
func pad(b *bytes.Buffer, str string) {
	if b.Len() == 0 {
		return
	}

	b.WriteString(str)
}
