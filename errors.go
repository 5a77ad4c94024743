package horizonredux

import "github.com/ahmedkamals/horizonredux/internal/errors"

// ErrorKind classifies the errors returned by this package.
type ErrorKind = errors.Kind

// Error kinds callers can test with IsErrorKind.
const (
	KindInvalid              = errors.Invalid
	KindExist                = errors.Exist
	KindInvalidPattern       = errors.InvalidPattern
	KindInvalidQueryProducer = errors.InvalidQueryProducer
	KindInvalidHandler       = errors.InvalidHandler
	KindMissingDataSource    = errors.MissingDataSource
	KindMissingDispatch      = errors.MissingDispatch
	KindMissingConfig        = errors.MissingConfig
	KindUnbound              = errors.Unbound
	KindNilStream            = errors.NilStream
	KindQuery                = errors.Query
	KindPanic                = errors.Panic
)

// IsErrorKind reports whether err, or an error it wraps, is of the given kind.
func IsErrorKind(kind ErrorKind, err error) bool {
	return errors.Is(kind, err)
}
