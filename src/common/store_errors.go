package common

import "fmt"

// StoreErrType identifies the kind of a StoreErr.
type StoreErrType uint32

const (
	// KeyNotFound is returned when a key has no record in the store. Loading
	// an absent authority is a normal event, not a failure, so callers are
	// expected to check for this type before treating the error as fatal.
	KeyNotFound StoreErrType = iota
	// BadVersion is returned when a stored record carries a serialization
	// version this build does not understand.
	BadVersion
	// CorruptRecord is returned when a stored record cannot be decoded.
	CorruptRecord
)

// StoreErr is the error type returned by durable store backends.
type StoreErr struct {
	dataType string
	errType  StoreErrType
	key      string
}

// NewStoreErr creates a StoreErr.
func NewStoreErr(dataType string, errType StoreErrType, key string) StoreErr {
	return StoreErr{
		dataType: dataType,
		errType:  errType,
		key:      key,
	}
}

// Error implements the error interface.
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "Not Found"
	case BadVersion:
		m = "Bad Version"
	case CorruptRecord:
		m = "Corrupt Record"
	}

	return fmt.Sprintf("%s, %s, %s", e.dataType, e.key, m)
}

// IsStore checks that an error is of type StoreErr and that its code matches
// the provided StoreErrType.
func IsStore(err error, t StoreErrType) bool {
	storeErr, ok := err.(StoreErr)
	return ok && storeErr.errType == t
}
