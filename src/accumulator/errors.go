package accumulator

import "errors"

var (
	// ErrCapacity is returned by Insert when the tree already holds
	// 2^MaxDepth leaves. The record must go to another tree; this one can
	// only grow by appending and it has no room left.
	ErrCapacity = errors.New("accumulator is full")

	// ErrIndexOutOfBounds is returned by Proof when the requested leaf index
	// has not been inserted. This indicates a caller bug and is never worth
	// retrying.
	ErrIndexOutOfBounds = errors.New("leaf index out of bounds")
)
