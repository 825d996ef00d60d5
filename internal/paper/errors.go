package paper

import (
	"errors"
	"fmt"
)

// Direction tags a resolution failure with the scan direction attempted.
type Direction string

const (
	DirForward  Direction = "forward"
	DirBackward Direction = "backward"
)

// NotFoundError reports that the resolver exhausted the sequence without
// satisfying the reference.
type NotFoundError struct {
	Direction Direction
}

func (e *NotFoundError) Error() string {
	if e.Direction == DirBackward {
		return "could not resolve a previous node"
	}
	return "could not find a next node"
}

// ErrEmptyBatch rejects write intents whose read batch is empty.
var ErrEmptyBatch = errors.New("write intent carries no read intents")

// BatchError reports that the deciding (last) read of a write batch
// failed to resolve.
type BatchError struct {
	Op  WriteOp
	Err error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s target did not resolve: %v", e.Op, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a resolution not-found failure,
// directly or wrapped in a batch error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
