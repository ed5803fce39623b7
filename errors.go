package repsim

import (
	"errors"
	"fmt"

	"github.com/hupe1980/repsim/capture"
	"github.com/hupe1980/repsim/cca"
	"github.com/hupe1980/repsim/distance"
)

var (
	// ErrNoActivations is returned when a distance is requested before any
	// activation has been captured on either side.
	ErrNoActivations = capture.ErrNoActivations

	// ErrUnsupportedBackend is returned for an invalid CCA backend.
	ErrUnsupportedBackend = cca.ErrUnsupportedBackend

	// ErrUnsupportedKind is returned for an invalid distance kind.
	ErrUnsupportedKind = distance.ErrUnsupportedKind

	// ErrUnsupportedNeuronKind is returned for a neuron interpretation outside
	// the supported set. In particular the per-activation flattening of 4-D
	// tensors is deliberately not offered.
	ErrUnsupportedNeuronKind = errors.New("repsim: unsupported neuron kind")
)

// ShapeError indicates that the two captured buffers are not comparable:
// different ranks, or different data-point counts.
type ShapeError struct {
	Detail string
	cause  error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("repsim: shape mismatch: %s", e.Detail)
}

func (e *ShapeError) Unwrap() error { return e.cause }

// translateError maps subpackage errors onto the root taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var se *cca.ShapeError
	if errors.As(err, &se) {
		return &ShapeError{
			Detail: fmt.Sprintf("x has %d rows, y has %d", se.RowsX, se.RowsY),
			cause:  err,
		}
	}
	return err
}
