// Package batch owns GPU-resident geometry: TriangleBatch for welded, indexed
// meshes and Batch for immediate-mode style vertex streams.
//
// Batches are bound to the thread that owns their gpu.Context and do no
// locking. A single caller builds, draws and destroys each batch.
package batch

import (
	"errors"
	"fmt"
)

// Batch errors.
var (
	ErrNotBegun      = errors.New("batch: not building")
	ErrNotFinalized  = errors.New("batch: not finalized")
	ErrMapped        = errors.New("batch: buffers are mapped")
	ErrDestroyed     = errors.New("batch: destroyed")
	ErrMappingClosed = errors.New("batch: mapping already released")
	ErrNoAttribute   = errors.New("batch: attribute not present")
)

// State is the lifecycle stage of a batch. Transitions only move forward,
// except Finalized and Mapped which toggle through MapForUpdate and Unmap.
type State uint8

// Lifecycle states.
const (
	Empty State = iota
	Building
	Finalized
	Mapped
	Destroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Building:
		return "building"
	case Finalized:
		return "finalized"
	case Mapped:
		return "mapped"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// stateError maps a wrong-state call to the matching error.
func stateError(s State, want State) error {
	switch {
	case s == Destroyed:
		return ErrDestroyed
	case s == Mapped:
		return ErrMapped
	case want == Building:
		return ErrNotBegun
	default:
		return ErrNotFinalized
	}
}
