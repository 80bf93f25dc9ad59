package gpu

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshkit/internal/logger"
)

// SlotState says who owns the memory behind a buffer slot.
type SlotState uint8

// Slot states.
const (
	// Unallocated: nothing exists, on the CPU or the GPU.
	Unallocated SlotState = iota
	// CPUOwned: data lives in CPU staging and has not been uploaded.
	CPUOwned
	// GPUOwned: data lives in a buffer object.
	GPUOwned
	// Mapped: the buffer object is mapped into CPU address space.
	Mapped
)

// String returns the state name.
func (s SlotState) String() string {
	switch s {
	case Unallocated:
		return "unallocated"
	case CPUOwned:
		return "cpu"
	case GPUOwned:
		return "gpu"
	case Mapped:
		return "mapped"
	default:
		return fmt.Sprintf("SlotState(%d)", uint8(s))
	}
}

// BufferSlot tracks one attribute or index buffer and its ownership.
type BufferSlot struct {
	ID     uint32
	Target Target
	State  SlotState
	// Components is the float count per vertex for attribute slots.
	Components int32
	// Size is the byte length of the last successful upload.
	Size int
}

// Present reports whether the slot holds data.
func (s *BufferSlot) Present() bool {
	return s.State != Unallocated
}

// OnGPU reports whether a buffer object backs the slot.
func (s *BufferSlot) OnGPU() bool {
	return s.State == GPUOwned || s.State == Mapped
}

// Upload creates the buffer object (if needed) and fills it with data.
// On failure the slot keeps its previous state and any buffer created here
// is deleted.
func (s *BufferSlot) Upload(ctx Context, data []byte, usage Usage) error {
	created := false
	if s.ID == 0 {
		id, err := ctx.GenBuffer()
		if err != nil {
			return err
		}
		s.ID = id
		created = true
	}
	if err := ctx.BufferData(s.Target, s.ID, len(data), data, usage); err != nil {
		if created {
			ctx.DeleteBuffer(s.ID)
			s.ID = 0
		}
		return err
	}
	s.State = GPUOwned
	s.Size = len(data)
	return nil
}

// Map maps the slot's buffer object. An empty buffer cannot be mapped; Map
// returns an empty slice for it and the slot stays GPUOwned.
func (s *BufferSlot) Map(ctx Context, access Access) ([]byte, error) {
	if s.State != GPUOwned {
		return nil, fmt.Errorf("%w: cannot map %s buffer", ErrResource, s.State)
	}
	if s.Size == 0 {
		return []byte{}, nil
	}
	mem, err := ctx.MapBuffer(s.Target, s.ID, access)
	if err != nil {
		return nil, err
	}
	s.State = Mapped
	return mem, nil
}

// Unmap ends a Map.
func (s *BufferSlot) Unmap(ctx Context) error {
	if s.State != Mapped {
		return nil
	}
	s.State = GPUOwned
	return ctx.UnmapBuffer(s.Target, s.ID)
}

// Release deletes the buffer object, if any, and resets the slot.
// A mapped buffer is unmapped first.
func (s *BufferSlot) Release(ctx Context) {
	if s.State == Mapped {
		if err := ctx.UnmapBuffer(s.Target, s.ID); err != nil {
			logger.Named("gpu").Warn("unmap on release failed",
				zap.Uint32("buffer", s.ID), zap.Error(err))
		}
	}
	if s.ID != 0 {
		ctx.DeleteBuffer(s.ID)
	}
	s.ID = 0
	s.Size = 0
	s.State = Unallocated
}
