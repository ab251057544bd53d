// Package registry implements the ParameterRegistry external
// interface named in spec.md §6, plus the ParameterValue sum type
// spec.md §9 calls for in place of the original's untyped void*
// storage, grounded on the per-type switch in
// original_source/src/Services/ParameterService.cpp.
package registry

import (
	"sync"

	"github.com/nyxsat/pusd/ccsds"
)

// Type tags the primitive kind of one parameter, matching the
// original's UINT8..DOUBLE enumeration.
type Type uint8

const (
	U8 Type = iota
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	F32
	F64
)

// Value is a tagged union over the primitive parameter types the core
// reads and writes. Exactly one field is meaningful, selected by Type.
type Value struct {
	Type Type
	U    uint64
	I    int64
	F    float64
}

// AppendTo big-endian-encodes v onto msg, dispatching on v.Type the
// way ParameterService::appendParameterToMessage's switch does.
func (v Value) AppendTo(msg *ccsds.Message) error {
	switch v.Type {
	case U8:
		return msg.AppendByte(uint8(v.U))
	case I8:
		return msg.AppendByte(uint8(int8(v.I)))
	case U16:
		return msg.AppendHalf(uint16(v.U))
	case I16:
		return msg.AppendHalf(uint16(int16(v.I)))
	case U32:
		return msg.AppendWord(uint32(v.U))
	case I32:
		return msg.AppendWord(uint32(int32(v.I)))
	case U64:
		if err := msg.AppendWord(uint32(v.U >> 32)); err != nil {
			return err
		}
		return msg.AppendWord(uint32(v.U))
	case I64:
		u := uint64(v.I)
		if err := msg.AppendWord(uint32(u >> 32)); err != nil {
			return err
		}
		return msg.AppendWord(uint32(u))
	case F32:
		return msg.AppendWord(float32bits(float32(v.F)))
	case F64:
		bits := float64bits(v.F)
		if err := msg.AppendWord(uint32(bits >> 32)); err != nil {
			return err
		}
		return msg.AppendWord(uint32(bits))
	default:
		return ccsds.ErrInvalidArgument
	}
}

// ReadValue reads a Value of the given type from msg, the inverse of
// AppendTo, matching updateParameterFromMessage's switch.
func ReadValue(msg *ccsds.Message, t Type) (Value, error) {
	switch t {
	case U8:
		b, err := msg.ReadByte()
		return Value{Type: t, U: uint64(b)}, err
	case I8:
		b, err := msg.ReadByte()
		return Value{Type: t, I: int64(int8(b))}, err
	case U16:
		h, err := msg.ReadHalf()
		return Value{Type: t, U: uint64(h)}, err
	case I16:
		h, err := msg.ReadHalf()
		return Value{Type: t, I: int64(int16(h))}, err
	case U32:
		w, err := msg.ReadWord()
		return Value{Type: t, U: uint64(w)}, err
	case I32:
		w, err := msg.ReadWord()
		return Value{Type: t, I: int64(int32(w))}, err
	case U64:
		hi, err := msg.ReadWord()
		if err != nil {
			return Value{}, err
		}
		lo, err := msg.ReadWord()
		return Value{Type: t, U: uint64(hi)<<32 | uint64(lo)}, err
	case I64:
		hi, err := msg.ReadWord()
		if err != nil {
			return Value{}, err
		}
		lo, err := msg.ReadWord()
		return Value{Type: t, I: int64(uint64(hi)<<32 | uint64(lo))}, err
	case F32:
		w, err := msg.ReadWord()
		return Value{Type: t, F: float64(float32frombits(w))}, err
	case F64:
		hi, err := msg.ReadWord()
		if err != nil {
			return Value{}, err
		}
		lo, err := msg.ReadWord()
		return Value{Type: t, F: float64frombits(uint64(hi)<<32 | uint64(lo))}, err
	default:
		return Value{}, ccsds.ErrInvalidArgument
	}
}

// ParameterRegistry is the external parameter store: get/set by id,
// with each id's declared type fixed at registration.
type ParameterRegistry interface {
	Get(id uint16) (Value, error)
	Set(id uint16, v Value) error
	TypeOf(id uint16) (Type, bool)
	Exists(id uint16) bool
}

// InMemory is a ParameterRegistry reference implementation: a
// goroutine-safe map keyed by parameter id, each entry carrying its
// declared Type.
type InMemory struct {
	mu     sync.Mutex
	values map[uint16]Value
}

// NewInMemory returns an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{values: make(map[uint16]Value)}
}

// Register declares a parameter id with its type and initial value.
func (r *InMemory) Register(id uint16, initial Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[id] = initial
}

func (r *InMemory) Get(id uint16) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[id]
	if !ok {
		return Value{}, ccsds.ErrInvalidArgument
	}
	return v, nil
}

func (r *InMemory) Set(id uint16, v Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.values[id]
	if !ok {
		return ccsds.ErrInvalidArgument
	}
	if existing.Type != v.Type {
		return ccsds.ErrInvalidArgument
	}
	r.values[id] = v
	return nil
}

func (r *InMemory) TypeOf(id uint16) (Type, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[id]
	return v.Type, ok
}

func (r *InMemory) Exists(id uint16) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.values[id]
	return ok
}
