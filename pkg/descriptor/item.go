// Package descriptor defines the immutable values that describe a two-level
// list: sections holding ordered items. Descriptors carry two independent
// notions of sameness: Identity matches "the same slot" across snapshots and
// Equal decides whether a matched slot changed.
package descriptor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/hashstructure/v2"
)

// ErrSlotType is returned when an item is materialized into a slot of a
// different Go type than the one it was described with.
var ErrSlotType = errors.New("descriptor: slot type mismatch")

// Slot is the widget-owned row an item renders into.
type Slot = any

// Action is a caller-defined interaction forwarded to OnAction.
type Action string

// Kind identifies how an item is rendered. ID is the slot identifier the
// widget registers (a reuse identifier) and Type is the identity of the slot
// type backing it.
type Kind struct {
	ID   string
	Type string
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k.Type == "" {
		return k.ID
	}
	return k.ID + "(" + k.Type + ")"
}

// Item describes a single row: the model it shows, the kind of slot that
// shows it and the callbacks wired to it. Callbacks never take part in
// Identity or Equal.
type Item[M comparable, S any] struct {
	Model     M
	Kind      Kind
	Configure func(S)
	OnSelect  func()
	OnAction  func(Action)

	accepts func(Slot) bool
}

// NewItem describes model rendered by slots of type S registered under id.
func NewItem[M comparable, S any](model M, id string, configure func(S)) Item[M, S] {
	return Item[M, S]{
		Model:     model,
		Kind:      Kind{ID: id, Type: TypeName[S]()},
		Configure: configure,
		accepts: func(s Slot) bool {
			_, ok := s.(S)
			return ok
		},
	}
}

// TypeName returns the kind type identity used for slots of type S.
func TypeName[S any]() string {
	return reflect.TypeOf((*S)(nil)).Elem().String()
}

// WithSelect returns a copy of the item with OnSelect set.
func (i Item[M, S]) WithSelect(fn func()) Item[M, S] {
	i.OnSelect = fn
	return i
}

// WithAction returns a copy of the item with OnAction set.
func (i Item[M, S]) WithAction(fn func(Action)) Item[M, S] {
	i.OnAction = fn
	return i
}

// Identity hashes the model together with both halves of the kind.
func (i Item[M, S]) Identity() uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], modelHash(i.Model))
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(i.Kind.ID)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(i.Kind.Type)
	return d.Sum64()
}

// Equal compares model and kind only.
func (i Item[M, S]) Equal(o Item[M, S]) bool {
	return i.Kind == o.Kind && modelEqual(i.Model, o.Model)
}

// ModelEqual reports whether two models are equal. Models held in an
// interface whose dynamic type is not comparable, such as slices and maps,
// are compared deeply instead of panicking.
func ModelEqual[M comparable](a, b M) bool {
	return modelEqual(a, b)
}

func modelEqual[M comparable](a, b M) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil || !comparableType(ta) {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

// comparableType is reflect.Type.Comparable extended to the interface fields of
// structs and arrays, whose dynamic values decide at runtime.
func comparableType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return false
	case reflect.Array:
		return comparableType(t.Elem())
	case reflect.Struct:
		for n := 0; n < t.NumField(); n++ {
			if !comparableType(t.Field(n).Type) {
				return false
			}
		}
		return true
	default:
		return t.Comparable()
	}
}

// Fixed widens the slot type so items of different slot types can share a
// section. The typed Configure still only sees slots of type S.
func (i Item[M, S]) Fixed() Item[M, Slot] {
	return Item[M, Slot]{
		Model:     i.Model,
		Kind:      i.Kind,
		Configure: i.erasedConfigure(),
		OnSelect:  i.OnSelect,
		OnAction:  i.OnAction,
		accepts:   i.acceptor(),
	}
}

// Any erases both the model and the slot type.
func (i Item[M, S]) Any() Item[any, Slot] {
	return Item[any, Slot]{
		Model:     i.Model,
		Kind:      i.Kind,
		Configure: i.erasedConfigure(),
		OnSelect:  i.OnSelect,
		OnAction:  i.OnAction,
		accepts:   i.acceptor(),
	}
}

// Materialize populates slot through the item's current Configure.
func (i Item[M, S]) Materialize(slot Slot) error {
	if !i.acceptor()(slot) {
		return fmt.Errorf("%w: kind %s got %T", ErrSlotType, i.Kind, slot)
	}
	if i.Configure == nil {
		return nil
	}
	i.Configure(slot.(S))
	return nil
}

// String implements fmt.Stringer.
func (i Item[M, S]) String() string {
	return fmt.Sprintf("ITEM %s %v", i.Kind.ID, i.Model)
}

func (i Item[M, S]) acceptor() func(Slot) bool {
	if i.accepts != nil {
		return i.accepts
	}
	return func(s Slot) bool {
		_, ok := s.(S)
		return ok
	}
}

func (i Item[M, S]) erasedConfigure() func(Slot) {
	if i.Configure == nil {
		return nil
	}
	configure := i.Configure
	return func(s Slot) {
		if typed, ok := s.(S); ok {
			configure(typed)
		}
	}
}

func modelHash(model any) uint64 {
	h, err := hashstructure.Hash(model, hashstructure.FormatV2, nil)
	if err == nil {
		return h
	}
	// Values hashstructure refuses (channels, funcs) fall back to their
	// printed form.
	return xxhash.Sum64String(fmt.Sprintf("%T:%v", model, model))
}

func formatHash(h uint64) string {
	return strconv.FormatUint(h, 16)
}
