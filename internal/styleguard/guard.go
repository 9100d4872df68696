// Package styleguard protects computed-style lookups from invalid inputs.
//
// Callers ask an Inspector for the computed style of an element. Elements can
// disappear between the moment a caller obtains a reference and the moment it
// asks for the style, so the Guard never forwards anything that is not a live
// Element and answers with the Empty declaration instead.
package styleguard

import (
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// Element is anything an Inspector can compute a style for.
type Element interface {
	ElementID() string
}

// Declaration is a read-only computed style.
type Declaration interface {
	PropertyValue(name string) string
	Len() int
	Item(i int) string
}

// Inspector computes the style of an element. pseudo selects a pseudo-element
// ("::before") and may be empty.
type Inspector interface {
	ComputedStyle(el any, pseudo string) Declaration
}

// Empty is the inert declaration: every property is blank and it has no items.
type Empty struct{}

func (Empty) PropertyValue(string) string { return "" }
func (Empty) Len() int                    { return 0 }
func (Empty) Item(int) string             { return "" }

// Guard wraps an Inspector and degrades invalid input to Empty.
type Guard struct {
	inner Inspector
	log   *zap.Logger
}

func New(inner Inspector, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{inner: inner, log: log}
}

func (g *Guard) ComputedStyle(el any, pseudo string) Declaration {
	if !IsElement(el) {
		g.log.Warn("computed style requested for invalid element", zap.String("element", describe(el)))
		return Empty{}
	}
	if g.inner == nil {
		return Empty{}
	}
	decl := g.inner.ComputedStyle(el, pseudo)
	if decl == nil || isNil(decl) {
		return Empty{}
	}
	return decl
}

// IsElement reports whether v is a non-nil Element.
func IsElement(v any) bool {
	if v == nil || isNil(v) {
		return false
	}
	_, ok := v.(Element)
	return ok
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func describe(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}

// Map is a Declaration backed by a property map. Item walks property names
// in sorted order.
type Map struct {
	props map[string]string
	keys  []string
}

func NewMap(props map[string]string) *Map {
	m := &Map{props: make(map[string]string, len(props))}
	for k, v := range props {
		m.props[k] = v
		m.keys = append(m.keys, k)
	}
	slices.Sort(m.keys)
	return m
}

func (m *Map) PropertyValue(name string) string { return m.props[name] }
func (m *Map) Len() int                         { return len(m.keys) }

func (m *Map) Item(i int) string {
	if i < 0 || i >= len(m.keys) {
		return ""
	}
	return m.keys[i]
}
