package modal

import (
	"sync"
	"time"

	"dtt/internal/styleguard"
)

// Surface is the presentation layer modals are mounted on.
type Surface interface {
	styleguard.Inspector
	Mount(el *Element)
	Unmount(id string)
	Lookup(id string) *Element
	SetBackdrop(visible bool)
}

// MemorySurface keeps mounted elements in process. It backs the HTTP modal API.
type MemorySurface struct {
	mu         sync.RWMutex
	elements   map[string]*Element
	order      []string
	backdrop   bool
	transition time.Duration
}

func NewMemorySurface(transition time.Duration) *MemorySurface {
	return &MemorySurface{
		elements:   map[string]*Element{},
		transition: transition,
	}
}

func (s *MemorySurface) Mount(el *Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elements[el.ID]; ok {
		return
	}
	s.elements[el.ID] = el
	s.order = append(s.order, el.ID)
}

func (s *MemorySurface) Unmount(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elements[id]; !ok {
		return
	}
	delete(s.elements, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the mounted element or nil.
func (s *MemorySurface) Lookup(id string) *Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elements[id]
}

func (s *MemorySurface) SetBackdrop(visible bool) {
	s.mu.Lock()
	s.backdrop = visible
	s.mu.Unlock()
}

func (s *MemorySurface) BackdropVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backdrop
}

// Elements lists mounted elements in mount order, closing ones included.
func (s *MemorySurface) Elements() []*Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Element, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.elements[id])
	}
	return out
}

// ComputedStyle answers for mounted elements only.
func (s *MemorySurface) ComputedStyle(el any, pseudo string) styleguard.Declaration {
	e, ok := el.(*Element)
	if !ok || e == nil || pseudo != "" {
		return nil
	}
	s.mu.RLock()
	_, mounted := s.elements[e.ID]
	s.mu.RUnlock()
	if !mounted {
		return nil
	}
	opacity := "0"
	if e.Active() {
		opacity = "1"
	}
	return styleguard.NewMap(map[string]string{
		"display":             "flex",
		"opacity":             opacity,
		"transition-duration": s.transition.String(),
	})
}
