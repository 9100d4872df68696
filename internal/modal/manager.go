// Package modal manages stacked dialog overlays.
//
// A Manager owns every open modal, the z-order stack and the shared backdrop.
// Each modal moves through created, visible, closing and removed. Closing is
// logical and immediate; removal from the surface follows after the exit
// transition and happens exactly once.
package modal

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"dtt/internal/styleguard"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotOpen      = errors.New("modal is not open")
	ErrNoSuchButton = errors.New("modal has no such button")
)

const DefaultExitDelay = 300 * time.Millisecond

type record struct {
	el      *Element
	cfg     Config
	state   State
	removal Timer
}

type Manager struct {
	mu      sync.Mutex
	surface Surface
	styles  *styleguard.Guard
	clock   Clock
	log     *zap.Logger

	exitDelay time.Duration
	modals    map[string]*record
	stack     []string
	active    string
	disposed  bool
}

type Option func(*Manager)

func WithClock(c Clock) Option { return func(m *Manager) { m.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.log = l } }

// WithExitDelay sets the removal delay used when the surface reports no transition.
func WithExitDelay(d time.Duration) Option { return func(m *Manager) { m.exitDelay = d } }

func New(surface Surface, opts ...Option) *Manager {
	m := &Manager{
		surface:   surface,
		clock:     realClock{},
		log:       zap.NewNop(),
		exitDelay: DefaultExitDelay,
		modals:    map[string]*record{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.surface == nil {
		m.surface = NewMemorySurface(m.exitDelay)
	}
	m.styles = styleguard.New(m.surface, m.log)
	return m
}

// Show creates a modal on top of the stack and shows the backdrop. After
// Dispose it returns an element that is never mounted.
func (m *Manager) Show(cfg Config) *Element {
	el, _ := m.show(cfg)
	return el
}

func (m *Manager) show(cfg Config) (*Element, bool) {
	cfg = cfg.withDefaults()
	id := "modal_" + uuid.NewString()

	el := &Element{
		ID:          id,
		Size:        cfg.Size,
		Classes:     classList(cfg),
		HTML:        renderModal(id, cfg),
		Title:       cfg.Title,
		Dismissible: !cfg.NonDismissible,
	}
	for i, b := range cfg.Buttons {
		el.Buttons = append(el.Buttons, ButtonView{Index: i, Label: b.Label, Style: b.Style})
	}

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		m.log.Warn("modal refused after dispose", zap.String("title", cfg.Title))
		return el, false
	}
	rec := &record{el: el, cfg: cfg, state: StateCreated}
	m.modals[id] = rec
	m.surface.Mount(el)

	rec.state = StateVisible
	el.active.Store(true)
	m.stack = append(m.stack, id)
	m.active = id
	m.surface.SetBackdrop(true)
	m.mu.Unlock()

	m.log.Debug("modal shown", zap.String("id", id), zap.String("title", cfg.Title))
	return el, true
}

// Confirm shows a cancel/confirm dialog and blocks until one is chosen. It
// reports true only for the confirm button; dismissal or ctx cancellation
// yields false, as does a manager that has been disposed.
func (m *Manager) Confirm(ctx context.Context, cfg ConfirmConfig) bool {
	cfg = cfg.withDefaults()
	result := make(chan bool, 1)
	answer := func(v bool) {
		select {
		case result <- v:
		default:
		}
	}

	el, ok := m.show(Config{
		Title:   cfg.Title,
		Content: messageContent(cfg.Message),
		Size:    SizeSmall,
		Buttons: []Button{
			{
				Label: cfg.CancelText,
				Style: StyleSecondary,
				Action: func(context.Context, *Element) error {
					if cfg.OnCancel != nil {
						cfg.OnCancel()
					}
					answer(false)
					return nil
				},
			},
			{
				Label: cfg.ConfirmText,
				Style: cfg.ConfirmStyle,
				Action: func(context.Context, *Element) error {
					if cfg.OnConfirm != nil {
						cfg.OnConfirm()
					}
					answer(true)
					return nil
				},
			},
		},
		OnClose: func() { answer(false) },
	})
	if !ok {
		return false
	}

	select {
	case v := <-result:
		return v
	case <-ctx.Done():
		m.Close(el.ID)
		return false
	}
}

// Alert shows a single-button dialog and blocks until it is acknowledged or
// dismissed. It reports true when the button was used.
func (m *Manager) Alert(ctx context.Context, cfg AlertConfig) bool {
	result := make(chan bool, 1)
	answer := func(v bool) {
		select {
		case result <- v:
		default:
		}
	}
	id, ok := m.showAlert(cfg, answer)
	if !ok {
		return false
	}

	select {
	case v := <-result:
		return v
	case <-ctx.Done():
		m.Close(id)
		return false
	}
}

// Notify shows an alert without waiting for it.
func (m *Manager) Notify(cfg AlertConfig) string {
	id, _ := m.showAlert(cfg, func(bool) {})
	return id
}

func (m *Manager) showAlert(cfg AlertConfig, answer func(bool)) (string, bool) {
	cfg = cfg.withDefaults()
	el, ok := m.show(Config{
		Title:   cfg.Title,
		Content: alertContent(cfg),
		Size:    SizeSmall,
		Buttons: []Button{{
			Label: cfg.ButtonText,
			Style: StylePrimary,
			Action: func(context.Context, *Element) error {
				answer(true)
				return nil
			},
		}},
		OnClose: func() { answer(false) },
	})
	return el.ID, ok
}

// Loading shows a non-dismissible busy indicator. The caller closes it by id.
func (m *Manager) Loading(cfg LoadingConfig) string {
	cfg = cfg.withDefaults()
	el := m.Show(Config{
		Title:          cfg.Title,
		Content:        loadingContent(cfg),
		Size:           SizeSmall,
		NonDismissible: true,
	})
	return el.ID
}

// Activate runs the button's action and then closes the modal unless the
// button keeps it open. An action error leaves the modal open.
func (m *Manager) Activate(ctx context.Context, id string, index int) error {
	m.mu.Lock()
	rec, ok := m.modals[id]
	if !ok || rec.state != StateVisible {
		m.mu.Unlock()
		return ErrNotOpen
	}
	if index < 0 || index >= len(rec.cfg.Buttons) {
		m.mu.Unlock()
		return ErrNoSuchButton
	}
	btn := rec.cfg.Buttons[index]
	el := rec.el
	m.mu.Unlock()

	if btn.Action != nil {
		if err := btn.Action(ctx, el); err != nil {
			m.log.Warn("modal action failed", zap.String("id", id), zap.Int("button", index), zap.Error(err))
			return err
		}
	}
	if !btn.KeepOpen {
		m.Close(id)
	}
	return nil
}

// Close closes one modal. Unknown ids and modals already closing are ignored.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	rec, ok := m.modals[id]
	if !ok || rec.state != StateVisible {
		m.mu.Unlock()
		return
	}
	rec.state = StateClosing
	delay := m.exitDelayFor(id)
	rec.el.active.Store(false)
	m.removeFromStack(id)
	rec.removal = m.clock.AfterFunc(delay, func() { m.finishRemoval(id) })
	onClose := rec.cfg.OnClose
	m.mu.Unlock()

	m.log.Debug("modal closed", zap.String("id", id))
	if onClose != nil {
		onClose()
	}
}

// Dismiss closes the modal only when it is user-dismissible.
func (m *Manager) Dismiss(id string) bool {
	m.mu.Lock()
	rec, ok := m.modals[id]
	allowed := ok && rec.state == StateVisible && !rec.cfg.NonDismissible
	m.mu.Unlock()
	if allowed {
		m.Close(id)
	}
	return allowed
}

// CloseTopModal closes the most recently shown modal that is still open.
func (m *Manager) CloseTopModal() {
	m.mu.Lock()
	id := m.active
	m.mu.Unlock()
	if id != "" {
		m.Close(id)
	}
}

// HandleKey dismisses the top modal on Escape.
func (m *Manager) HandleKey(key string) bool {
	if !strings.EqualFold(key, "Escape") {
		return false
	}
	return m.dismissTop()
}

// BackdropClick dismisses the top modal.
func (m *Manager) BackdropClick() bool {
	return m.dismissTop()
}

func (m *Manager) dismissTop() bool {
	m.mu.Lock()
	id := m.active
	m.mu.Unlock()
	if id == "" {
		return false
	}
	return m.Dismiss(id)
}

// CloseAll closes every open modal, topmost first.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := slices.Clone(m.stack)
	m.mu.Unlock()
	for i := len(ids) - 1; i >= 0; i-- {
		m.Close(ids[i])
	}
}

func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack) > 0
}

// ActiveModal returns the top element, or nil when nothing is open.
func (m *Manager) ActiveModal() *Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.modals[m.active]; ok {
		return rec.el
	}
	return nil
}

// Stack returns open modal ids, bottom first.
func (m *Manager) Stack() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.stack)
}

// Get returns the element of an open modal.
func (m *Manager) Get(id string) (*Element, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.modals[id]
	if !ok || rec.state != StateVisible {
		return nil, false
	}
	return rec.el, true
}

// State reports the lifecycle state of id. Forgotten ids report StateRemoved.
func (m *Manager) State(id string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.modals[id]; ok {
		return rec.state
	}
	return StateRemoved
}

// Dispose closes everything and removes pending elements right away. Later
// calls to Show mount nothing and the blocking dialogs return false.
func (m *Manager) Dispose() {
	m.mu.Lock()
	m.disposed = true
	m.mu.Unlock()
	m.CloseAll()

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.modals {
		if rec.removal != nil {
			rec.removal.Stop()
		}
		rec.state = StateRemoved
		delete(m.modals, id)
		m.surface.Unmount(id)
	}
	m.surface.SetBackdrop(false)
}

func (m *Manager) finishRemoval(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.modals[id]
	if !ok || rec.state != StateClosing {
		return
	}
	rec.state = StateRemoved
	delete(m.modals, id)
	m.surface.Unmount(id)
}

// removeFromStack must be called with mu held.
func (m *Manager) removeFromStack(id string) {
	if i := slices.Index(m.stack, id); i >= 0 {
		m.stack = slices.Delete(m.stack, i, i+1)
	}
	if n := len(m.stack); n > 0 {
		m.active = m.stack[n-1]
		return
	}
	m.active = ""
	m.surface.SetBackdrop(false)
}

// exitDelayFor reads the element's transition from the surface. The element
// may already be gone from the surface, in which case the guard answers blank.
func (m *Manager) exitDelayFor(id string) time.Duration {
	decl := m.styles.ComputedStyle(m.surface.Lookup(id), "")
	if d, err := time.ParseDuration(strings.TrimSpace(decl.PropertyValue("transition-duration"))); err == nil && d >= 0 {
		return d
	}
	return m.exitDelay
}
