package modal

import (
	"context"
	"sync/atomic"
)

// Size is the width class of a modal.
type Size string

const (
	SizeSmall      Size = "small"
	SizeMedium     Size = "medium"
	SizeLarge      Size = "large"
	SizeFullscreen Size = "fullscreen"
)

func (s Size) valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge, SizeFullscreen:
		return true
	}
	return false
}

// ButtonStyle selects the visual style of a footer button.
type ButtonStyle string

const (
	StyleDefault   ButtonStyle = "default"
	StylePrimary   ButtonStyle = "primary"
	StyleSecondary ButtonStyle = "secondary"
	StyleDanger    ButtonStyle = "danger"
)

// State is the lifecycle position of a modal.
type State int

const (
	StateCreated State = iota
	StateVisible
	StateClosing
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateVisible:
		return "visible"
	case StateClosing:
		return "closing"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

// Action runs when a button is activated. The modal stays visible until it returns.
type Action func(ctx context.Context, el *Element) error

type Button struct {
	Label string
	Style ButtonStyle
	Icon  string
	// Action may be nil; the button then only closes the modal.
	Action Action
	// KeepOpen leaves the modal open after Action returns.
	KeepOpen bool
}

type Config struct {
	Title   string
	Content string // trusted markup
	Size    Size
	Buttons []Button
	// NonDismissible hides the close control and ignores Escape and backdrop clicks.
	NonDismissible bool
	OnClose        func()
	ClassName      string
}

func (c Config) withDefaults() Config {
	if c.Title == "" {
		c.Title = "Modal Title"
	}
	if !c.Size.valid() {
		c.Size = SizeMedium
	}
	for i := range c.Buttons {
		if c.Buttons[i].Style == "" {
			c.Buttons[i].Style = StyleDefault
		}
	}
	return c
}

type ConfirmConfig struct {
	Title        string
	Message      string
	ConfirmText  string
	CancelText   string
	ConfirmStyle ButtonStyle
	OnConfirm    func()
	OnCancel     func()
}

func (c ConfirmConfig) withDefaults() ConfirmConfig {
	if c.Title == "" {
		c.Title = "Confirm Action"
	}
	if c.Message == "" {
		c.Message = "Are you sure?"
	}
	if c.ConfirmText == "" {
		c.ConfirmText = "Confirm"
	}
	if c.CancelText == "" {
		c.CancelText = "Cancel"
	}
	if c.ConfirmStyle == "" {
		c.ConfirmStyle = StylePrimary
	}
	return c
}

// AlertType picks the icon of an alert.
type AlertType string

const (
	AlertInfo    AlertType = "info"
	AlertSuccess AlertType = "success"
	AlertWarning AlertType = "warning"
	AlertError   AlertType = "error"
)

var alertIcons = map[AlertType]string{
	AlertInfo:    "info-circle",
	AlertSuccess: "check-circle",
	AlertWarning: "exclamation-triangle",
	AlertError:   "x-circle",
}

type AlertConfig struct {
	Title      string
	Message    string
	Type       AlertType
	ButtonText string
}

func (c AlertConfig) withDefaults() AlertConfig {
	if c.Title == "" {
		c.Title = "Alert"
	}
	if _, ok := alertIcons[c.Type]; !ok {
		c.Type = AlertInfo
	}
	if c.ButtonText == "" {
		c.ButtonText = "OK"
	}
	return c
}

type LoadingConfig struct {
	Title   string
	Message string
}

func (c LoadingConfig) withDefaults() LoadingConfig {
	if c.Title == "" {
		c.Title = "Loading"
	}
	if c.Message == "" {
		c.Message = "Please wait..."
	}
	return c
}

// Element is the presentation element of one modal.
type Element struct {
	ID          string
	Size        Size
	Classes     []string
	HTML        string
	Title       string
	Dismissible bool
	Buttons     []ButtonView

	active atomic.Bool
}

// ButtonView is the client-facing description of a footer button.
type ButtonView struct {
	Index int         `json:"index"`
	Label string      `json:"label"`
	Style ButtonStyle `json:"style"`
}

func (e *Element) ElementID() string { return e.ID }

// Active reports whether the element carries the visible "active" class.
func (e *Element) Active() bool { return e.active.Load() }
