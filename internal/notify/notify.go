// Package notify is the fire-and-forget channel user-facing messages go through.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

type Notifier interface {
	Notify(message string, kind Kind, title string)
}

type Func func(message string, kind Kind, title string)

func (f Func) Notify(message string, kind Kind, title string) {
	f(message, kind, title)
}

// Discard drops every notification.
var Discard Notifier = Func(func(string, Kind, string) {})

// Terminal prints each notification as a single styled line.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	badge  map[Kind]lipgloss.Style
	title  lipgloss.Style
	body   lipgloss.Style
	labels map[Kind]string
}

func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	badge := func(color string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
	}
	return &Terminal{
		w: w,
		badge: map[Kind]lipgloss.Style{
			Success: badge("42"),
			Error:   badge("196"),
			Info:    badge("63"),
			Warning: badge("214"),
		},
		labels: map[Kind]string{
			Success: "✓",
			Error:   "✗",
			Info:    "i",
			Warning: "!",
		},
		title: r.NewStyle().Bold(true),
		body:  r.NewStyle().Foreground(lipgloss.Color("252")),
	}
}

func (t *Terminal) Notify(message string, kind Kind, title string) {
	badge, ok := t.badge[kind]
	if !ok {
		kind = Info
		badge = t.badge[Info]
	}

	line := badge.Render(t.labels[kind])
	if title != "" {
		line += " " + t.title.Render(title)
	}
	line += " " + t.body.Render(message)

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, line)
}

type Notification struct {
	Message string
	Kind    Kind
	Title   string
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(message string, kind Kind, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Notification{Message: message, Kind: kind, Title: title})
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Notification{}, false
	}
	return r.sent[len(r.sent)-1], true
}
