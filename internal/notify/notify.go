// Package notify delivers user-facing notifications raised by the editor.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Notification is a single message shown to the user
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier is implemented by anything that can raise a notification.
type Notifier interface {
	Notify(kind Kind, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind Kind, message string)

func (f NotifierFunc) Notify(kind Kind, message string) {
	f(kind, message)
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(Kind, string) {})

// Handler receives published notifications
type Handler func(Notification)

// Options configures a Service
type Options struct {
	// Retention is how long notifications stay in History.
	Retention time.Duration
	// ToastTTL is how long a notification counts as an active toast.
	ToastTTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultOptions mirrors the editor's toast behaviour: toasts fade after two
// seconds and the history keeps five minutes of notifications.
func DefaultOptions() Options {
	return Options{
		Retention: 5 * time.Minute,
		ToastTTL:  2 * time.Second,
	}
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Service records notifications and fans them out to subscribers.
// Handlers run synchronously in the caller's goroutine.
type Service struct {
	mu      sync.RWMutex
	history []Notification // newest first
	subs    []subscriber
	nextID  uint64
	opts    Options
}

// NewService creates a notification service.
func NewService(opts Options) *Service {
	defaults := DefaultOptions()
	if opts.Retention <= 0 {
		opts.Retention = defaults.Retention
	}
	if opts.ToastTTL <= 0 {
		opts.ToastTTL = defaults.ToastTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{opts: opts}
}

// Notify records a notification and delivers it to every subscriber.
func (s *Service) Notify(kind Kind, message string) {
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		Timestamp: s.opts.Now(),
	}

	s.mu.Lock()
	s.prune(n.Timestamp)
	s.history = append([]Notification{n}, s.history...)
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.handler(n)
	}
}

// Subscribe registers a handler for future notifications. Returns an unsubscribe function.
func (s *Service) Subscribe(h Handler) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, handler: h})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// History returns notifications still within the retention window, newest first.
func (s *Service) History() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(s.opts.Now())
	out := make([]Notification, len(s.history))
	copy(out, s.history)
	return out
}

// Toasts returns notifications young enough to still be shown as toasts.
func (s *Service) Toasts() []Notification {
	now := s.opts.Now()
	var out []Notification
	for _, n := range s.History() {
		if now.Sub(n.Timestamp) < s.opts.ToastTTL {
			out = append(out, n)
		}
	}
	return out
}

// Grouped splits the history by kind.
func (s *Service) Grouped() map[Kind][]Notification {
	groups := make(map[Kind][]Notification)
	for _, n := range s.History() {
		groups[n.Kind] = append(groups[n.Kind], n)
	}
	return groups
}

// Clear drops the whole history.
func (s *Service) Clear() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}

// prune drops expired notifications. Callers must hold mu.
func (s *Service) prune(now time.Time) {
	cutoff := now.Add(-s.opts.Retention)
	keep := s.history[:0]
	for _, n := range s.history {
		if n.Timestamp.After(cutoff) {
			keep = append(keep, n)
		}
	}
	s.history = keep
}
