// Package notify keeps the single outcome notification shown to the operator.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
)

type Notification struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Board holds at most one visible notification; posting replaces it.
type Board struct {
	mu      sync.Mutex
	current *Notification
	now     func() time.Time
}

func NewBoard() *Board {
	return &Board{now: func() time.Time { return time.Now().UTC() }}
}

func (b *Board) Success(message string) {
	b.post(Notification{Kind: KindSuccess, Message: message})
}

func (b *Board) Warning(title, message string) {
	b.post(Notification{Kind: KindWarning, Title: title, Message: message})
}

func (b *Board) post(n Notification) {
	n.ID = uuid.NewString()
	n.At = b.now()
	b.mu.Lock()
	b.current = &n
	b.mu.Unlock()
}

func (b *Board) Current() (Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notification{}, false
	}
	return *b.current, true
}

// Dismiss clears the notification with the given id. A stale id (already
// replaced) is ignored so it cannot hide a newer notification.
func (b *Board) Dismiss(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || b.current.ID != id {
		return false
	}
	b.current = nil
	return true
}
