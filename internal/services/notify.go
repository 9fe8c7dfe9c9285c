package services

import (
	"sync"

	"github.com/google/uuid"
)

// ToastKind is the visual state of a notification.
type ToastKind string

const (
	ToastLoading ToastKind = "loading"
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a transient user-facing notification.
type Toast struct {
	ID      string    `json:"id"`
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// Notifier is the sink for user-facing notifications. Success and Error
// resolve the toast with the given id in place, or open a new one when id
// is empty. Every method returns the id of the toast it touched.
type Notifier interface {
	Loading(msg string) string
	Success(id, msg string) string
	Error(id, msg string) string
}

// Toasts collects the notifications raised while serving one request, in
// the order they were opened.
type Toasts struct {
	mu    sync.Mutex
	order []string
	byID  map[string]Toast
}

func NewToasts() *Toasts {
	return &Toasts{byID: make(map[string]Toast)}
}

func (t *Toasts) Loading(msg string) string {
	return t.set("", ToastLoading, msg)
}

func (t *Toasts) Success(id, msg string) string {
	return t.set(id, ToastSuccess, msg)
}

func (t *Toasts) Error(id, msg string) string {
	return t.set(id, ToastError, msg)
}

// List returns a snapshot of the current toasts.
func (t *Toasts) List() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Toast, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

func (t *Toasts) set(id string, kind ToastKind, msg string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := t.byID[id]; !exists {
		t.order = append(t.order, id)
	}
	t.byID[id] = Toast{ID: id, Kind: kind, Message: msg}
	return id
}
