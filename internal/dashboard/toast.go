package dashboard

import "time"

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

const DefaultToastDuration = 3 * time.Second

type Toast struct {
	Kind    ToastKind
	Message string
	Seq     uint64
}

// Toaster holds at most one toast. A newer toast replaces the current one
// and an expiry only clears the toast it was scheduled for.
type Toaster struct {
	Duration time.Duration
	current  *Toast
	seq      uint64
}

func NewToaster(d time.Duration) *Toaster {
	if d <= 0 {
		d = DefaultToastDuration
	}
	return &Toaster{Duration: d}
}

func (t *Toaster) Show(kind ToastKind, msg string) uint64 {
	t.seq++
	t.current = &Toast{Kind: kind, Message: msg, Seq: t.seq}
	return t.seq
}

// Expire clears the toast if seq is still current.
func (t *Toaster) Expire(seq uint64) bool {
	if t.current == nil || t.current.Seq != seq {
		return false
	}
	t.current = nil
	return true
}

func (t *Toaster) Current() (Toast, bool) {
	if t.current == nil {
		return Toast{}, false
	}
	return *t.current, true
}
