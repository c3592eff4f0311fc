package health

import "sync"

// window is a fixed-size ring of the most recent pull arm IDs.
type window struct {
	mu   sync.Mutex
	buf  []string
	next int
	size int
}

func newWindow(capacity int) *window {
	return &window{buf: make([]string, capacity)}
}

func (w *window) record(armID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf[w.next] = armID
	w.next = (w.next + 1) % len(w.buf)
	if w.size < len(w.buf) {
		w.size++
	}
}

// entries returns a copy of the window contents in no particular order.
func (w *window) entries() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, w.size)
	copy(out, w.buf[:w.size])
	return out
}
