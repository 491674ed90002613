package store

import (
	"context"
	"sync"
)

// hub fans documents out to per-code subscribers. Each subscriber channel
// holds one document; a newer one replaces an unread older one.
type hub struct {
	mu     sync.Mutex
	seq    uint64
	subs   map[string]map[uint64]chan Document
	closed bool
}

func newHub() *hub {
	return &hub{subs: map[string]map[uint64]chan Document{}}
}

func (h *hub) subscribe(ctx context.Context, code string) (<-chan Document, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, ErrClosed
	}
	h.seq++
	id := h.seq
	ch := make(chan Document, 1)
	if h.subs[code] == nil {
		h.subs[code] = map[uint64]chan Document{}
	}
	h.subs[code][id] = ch

	var once sync.Once
	var stop func() bool
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if stop != nil {
				stop()
			}
			if c, ok := h.subs[code][id]; ok {
				delete(h.subs[code], id)
				if len(h.subs[code]) == 0 {
					delete(h.subs, code)
				}
				close(c)
			}
		})
	}
	stop = context.AfterFunc(ctx, cancel)
	return ch, cancel, nil
}

func (h *hub) publish(doc Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[doc.Code] {
		select {
		case <-ch:
		default:
		}
		ch <- doc
	}
}

func (h *hub) watching(code string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[code]) > 0
}

// drop closes every subscription for code.
func (h *hub) drop(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs[code] {
		delete(h.subs[code], id)
		close(ch)
	}
	delete(h.subs, code)
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for code, subs := range h.subs {
		for _, ch := range subs {
			close(ch)
		}
		delete(h.subs, code)
	}
}

func (h *hub) watched() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.subs))
	for code := range h.subs {
		out = append(out, code)
	}
	return out
}
