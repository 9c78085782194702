package http

import "sync"

// StreamManager tracks active SSE subscriptions by category. Subscribers
// of the empty category receive every entry.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	count       int
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a client for the given category and returns its
// channel plus a cancel function that unregisters and closes it.
func (sm *StreamManager) Subscribe(category string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[category]; !ok {
		sm.subscribers[category] = make(map[chan<- string]struct{})
	}
	sm.subscribers[category][ch] = struct{}{}
	sm.count++

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[category]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
				sm.count--
				if len(subs) == 0 {
					delete(sm.subscribers, category)
				}
			}
		}
	}
}

// Active returns the number of connected subscribers.
func (sm *StreamManager) Active() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.count
}

// Broadcast delivers msg to the category's subscribers and to the
// firehose subscribers. A full client buffer drops the message rather
// than stall the emitter.
func (sm *StreamManager) Broadcast(category, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	deliver(sm.subscribers[category], msg)
	if category != "" {
		deliver(sm.subscribers[""], msg)
	}
}

func deliver(subs map[chan<- string]struct{}, msg string) {
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			// Slow client, drop.
		}
	}
}
