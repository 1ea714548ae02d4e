package measurement

import "sync"

// EventEmitter fans measurements out to subscribers. Delivery never blocks:
// a subscriber that is not ready misses the reading.
type EventEmitter struct {
	subscribers map[chan Measurement]struct{}
	mu          sync.Mutex
}

func NewEventEmitter() *EventEmitter {
	return &EventEmitter{
		subscribers: make(map[chan Measurement]struct{}),
	}
}

func (e *EventEmitter) Subscribe() chan Measurement {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan Measurement, 1)

	if e.subscribers == nil {
		close(ch)

		return ch
	}

	e.subscribers[ch] = struct{}{}

	return ch
}

func (e *EventEmitter) Unsubscribe(ch chan Measurement) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.subscribers[ch]; !ok {
		return
	}

	delete(e.subscribers, ch)
	close(ch)
}

func (e *EventEmitter) Emit(data Measurement) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for ch := range e.subscribers {
		select {
		case ch <- data:
		default:
		}
	}
}

func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for ch := range e.subscribers {
		close(ch)
	}

	e.subscribers = nil
}

func (e *EventEmitter) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.subscribers)
}
