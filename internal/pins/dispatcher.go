package pins

import (
	"context"
	"sync"
	"time"
)

// ChangeKind names the slice of store state a ChangeEvent refers to.
type ChangeKind string

const (
	// ChangeSelection covers year and person filter changes.
	ChangeSelection ChangeKind = "selection"
	// ChangeAnnotations covers pin record mutations.
	ChangeAnnotations ChangeKind = "annotations"
	// ChangeCustomContent covers custom person/event mutations, including
	// deletion, undo, and buffer dismissal.
	ChangeCustomContent ChangeKind = "custom-content"
)

// ChangeEvent is published after every successful store mutation.
type ChangeEvent struct {
	Kind ChangeKind
	At   time.Time
}

type dispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]chan ChangeEvent
	nextID      int64
	bufferSize  int
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		subscribers: make(map[int64]chan ChangeEvent),
		bufferSize:  16,
	}
}

func (d *dispatcher) subscribe(ctx context.Context) (<-chan ChangeEvent, func()) {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	stream := make(chan ChangeEvent, d.bufferSize)
	d.subscribers[id] = stream
	d.mu.Unlock()

	cleanup := func() {
		d.mu.Lock()
		delete(d.subscribers, id)
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return stream, cleanup
}

// publish fans out without blocking; a subscriber that has fallen behind
// misses the event.
func (d *dispatcher) publish(event ChangeEvent) {
	d.mu.RLock()
	streams := make([]chan ChangeEvent, 0, len(d.subscribers))
	for _, stream := range d.subscribers {
		streams = append(streams, stream)
	}
	d.mu.RUnlock()
	for _, stream := range streams {
		select {
		case stream <- event:
		default:
		}
	}
}
