package broadcast

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mr1hm/go-flood-watch/internal/models"
)

type EventType string

const (
	// EventObservation carries one record change.
	EventObservation EventType = "observation"
	// EventSnapshot carries the full list after the store changed underneath us.
	EventSnapshot EventType = "snapshot"
)

type Event struct {
	Type     EventType            `json:"type"`
	Change   *models.Change       `json:"change,omitempty"`
	Snapshot []models.Observation `json:"snapshot,omitempty"`
	At       time.Time            `json:"at"`
}

func ChangeEvent(c models.Change, at time.Time) Event {
	return Event{Type: EventObservation, Change: &c, At: at}
}

func SnapshotEvent(list []models.Observation, at time.Time) Event {
	return Event{Type: EventSnapshot, Snapshot: list, At: at}
}

// DefaultBuffer holds a burst of updates plus a snapshot for each subscriber.
const DefaultBuffer = 64

type Broadcaster struct {
	subscribers map[uint64]chan Event
	nextID      atomic.Uint64
	buffer      int
	closed      bool
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return NewBroadcasterWithBuffer(DefaultBuffer)
}

func NewBroadcasterWithBuffer(buffer int) *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan Event),
		buffer:      buffer,
	}
}

// Subscribe registers a new subscriber. After Close the returned channel is
// already closed.
func (b *Broadcaster) Subscribe() (uint64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subscribers[id] = ch
	}
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Broadcast delivers e to every subscriber with room in its buffer and
// returns how many subscribers dropped it.
func (b *Broadcaster) Broadcast(e Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			// Skip slow subscribers
			dropped++
		}
	}
	return dropped
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
