package state

import "sync"

const (
	TopicProjectDeleted = "project.deleted"
	TopicMemberRemoved  = "project.member_removed"
	TopicTasksRemoved   = "tasks.removed"
	TopicSessionEnded   = "session.ended"
)

// Event is a cross-slice notification published after a slice settles.
type Event interface {
	Topic() string
}

type ProjectDeleted struct{ ProjectID string }

type MemberRemoved struct{ ProjectID, UserID string }

type TasksRemoved struct{ TaskIDs []string }

type SessionEnded struct{}

func (ProjectDeleted) Topic() string { return TopicProjectDeleted }
func (MemberRemoved) Topic() string  { return TopicMemberRemoved }
func (TasksRemoved) Topic() string   { return TopicTasksRemoved }
func (SessionEnded) Topic() string   { return TopicSessionEnded }

// HandlerFunc receives events for the topic it was subscribed to.
type HandlerFunc func(Event)

// Bus is an in-process topic broker. Delivery is synchronous and follows
// subscription order, so a publisher sees every dependent slice updated
// once Publish returns.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]*subscription
}

type subscription struct {
	fn HandlerFunc
}

func NewBus() *Bus {
	return &Bus{topics: make(map[string][]*subscription)}
}

// Subscribe adds fn to topic and returns a func that removes it.
func (b *Bus) Subscribe(topic string, fn HandlerFunc) func() {
	sub := &subscription{fn: fn}
	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], sub)
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.topics[topic]
		for i, s := range subs {
			if s == sub {
				b.topics[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish must not be called while holding a slice lock.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	subs := append([]*subscription(nil), b.topics[ev.Topic()]...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(ev)
	}
}
