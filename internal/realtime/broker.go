package realtime

import (
	"context"
	"sync"

	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
)

const (
	EventNotification        = "notification"
	EventAchievementUnlocked = "achievement_unlocked"
)

const defaultBufferSize = 16

type Message struct {
	UserID uuid.UUID `json:"user_id"`
	Event  string    `json:"event"`
	Data   any       `json:"data,omitempty"`
}

// Subscription is one connection's view of a user's messages. Close must be called on
// connection teardown; it is safe to call more than once.
type Subscription struct {
	ID     uuid.UUID
	UserID uuid.UUID

	outbound chan Message
	broker   *Broker
	closed   bool // guarded by broker.mu
}

func (s *Subscription) Messages() <-chan Message {
	return s.outbound
}

func (s *Subscription) Close() {
	s.broker.remove(s)
}

func (s *Subscription) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.outbound)
	}
}

// Broker fans messages out to per-user subscriptions. Delivery is best effort: a subscriber
// whose buffer is full loses the message.
type Broker struct {
	mu         sync.RWMutex
	log        *logger.Logger
	bufferSize int
	subs       map[uuid.UUID]map[*Subscription]struct{}
	bus        Bus
	closed     bool
}

func NewBroker(log *logger.Logger, bufferSize int) *Broker {
	if log == nil {
		log = logger.Nop()
	}
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Broker{
		log:        log.With("component", "RealtimeBroker"),
		bufferSize: bufferSize,
		subs:       make(map[uuid.UUID]map[*Subscription]struct{}),
	}
}

// AttachBus routes Publish through bus so every instance sharing it delivers the message.
func (b *Broker) AttachBus(ctx context.Context, bus Bus) error {
	if err := bus.StartForwarder(ctx, b.Deliver); err != nil {
		return err
	}
	b.mu.Lock()
	b.bus = bus
	b.mu.Unlock()
	return nil
}

func (b *Broker) Subscribe(userID uuid.UUID) *Subscription {
	sub := &Subscription{
		ID:       uuid.New(),
		UserID:   userID,
		outbound: make(chan Message, b.bufferSize),
		broker:   b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.closeLocked()
		return sub
	}
	set, ok := b.subs[userID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[userID] = set
	}
	set[sub] = struct{}{}
	b.log.Debug("realtime subscriber added", "user_id", userID, "subscription_id", sub.ID)
	return sub
}

func (b *Broker) Publish(ctx context.Context, msg Message) error {
	b.mu.RLock()
	bus := b.bus
	b.mu.RUnlock()

	if bus != nil {
		return bus.Publish(ctx, msg)
	}
	b.Deliver(msg)
	return nil
}

// Deliver fans msg out to local subscribers of msg.UserID without blocking.
func (b *Broker) Deliver(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[msg.UserID] {
		select {
		case sub.outbound <- msg:
		default:
			b.log.Warn("dropping realtime message; outbound buffer full", "user_id", msg.UserID, "subscription_id", sub.ID)
		}
	}
}

func (b *Broker) SubscriberCount(userID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}

// Close ends every subscription and rejects new ones.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, set := range b.subs {
		for sub := range set {
			sub.closeLocked()
		}
	}
	b.subs = make(map[uuid.UUID]map[*Subscription]struct{})
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.subs[sub.UserID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.UserID)
		}
	}
	if sub.closed {
		return
	}
	sub.closeLocked()
	b.log.Debug("realtime subscriber removed", "user_id", sub.UserID, "subscription_id", sub.ID)
}
