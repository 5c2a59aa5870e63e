package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"anoa.com/kopilka/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func recvMessage(t *testing.T, ch <-chan Message, timeout time.Duration) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for realtime message")
	}
	return Message{}
}

func TestBrokerDeliversOnlyToTargetUser(t *testing.T) {
	b := NewBroker(logger.Nop(), 4)
	alice, bob := uuid.New(), uuid.New()

	subA := b.Subscribe(alice)
	subB := b.Subscribe(bob)
	defer subA.Close()
	defer subB.Close()

	require.NoError(t, b.Publish(context.Background(), Message{UserID: alice, Event: EventNotification, Data: "hi"}))

	got := recvMessage(t, subA.Messages(), time.Second)
	require.Equal(t, EventNotification, got.Event)

	select {
	case msg := <-subB.Messages():
		t.Fatalf("bob received %v", msg)
	default:
	}
}

func TestSubscriptionCloseUnsubscribes(t *testing.T) {
	b := NewBroker(logger.Nop(), 4)
	user := uuid.New()

	sub := b.Subscribe(user)
	require.Equal(t, 1, b.SubscriberCount(user))

	sub.Close()
	sub.Close()
	require.Equal(t, 0, b.SubscriberCount(user))

	_, ok := <-sub.Messages()
	require.False(t, ok, "outbound should be closed after Close")

	b.Deliver(Message{UserID: user, Event: EventNotification})

	again := b.Subscribe(user)
	defer again.Close()
	b.Deliver(Message{UserID: user, Event: EventAchievementUnlocked})
	require.Equal(t, EventAchievementUnlocked, recvMessage(t, again.Messages(), time.Second).Event)
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroker(logger.Nop(), 1)
	user := uuid.New()
	sub := b.Subscribe(user)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Deliver(Message{UserID: user, Event: EventNotification, Data: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Deliver blocked on a full buffer")
	}
	require.Equal(t, 0, recvMessage(t, sub.Messages(), time.Second).Data)
}

func TestBrokerCloseEndsSubscriptions(t *testing.T) {
	b := NewBroker(logger.Nop(), 2)
	user := uuid.New()
	sub := b.Subscribe(user)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); b.Close() }()
	go func() { defer wg.Done(); sub.Close() }()
	wg.Wait()

	_, ok := <-sub.Messages()
	require.False(t, ok)

	late := b.Subscribe(user)
	_, ok = <-late.Messages()
	require.False(t, ok)
	late.Close()
}

func TestServeSSEWritesEvents(t *testing.T) {
	b := NewBroker(logger.Nop(), 4)
	user := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub := b.Subscribe(user)
		defer sub.Close()
		b.ServeSSE(w, r, sub)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return b.SubscriberCount(user) == 1 }, time.Second, 10*time.Millisecond)
	b.Deliver(Message{UserID: user, Event: EventAchievementUnlocked, Data: "first_friend"})

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: achievement_unlocked", strings.TrimSpace(line))
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, `"first_friend"`)
}
