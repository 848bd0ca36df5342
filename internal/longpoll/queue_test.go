package longpoll

import (
	"context"
	"sync"
	"testing"
	"time"

	"admin_console/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForWaiters(t *testing.T, q *Queue, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return q.Len() == n }, time.Second, 5*time.Millisecond,
		"в очереди должно быть %d ожидающих", n)
}

func TestQueue_TimeoutResolvesWithNoEvent(t *testing.T) {
	q := NewQueue(50 * time.Millisecond)

	start := time.Now()
	r := q.Poll(context.Background())

	assert.True(t, r.IsEmpty())
	assert.Equal(t, NoEventMessage, r.Message)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 0, q.Len(), "ожидающий должен быть удален после таймаута")
}

func TestQueue_PublishAfterTimeoutDoesNotReachExpiredWaiter(t *testing.T) {
	q := NewQueue(20 * time.Millisecond)

	r := q.Poll(context.Background())
	require.True(t, r.IsEmpty())

	n := q.Publish(NewUserResult(events.NewUser{ID: 1}))
	assert.Equal(t, 0, n, "истекший ожидающий не должен получать событие")
}

func TestQueue_PublishResolvesAllCurrentWaiters(t *testing.T) {
	q := NewQueue(5 * time.Second)

	const pollers = 3
	results := make([]Result, pollers)
	var wg sync.WaitGroup
	for i := 0; i < pollers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = q.Poll(context.Background())
		}(i)
	}
	waitForWaiters(t, q, pollers)

	ev := events.NewUser{ID: 9, Name: "Bob", Email: "bob@corp.io", Department: "Sales"}
	n := q.Publish(NewUserResult(ev))
	wg.Wait()

	assert.Equal(t, pollers, n)
	assert.Equal(t, 0, q.Len(), "очередь должна быть пуста после публикации")
	for _, r := range results {
		require.NotNil(t, r.User)
		assert.Equal(t, events.NameNewUser, r.Event)
		assert.Equal(t, ev, *r.User)
	}
}

func TestQueue_LatePollerIsNotRetroactivelyNotified(t *testing.T) {
	q := NewQueue(30 * time.Millisecond)

	q.Publish(NewUserResult(events.NewUser{ID: 1}))
	r := q.Poll(context.Background())

	assert.True(t, r.IsEmpty())
}

func TestQueue_CancelledPollIsRemoved(t *testing.T) {
	q := NewQueue(5 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan Result, 1)
	go func() { done <- q.Poll(ctx) }()
	waitForWaiters(t, q, 1)

	cancel()
	select {
	case r := <-done:
		assert.True(t, r.IsEmpty())
	case <-time.After(time.Second):
		t.Fatal("Poll не вернулся после отмены контекста")
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_RaceBetweenTimeoutAndPublishResolvesOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		q := NewQueue(time.Millisecond)
		done := make(chan Result, 2)
		go func() { done <- q.Poll(context.Background()) }()
		time.Sleep(time.Millisecond)
		q.Publish(NewUserResult(events.NewUser{ID: uint(i)}))

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Poll завис")
		}
		select {
		case <-done:
			t.Fatal("ожидающий разрешен дважды")
		default:
		}
		assert.Equal(t, 0, q.Len())
	}
}

func TestNewQueue_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewQueue(0).Timeout())
}

func TestQueue_CloseReleasesWaitersAndRejectsNewPolls(t *testing.T) {
	q := NewQueue(time.Minute)

	results := make(chan Result, 2)
	for i := 0; i < 2; i++ {
		go func() { results <- q.Poll(context.Background()) }()
	}
	waitForWaiters(t, q, 2)

	assert.Equal(t, 2, q.Close())
	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			assert.True(t, r.IsEmpty())
			assert.Equal(t, NoEventMessage, r.Message)
		case <-time.After(time.Second):
			t.Fatal("ожидающий не отпущен после Close")
		}
	}

	start := time.Now()
	assert.True(t, q.Poll(context.Background()).IsEmpty())
	assert.Less(t, time.Since(start), time.Second, "после Close опрос не ждет")
	assert.Zero(t, q.Len())
}
