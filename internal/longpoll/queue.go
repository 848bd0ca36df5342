// Package longpoll - резервный канал доставки для клиентов без постоянного соединения.
// Каждый опрос регистрирует ожидающего, который разрешается ровно один раз:
// либо публикацией события, либо по таймауту.
package longpoll

import (
	"context"
	"sync"
	"time"

	"admin_console/internal/events"
)

// DefaultTimeout - сколько держим запрос без событий
const DefaultTimeout = 30 * time.Second

// NoEventMessage - текст ответа по таймауту
const NoEventMessage = "No new users"

// Result - ответ опроса. Event пуст у NoEvent.
type Result struct {
	Event   string          `json:"event"`
	User    *events.NewUser `json:"user,omitempty"`
	Message string          `json:"message,omitempty"`
}

// NoEvent - результат "событий не было"
func NoEvent() Result {
	return Result{Message: NoEventMessage}
}

// NewUserResult оборачивает событие о новом пользователе
func NewUserResult(ev events.NewUser) Result {
	return Result{Event: events.NameNewUser, User: &ev}
}

// IsEmpty сообщает, что это результат без события
func (r Result) IsEmpty() bool {
	return r.Event == ""
}

type waiter struct {
	ch    chan Result
	timer *time.Timer
}

// Queue - очередь ожидающих опросов
type Queue struct {
	mu      sync.Mutex
	waiters []*waiter
	timeout time.Duration
	closed  bool
}

// NewQueue создает очередь. timeout <= 0 означает DefaultTimeout.
func NewQueue(timeout time.Duration) *Queue {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Queue{timeout: timeout}
}

// Timeout возвращает настроенный таймаут ожидания
func (q *Queue) Timeout() time.Duration {
	return q.timeout
}

// Poll блокируется до публикации, таймаута или отмены ctx.
// При отмене ctx ожидающий удаляется и возвращается NoEvent.
func (q *Queue) Poll(ctx context.Context) Result {
	w := &waiter{ch: make(chan Result, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return NoEvent()
	}
	q.waiters = append(q.waiters, w)
	w.timer = time.AfterFunc(q.timeout, func() {
		q.resolve(w, NoEvent())
	})
	q.mu.Unlock()

	select {
	case r := <-w.ch:
		return r
	case <-ctx.Done():
		if q.remove(w) {
			w.timer.Stop()
			return NoEvent()
		}
		// Уже разрешен публикацией или таймаутом: результат лежит в буфере
		return <-w.ch
	}
}

// Publish разрешает всех текущих ожидающих одним и тем же результатом.
// Пришедшие после вызова опросы его не получают. Возвращает число разрешенных.
func (q *Queue) Publish(r Result) int {
	q.mu.Lock()
	pending := q.waiters
	q.waiters = nil
	q.mu.Unlock()

	for _, w := range pending {
		w.timer.Stop()
		w.ch <- r
	}
	return len(pending)
}

// Close разрешает всех ожидающих через NoEvent; новые опросы после него сразу
// получают NoEvent. Возвращает число отпущенных.
func (q *Queue) Close() int {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return q.Publish(NoEvent())
}

// Len - число ожидающих
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters)
}

// resolve разрешает ожидающего, только если он еще в очереди
func (q *Queue) resolve(w *waiter, r Result) {
	if q.remove(w) {
		w.ch <- r
	}
}

func (q *Queue) remove(w *waiter) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, candidate := range q.waiters {
		if candidate == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return true
		}
	}
	return false
}
