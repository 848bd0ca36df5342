package ws

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	full   bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(frame []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.frames = append(f.frames, frame)
	return true
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func visitedIDs(m *WebSocketManager) []string {
	var ids []string
	m.ForEach(func(conn Conn, _ RoutingKey) {
		ids = append(ids, conn.ID())
	})
	sort.Strings(ids)
	return ids
}

func TestManager_ForEachVisitsOnlyOpenRegisteredConnections(t *testing.T) {
	m := NewWebSocketManager()
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")

	m.Add(a)
	m.Add(b)
	m.Add(c)
	assert.Empty(t, visitedIDs(m), "до регистрации соединения не видны")
	assert.Equal(t, 3, m.GetClientCount())

	m.SetKey(a, Department("Sales"))
	m.SetKey(b, UserID(42))
	assert.Equal(t, []string{"a", "b"}, visitedIDs(m))

	m.Remove(a)
	m.Remove(a)
	assert.Equal(t, []string{"b"}, visitedIDs(m))
	assert.False(t, m.IsClientConnected("a"))

	assert.False(t, m.SetKey(a, Department("Sales")), "удаленное соединение нельзя зарегистрировать")
	assert.Equal(t, []string{"b"}, visitedIDs(m))

	m.SetKey(c, Department("All"))
	assert.Equal(t, []string{"b", "c"}, visitedIDs(m))
	assert.Equal(t, 2, m.RegisteredCount())
	assert.Equal(t, 2, m.GetClientCount())
}

func TestManager_BroadcastToDepartment(t *testing.T) {
	m := NewWebSocketManager()
	sales, all, eng, user, unregistered :=
		newFakeConn("sales"), newFakeConn("all"), newFakeConn("eng"), newFakeConn("user"), newFakeConn("none")
	for _, c := range []*fakeConn{sales, all, eng, user, unregistered} {
		m.Add(c)
	}
	m.SetKey(sales, Department("Sales"))
	m.SetKey(all, Department("All"))
	m.SetKey(eng, Department("Engineering"))
	m.SetKey(user, UserID(7))

	n := m.BroadcastToDepartment("Sales", []byte(`{"event":"new_user"}`))

	assert.Equal(t, 2, n)
	assert.Equal(t, 1, sales.received())
	assert.Equal(t, 1, all.received())
	assert.Zero(t, eng.received())
	assert.Zero(t, user.received())
	assert.Zero(t, unregistered.received())
}

func TestManager_BroadcastToAllReachesEveryAdmin(t *testing.T) {
	m := NewWebSocketManager()
	sales, eng, user := newFakeConn("sales"), newFakeConn("eng"), newFakeConn("user")
	for _, c := range []*fakeConn{sales, eng, user} {
		m.Add(c)
	}
	m.SetKey(sales, Department("Sales"))
	m.SetKey(eng, Department("Engineering"))
	m.SetKey(user, UserID(1))

	assert.Equal(t, 2, m.BroadcastToDepartment("All", []byte("x")))
	assert.Zero(t, user.received())
}

func TestManager_BroadcastToUser(t *testing.T) {
	m := NewWebSocketManager()
	target, other, admin, unregistered :=
		newFakeConn("target"), newFakeConn("other"), newFakeConn("admin"), newFakeConn("none")
	for _, c := range []*fakeConn{target, other, admin, unregistered} {
		m.Add(c)
	}
	m.SetKey(target, UserID(42))
	m.SetKey(other, UserID(43))
	m.SetKey(admin, Department("42"))

	n := m.BroadcastToUser(42, []byte(`{"event":"user_updated"}`))

	assert.Equal(t, 1, n)
	assert.Equal(t, 1, target.received())
	assert.Zero(t, other.received())
	assert.Zero(t, admin.received())
	assert.Zero(t, unregistered.received())
}

func TestManager_ReRegistrationReplacesKey(t *testing.T) {
	m := NewWebSocketManager()
	c := newFakeConn("c")
	m.Add(c)
	m.SetKey(c, Department("Sales"))
	m.SetKey(c, Department("Engineering"))

	assert.Zero(t, m.BroadcastToDepartment("Sales", []byte("x")))
	assert.Equal(t, 1, m.BroadcastToDepartment("Engineering", []byte("x")))
}

func TestManager_FullConnectionIsSkipped(t *testing.T) {
	m := NewWebSocketManager()
	full, ok := newFakeConn("full"), newFakeConn("ok")
	full.full = true
	m.Add(full)
	m.Add(ok)
	m.SetKey(full, Department("Sales"))
	m.SetKey(ok, Department("Sales"))

	assert.Equal(t, 1, m.BroadcastToDepartment("Sales", []byte("x")))
	assert.True(t, m.IsClientConnected("full"), "недоставка не удаляет соединение")
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewWebSocketManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := newFakeConn(fmt.Sprintf("c%d", i))
			m.Add(c)
			m.SetKey(c, Department("Sales"))
			m.BroadcastToDepartment("Sales", []byte("x"))
			if i%2 == 0 {
				m.Remove(c)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 25, m.GetClientCount())
	assert.Len(t, visitedIDs(m), 25)
}
