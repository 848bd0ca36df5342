package ws

import (
	"sync"

	"admin_console/internal/logger"
)

// Conn - живое соединение, которое отслеживает менеджер.
// Send не блокирует и возвращает false, если кадр не поставлен в очередь.
type Conn interface {
	ID() string
	Send(frame []byte) bool
}

type entry struct {
	conn Conn
	key  RoutingKey
}

// WebSocketManager - реестр живых соединений и их ключей маршрутизации.
// Создается один раз в app.Run и передается в обработчики и диспетчер.
type WebSocketManager struct {
	mu      sync.RWMutex
	clients map[string]*entry
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients: make(map[string]*entry),
	}
}

// Add регистрирует соединение без ключа: до сообщения register оно ничего не получает
func (m *WebSocketManager) Add(conn Conn) {
	m.mu.Lock()
	m.clients[conn.ID()] = &entry{conn: conn}
	total := len(m.clients)
	m.mu.Unlock()

	logger.Debug("Client connected", "conn_id", conn.ID(), "total", total)
}

// SetKey устанавливает или заменяет ключ. Для неизвестного соединения возвращает false.
func (m *WebSocketManager) SetKey(conn Conn, key RoutingKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.clients[conn.ID()]
	if !ok {
		return false
	}
	e.key = key
	logger.Info("Client registered", "conn_id", conn.ID(), "key", key.String())
	return true
}

// Remove убирает соединение. Повторный вызов ничего не делает.
func (m *WebSocketManager) Remove(conn Conn) {
	m.mu.Lock()
	_, ok := m.clients[conn.ID()]
	if ok {
		delete(m.clients, conn.ID())
	}
	total := len(m.clients)
	m.mu.Unlock()

	if ok {
		logger.Debug("Client disconnected", "conn_id", conn.ID(), "total", total)
	}
}

// ForEach обходит только зарегистрированные соединения.
// Обход идет по снимку, поэтому visit может вызывать методы менеджера.
func (m *WebSocketManager) ForEach(visit func(conn Conn, key RoutingKey)) {
	m.mu.RLock()
	snapshot := make([]entry, 0, len(m.clients))
	for _, e := range m.clients {
		if !e.key.IsZero() {
			snapshot = append(snapshot, *e)
		}
	}
	m.mu.RUnlock()

	for _, e := range snapshot {
		visit(e.conn, e.key)
	}
}

// BroadcastToDepartment отправляет кадр всем админам отдела и подписанным на "All".
// Возвращает число соединений, принявших кадр.
func (m *WebSocketManager) BroadcastToDepartment(department string, frame []byte) int {
	return m.broadcast(frame, func(key RoutingKey) bool {
		return key.MatchesDepartment(department)
	})
}

// BroadcastToUser отправляет кадр соединениям пользователя
func (m *WebSocketManager) BroadcastToUser(userID uint, frame []byte) int {
	return m.broadcast(frame, func(key RoutingKey) bool {
		return key.MatchesUser(userID)
	})
}

func (m *WebSocketManager) broadcast(frame []byte, match func(RoutingKey) bool) int {
	delivered := 0
	m.ForEach(func(conn Conn, key RoutingKey) {
		if !match(key) {
			return
		}
		if conn.Send(frame) {
			delivered++
			return
		}
		logger.Warn("Frame dropped", "conn_id", conn.ID(), "key", key.String())
	})
	return delivered
}

// GetClientCount возвращает количество подключенных клиентов
func (m *WebSocketManager) GetClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// RegisteredCount - число соединений с ключом
func (m *WebSocketManager) RegisteredCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.clients {
		if !e.key.IsZero() {
			n++
		}
	}
	return n
}

// IsClientConnected проверяет, подключен ли клиент
func (m *WebSocketManager) IsClientConnected(connID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.clients[connID]
	return exists
}

// CloseAll закрывает все соединения, которые это умеют. Используется при остановке сервера.
func (m *WebSocketManager) CloseAll() {
	m.mu.RLock()
	conns := make([]Conn, 0, len(m.clients))
	for _, e := range m.clients {
		conns = append(conns, e.conn)
	}
	m.mu.RUnlock()

	for _, c := range conns {
		if closer, ok := c.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
