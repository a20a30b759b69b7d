package relay

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"videosdk/internal/pkg/auth/jwt"
	"videosdk/internal/pkg/logx"
)

var (
	ErrManagerClosed = errors.New("relay manager is shut down")
	ErrRoomClosed    = errors.New("relay room closed before the client registered")
)

// Option customizes a Manager.
type Option func(*Manager)

// WithMaxParticipants caps the distinct participants per room. 0 means unlimited.
func WithMaxParticipants(n int) Option {
	return func(m *Manager) { m.maxParticipants = n }
}

// WithIdleTimeout overrides RoomInactivityTimeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idleTimeout = d }
}

// Manager owns one Room per session name.
type Manager struct {
	rooms map[string]*Room

	// mu protects rooms and closed.
	mu     sync.RWMutex
	closed bool

	// rooms report here when their Run loop ends.
	cleanup chan RoomCleanupMsg
	stop    chan struct{}

	// wg waits for runCleanupLoop during shutdown.
	wg sync.WaitGroup

	reissuer        TokenReissuer
	maxParticipants int
	idleTimeout     time.Duration

	logger zerolog.Logger
}

// NewManager starts a Manager. reissuer signs TOKEN_UPDATE replacements; nil
// disables token refresh.
func NewManager(reissuer TokenReissuer, opts ...Option) *Manager {
	m := &Manager{
		rooms:       make(map[string]*Room),
		cleanup:     make(chan RoomCleanupMsg, 16),
		stop:        make(chan struct{}),
		reissuer:    reissuer,
		idleTimeout: RoomInactivityTimeout,
		logger:      logx.Component("relay_manager"),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.wg.Add(1)
	go m.runCleanupLoop()

	return m
}

func (m *Manager) runCleanupLoop() {
	defer m.wg.Done()

	for {
		select {
		case msg := <-m.cleanup:
			m.deleteRoom(msg)
		case <-m.stop:
			return
		}
	}
}

// deleteRoom removes msg.Room unless a newer room already took its session.
func (m *Manager) deleteRoom(msg RoomCleanupMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.rooms[msg.Session]; ok && current == msg.Room {
		delete(m.rooms, msg.Session)
		m.logger.Info().Str("session_name", msg.Session).Msg("Room successfully removed.")
	}
}

// GetOrCreateRoom returns the live room of session, starting one if needed.
// It returns nil after Shutdown.
func (m *Manager) GetOrCreateRoom(session string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	if room, ok := m.rooms[session]; ok {
		select {
		case <-room.Done():
		default:
			return room
		}
	}

	room := newRoom(session, m.maxParticipants, m.idleTimeout, m.reissuer, m.cleanup)
	m.rooms[session] = room
	go room.Run()

	m.logger.Info().
		Str("session_name", session).
		Int("max_participants", m.maxParticipants).
		Msg("New room created and started.")

	return room
}

// GetRoom returns the room of session or nil.
func (m *Manager) GetRoom(session string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[session]
}

// RoomCount returns the number of tracked rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Attach joins an upgraded connection to the room named by claims.Topic and
// starts its pumps. The caller must have verified claims.
func (m *Manager) Attach(conn *websocket.Conn, claims *jwt.Claims) error {
	room := m.GetOrCreateRoom(claims.Topic)
	if room == nil {
		return ErrManagerClosed
	}

	client := NewClient(room, conn, claims)
	go client.WritePump()

	if !room.RegisterClient(client) {
		client.closeSend()
		return ErrRoomClosed
	}

	go client.ReadPump()
	return nil
}

// Shutdown stops every room and the cleanup loop.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down relay manager...")

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for _, room := range m.rooms {
		room.Stop()
	}
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()

	close(m.stop)
	m.wg.Wait()

	m.logger.Info().Msg("Relay manager shutdown complete.")
}
