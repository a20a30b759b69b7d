package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"videosdk/internal/app/user"
	"videosdk/internal/pkg/errs"
	"videosdk/internal/pkg/logx"
)

// RoomInactivityTimeout is how long a room without participants stays alive.
const RoomInactivityTimeout = 5 * time.Minute

// RoomCleanupMsg tells the Manager that a room's Run loop has finished.
type RoomCleanupMsg struct {
	Session string
	Room    *Room
}

type statusUpdate struct {
	client *Client
	status user.MediaStatus
}

// Room is the relay hub of one session. All participant bookkeeping happens on
// the Run goroutine; the mutex only guards readers outside of it.
type Room struct {
	// Session is the session name every token in this room was issued for.
	Session string

	// MaxParticipants caps distinct participants; 0 means unlimited.
	MaxParticipants int

	// connected clients keyed by participant ID.
	clients map[string]*Client

	register      chan *Client
	unregister    chan *Client
	statusUpdates chan statusUpdate

	// cleanupChan notifies the Manager once Run returns.
	cleanupChan chan<- RoomCleanupMsg

	stopChan chan struct{}
	stopOnce sync.Once

	// done is closed when Run returns; senders select on it instead of blocking forever.
	done chan struct{}

	reissuer      TokenReissuer
	idleTimeout   time.Duration
	shutdownTimer *time.Timer

	mu     sync.RWMutex
	logger zerolog.Logger
}

func newRoom(session string, maxParticipants int, idleTimeout time.Duration, reissuer TokenReissuer, cleanupChan chan<- RoomCleanupMsg) *Room {
	return &Room{
		Session:         session,
		MaxParticipants: maxParticipants,
		clients:         make(map[string]*Client),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		statusUpdates:   make(chan statusUpdate),
		cleanupChan:     cleanupChan,
		stopChan:        make(chan struct{}),
		done:            make(chan struct{}),
		reissuer:        reissuer,
		idleTimeout:     idleTimeout,
		shutdownTimer:   time.NewTimer(idleTimeout),
		logger:          logx.Component("relay_room").With().Str("session_name", session).Logger(),
	}
}

// Stop terminates the Run loop. It is safe to call more than once.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Info().Msg("Received stop signal. Stopping room immediately.")
		close(r.stopChan)
	})
}

// Done is closed once the room stopped accepting clients.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Run is the room's event loop. It returns after Stop or after the room stayed
// empty for its inactivity timeout.
func (r *Room) Run() {
	defer r.finish()

	for {
		select {
		case client := <-r.register:
			r.handleRegister(client)

		case client := <-r.unregister:
			r.removeClient(client)

		case update := <-r.statusUpdates:
			r.handleStatus(update)

		case <-r.shutdownTimer.C:
			r.logger.Info().Dur("timeout", r.idleTimeout).Msg("Room inactivity timeout reached.")
			return

		case <-r.stopChan:
			r.logger.Info().Msg("Room forced stop initiated.")
			return
		}
	}
}

func (r *Room) finish() {
	r.shutdownTimer.Stop()
	close(r.done)

	select {
	case r.cleanupChan <- RoomCleanupMsg{Session: r.Session, Room: r}:
	default:
		r.logger.Warn().Msg("Manager cleanup channel full. Skipping cleanup notification.")
	}

	r.mu.Lock()
	for id, client := range r.clients {
		client.closeSend()
		delete(r.clients, id)
	}
	r.mu.Unlock()

	r.logger.Info().Msg("Room Run loop finished.")
}

func (r *Room) stopTimer() {
	if !r.shutdownTimer.Stop() {
		select {
		case <-r.shutdownTimer.C:
		default:
		}
	}
}

func (r *Room) handleRegister(client *Client) {
	r.stopTimer()

	r.mu.Lock()

	existing, duplicate := r.clients[client.user.ID]

	if !duplicate && r.MaxParticipants > 0 && len(r.clients) >= r.MaxParticipants {
		r.mu.Unlock()

		r.logger.Warn().
			Int("max_participants", r.MaxParticipants).
			Str("participant_id", client.user.ID).
			Msg("Room is full. New participant rejected.")

		client.SendError(errs.NewError(errs.ErrSessionFull))
		client.closeSend()
		return
	}

	if duplicate {
		r.logger.Warn().
			Str("participant_id", client.user.ID).
			Msg("Participant already connected. Closing old connection for replacement.")
		existing.Kick("Session replaced by new connection.")
	}

	r.clients[client.user.ID] = client
	participants := r.participantsLocked()
	total := len(r.clients)

	r.mu.Unlock()

	r.logger.Info().
		Str("participant_id", client.user.ID).
		Str("role", client.user.Role).
		Int("total_participants", total).
		Msg("Participant joined room.")

	if err := client.SendInitData(InitDataPayload{
		Self:            client.user,
		Participants:    participants,
		MaxParticipants: r.MaxParticipants,
	}); err != nil {
		r.removeClient(client)
		return
	}

	if !duplicate {
		r.fanOut(TypeParticipantJoined, client.user, ParticipantPayload{Participant: client.user}, client)
	}
}

// removeClient drops client if it is still the current connection of its participant.
func (r *Room) removeClient(client *Client) {
	r.mu.Lock()

	current, ok := r.clients[client.user.ID]
	switch {
	case ok && current == client:
		delete(r.clients, client.user.ID)
	case ok:
		r.mu.Unlock()
		r.logger.Debug().Str("participant_id", client.user.ID).Msg("Ignoring unregister for stale connection.")
		return
	default:
		r.mu.Unlock()
		return
	}

	remaining := len(r.clients)
	r.mu.Unlock()

	client.closeSend()

	r.logger.Info().
		Str("participant_id", client.user.ID).
		Int("total_participants", remaining).
		Msg("Participant left room.")

	r.fanOut(TypeParticipantLeft, SystemUser, ParticipantPayload{Participant: client.user}, nil)

	if remaining == 0 {
		r.logger.Info().Dur("timeout", r.idleTimeout).Msg("Room is empty. Starting inactivity timer.")
		r.stopTimer()
		r.shutdownTimer.Reset(r.idleTimeout)
	}
}

func (r *Room) handleStatus(update statusUpdate) {
	r.mu.Lock()

	current, ok := r.clients[update.client.user.ID]
	if !ok || current != update.client {
		r.mu.Unlock()
		return
	}

	if !current.user.IsHost() && update.status.Recording != current.user.Status.Recording {
		r.mu.Unlock()
		r.logger.Warn().Str("participant_id", current.user.ID).Msg("Non-host attempted to change recording status.")
		current.SendError(errs.NewError(errs.ErrForbidden))
		return
	}

	current.user.Status = update.status
	participant := current.user
	r.mu.Unlock()

	r.fanOut(TypeStatus, participant, ParticipantPayload{Participant: participant}, current)
}

// fanOut sends one message to every client except the given one. Clients whose
// queue is full are dropped.
func (r *Room) fanOut(msgType MessageType, sender user.User, payload any, except *Client) {
	msg, err := NewMessage(msgType, r.Session, sender, payload)
	if err != nil {
		r.logger.Error().Err(err).Str("msg_type", string(msgType)).Msg("Failed to build broadcast message.")
		return
	}

	messageBytes, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Error marshaling message for broadcast.")
		return
	}

	var slow []*Client

	r.mu.RLock()
	for _, client := range r.clients {
		if client == except {
			continue
		}
		if !client.enqueue(messageBytes) {
			slow = append(slow, client)
		}
	}
	r.mu.RUnlock()

	for _, client := range slow {
		client.logger.Warn().Msg("Client send queue full, unregistering.")
		r.removeClient(client)
	}
}

func (r *Room) participantsLocked() []user.User {
	participants := make([]user.User, 0, len(r.clients))
	for _, c := range r.clients {
		participants = append(participants, c.user)
	}
	return participants
}

// Participants returns a snapshot of the connected participants.
func (r *Room) Participants() []user.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.participantsLocked()
}

// RegisterClient hands client to the Run loop. It returns false if the room
// already stopped.
func (r *Room) RegisterClient(client *Client) bool {
	select {
	case r.register <- client:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) unregisterClient(client *Client) {
	select {
	case r.unregister <- client:
	case <-r.done:
	}
}

func (r *Room) submitStatus(client *Client, status user.MediaStatus) {
	select {
	case r.statusUpdates <- statusUpdate{client: client, status: status}:
	case <-r.done:
	}
}
