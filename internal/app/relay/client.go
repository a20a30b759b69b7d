package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"videosdk/internal/app/user"
	"videosdk/internal/pkg/auth/jwt"
	"videosdk/internal/pkg/errs"
	"videosdk/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192

	sendQueueSize = 64

	// WsCloseCodeSessionKicked is a custom WebSocket Close Code (4000-4999 range)
	// used to signal the client that the session was replaced by a new connection.
	WsCloseCodeSessionKicked = 4001

	// TokenRefreshWindow is how long before expiry a replacement token is pushed.
	TokenRefreshWindow = 2 * time.Minute
)

// TokenReissuer signs a replacement for a token that is about to expire.
// *jwt.Issuer satisfies it.
type TokenReissuer interface {
	Reissue(claims jwt.Claims) (jwt.Issued, error)
}

// Client is one participant's WebSocket connection.
type Client struct {
	room *Room
	conn *websocket.Conn
	user user.User

	// claims of the token the connection was opened (or last refreshed) with.
	claims      jwt.Claims
	tokenExpiry time.Time

	send   chan []byte
	sendMu sync.Mutex
	closed bool

	logger zerolog.Logger
}

// NewClient builds the client for a connection authorized by claims.
func NewClient(room *Room, conn *websocket.Conn, claims *jwt.Claims) *Client {
	participant := user.FromClaims(claims)

	return &Client{
		room:        room,
		conn:        conn,
		user:        participant,
		claims:      *claims,
		tokenExpiry: claims.ExpiresAtTime(),
		send:        make(chan []byte, sendQueueSize),
		logger: logx.Component("relay_client").With().
			Str("participant_id", participant.ID).
			Str("session_name", room.Session).
			Logger(),
	}
}

// User returns the participant behind the connection.
func (c *Client) User() user.User {
	return c.user
}

// ReadPump reads client messages until the connection fails, then unregisters.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

func (c *Client) cleanupOnDisconnect() {
	c.logger.Debug().Msg("Client connection cleanup starting.")

	c.room.unregisterClient(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

func (c *Client) processInboundMessage(messageBytes []byte) {
	var inboundMsg struct {
		Type    MessageType     `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(messageBytes, &inboundMsg); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrStatusMessageInvalid))
		return
	}

	switch inboundMsg.Type {
	case TypeStatus:
		var status user.MediaStatus
		if err := json.Unmarshal(inboundMsg.Payload, &status); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid STATUS payload")
			c.SendError(errs.NewError(errs.ErrStatusMessageInvalid))
			return
		}
		c.room.submitStatus(c, status)

	default:
		c.logger.Warn().Str("msg_type", string(inboundMsg.Type)).Msg("Client sent unsupported message type")
		c.SendError(errs.NewError(errs.ErrStatusMessageInvalid))
	}
}

// WritePump drains the send queue to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}

			c.refreshToken(time.Now())
		}
	}
}

func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		err := c.conn.WriteMessage(websocket.CloseMessage, []byte{})
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// refreshToken pushes a reissued token once now is inside the refresh window.
// The new token keeps the session, role and identity of the current one.
func (c *Client) refreshToken(now time.Time) {
	if c.room.reissuer == nil || now.Before(c.tokenExpiry.Add(-TokenRefreshWindow)) {
		return
	}

	c.logger.Info().
		Time("current_expiry", c.tokenExpiry).
		Dur("refresh_window", TokenRefreshWindow).
		Msg("Session token is nearing expiry, reissuing.")

	issued, err := c.room.reissuer.Reissue(c.claims)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to reissue session token. Aborting refresh.")
		return
	}

	if err := c.SendTokenUpdateMessage(issued); err != nil {
		return
	}

	c.claims = issued.Claims
	c.tokenExpiry = issued.Claims.ExpiresAtTime()
}

// SendTokenUpdateMessage queues a TOKEN_UPDATE message for the client.
func (c *Client) SendTokenUpdateMessage(issued jwt.Issued) error {
	updateMsg, err := NewMessage(TypeTokenUpdate, c.room.Session, SystemUser, TokenUpdatePayload{
		Token:     issued.Token,
		ExpiresAt: issued.Claims.ExpiresAt,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to build TOKEN_UPDATE message.")
		return err
	}

	if err := c.sendMessage(updateMsg); err != nil {
		c.logger.Error().Err(err).Msg("Failed to send TOKEN_UPDATE message.")
		return err
	}
	return nil
}

// SendInitData queues the INIT_DATA message.
func (c *Client) SendInitData(payload InitDataPayload) error {
	initMsg, err := NewMessage(TypeInitData, c.room.Session, SystemUser, payload)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to build INIT_DATA message.")
		return err
	}

	if err := c.sendMessage(initMsg); err != nil {
		c.logger.Error().Err(err).Msg("Failed to send INIT_DATA message.")
		return err
	}

	return nil
}

// SendError queues an ERROR message. Errors that are not *errs.CustomError
// are reported as ErrUnknown without their text.
func (c *Client) SendError(err error) {
	customErr := errs.NewError(errs.ErrUnknown)

	var asCustom *errs.CustomError
	if errors.As(err, &asCustom) {
		customErr = asCustom
	} else {
		c.logger.Error().Err(err).Msg("Reporting internal error to client")
	}

	errorMsg, msgErr := NewMessage(TypeError, c.room.Session, SystemUser, ErrorPayload{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
	if msgErr != nil {
		c.logger.Error().Err(msgErr).Msg("Failed to build ERROR message")
		return
	}

	if err := c.sendMessage(errorMsg); err != nil {
		c.logger.Error().Err(err).Msg("Failed to queue error message")
	}
}

func (c *Client) sendMessage(msg Message) error {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msg.Type, err)
	}

	if !c.enqueue(messageBytes) {
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping message")
		return fmt.Errorf("client send queue full")
	}
	return nil
}

// enqueue adds a frame without blocking. It returns false when the queue is
// full or already closed.
func (c *Client) enqueue(frame []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend closes the send queue once; WritePump then sends a close frame.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Kick closes the connection with close code 4001 because a newer connection
// of the same participant replaced it.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionKicked).
		Str("reason", reason).
		Msg("Sending WS Kick message and closing connection.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionKicked, reason)

	if err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send WS 4001 Close Message.")
	}

	c.closeSend()
}
