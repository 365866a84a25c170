package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/usecase"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
	handleTimeout  = 15 * time.Second
)

// Session is one websocket connection. Outbound messages flow through the
// buffered send channel so the write side never blocks a broadcast.
type Session struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	isOperator atomic.Bool

	// Guards send against close: the hub can tear a session down while its
	// read handler is still producing acks, and a send on a closed channel
	// panics. Sends after teardown must degrade to a no-op instead.
	mu     sync.Mutex
	closed bool
}

func newSession(h *Hub, conn *websocket.Conn) *Session {
	return &Session{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// trySend enqueues a pre-marshalled frame. Returns false when the session is
// already torn down or the buffer is full; a full buffer is the hub's signal
// of a stalled peer.
func (s *Session) trySend(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

func (s *Session) unicast(eventType, correlationID string, payload interface{}) {
	data, err := json.Marshal(serverEnvelope{Type: eventType, ID: correlationID, Payload: payload})
	if err != nil {
		s.hub.logger.Error("unicast: marshal failed", zap.String("event", eventType), zap.Error(err))
		return
	}
	s.trySend(data)
}

func (s *Session) ack(correlationID string, success bool, message string) {
	s.unicast(eventAck, correlationID, ackPayload{Success: success, Message: message})
}

// sendInitialState pushes the current visible board and the next reset time
// to a freshly connected session.
func (s *Session) sendInitialState(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, initialStateTimeout)
	defer cancel()

	visible, err := s.hub.visible.Visible(ctx)
	if err != nil {
		s.hub.logger.Error("sendInitialState: failed to load visible listings", zap.Error(err))
		visible = nil
	}
	s.unicast(eventInitialState, "", initialStatePayload{
		Listings:  toWireVisible(visible),
		NextReset: s.hub.nextReset(),
	})
}

func (s *Session) readPump() {
	defer func() {
		s.hub.unregister(s)
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(s.hub.maxMessageBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.logger.Debug("readPump: connection closed", zap.Error(err))
			}
			return
		}
		s.handleMessage(data)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) handleMessage(data []byte) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.hub.logger.Debug("handleMessage: malformed envelope", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	switch env.Type {
	case eventSubmitListing:
		s.handleSubmit(ctx, env)
	case eventDeleteListing:
		s.handleDeleteOwn(ctx, env)
	case eventOperatorAuth:
		s.handleOperatorAuth(env)
	case eventGetPending:
		s.handleList(ctx, env, eventPendingListings)
	case eventGetAll:
		s.handleList(ctx, env, eventAllListings)
	case eventApprove, eventReject, eventDeleteAny:
		s.handleModeration(ctx, env)
	default:
		s.hub.logger.Debug("handleMessage: unknown event type", zap.String("type", env.Type))
	}
}

func (s *Session) handleSubmit(ctx context.Context, env clientEnvelope) {
	var p submitPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		s.ack(env.ID, false, "malformed submission")
		return
	}

	var photo []byte
	if p.Photo != "" {
		if len(p.Photo) > s.hub.submissions.MaxPhotoBytes() {
			s.ack(env.ID, false, "photo is too large")
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(p.Photo)
		if err != nil {
			s.ack(env.ID, false, "photo is not valid base64")
			return
		}
		photo = decoded
	}

	_, err := s.hub.submissions.Submit(ctx, usecase.SubmitInput{
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		OwnerID:     p.OwnerID,
		PromoCode:   p.PromoCode,
		PhotoName:   p.PhotoName,
		PhotoData:   photo,
	})
	if err != nil {
		s.ack(env.ID, false, userMessage(err))
		return
	}
	s.ack(env.ID, true, "listing submitted for review")
}

func (s *Session) handleDeleteOwn(ctx context.Context, env clientEnvelope) {
	var p deleteOwnPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		s.ack(env.ID, false, "malformed request")
		return
	}
	if err := s.hub.submissions.DeleteOwn(ctx, p.ListingID, p.OwnerID); err != nil {
		s.ack(env.ID, false, userMessage(err))
		return
	}
	s.ack(env.ID, true, "listing removed")
}

// handleOperatorAuth exchanges the shared secret for a short-lived token.
// A wrong secret gets no response at all, matching the silent failure mode
// of the moderation actions.
func (s *Session) handleOperatorAuth(env clientEnvelope) {
	var p operatorAuthPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return
	}
	if !s.hub.auth.VerifySecret(p.Secret) {
		return
	}
	token, err := s.hub.auth.IssueToken()
	if err != nil {
		s.hub.logger.Error("handleOperatorAuth: token issue failed", zap.Error(err))
		return
	}
	s.isOperator.Store(true)
	s.unicast(eventOperatorToken, env.ID, tokenPayload{Token: token})
}

// handleList answers get-pending and get-all. An unauthorized caller simply
// gets an empty array.
func (s *Session) handleList(ctx context.Context, env clientEnvelope, replyType string) {
	var p operatorActionPayload
	_ = json.Unmarshal(env.Payload, &p)

	listings := []*domain.Listing{}
	if s.hub.auth.Authorize(p.Token) {
		var err error
		if replyType == eventPendingListings {
			listings, err = s.hub.moderation.ListPending(ctx)
		} else {
			listings, err = s.hub.moderation.ListAll(ctx)
		}
		if err != nil {
			s.hub.logger.Error("handleList: query failed", zap.String("reply", replyType), zap.Error(err))
			listings = nil
		}
	}
	s.unicast(replyType, env.ID, toWireListings(listings))
}

// handleModeration runs approve, reject and delete-any. Failed authorization
// and usecase errors are swallowed; the only observable result of a
// moderation action is its broadcast.
func (s *Session) handleModeration(ctx context.Context, env clientEnvelope) {
	var p operatorActionPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return
	}
	if !s.hub.auth.Authorize(p.Token) {
		return
	}

	var err error
	switch env.Type {
	case eventApprove:
		_, err = s.hub.moderation.Approve(ctx, p.ListingID)
	case eventReject:
		err = s.hub.moderation.Reject(ctx, p.ListingID)
	case eventDeleteAny:
		err = s.hub.moderation.DeleteAny(ctx, p.ListingID)
	}
	if err != nil {
		s.hub.logger.Warn("handleModeration: action failed",
			zap.String("action", env.Type),
			zap.String("listing_id", p.ListingID),
			zap.Error(err))
	}
}

// userMessage maps domain errors to messages safe to show an anonymous user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	case errors.Is(err, domain.ErrDuplicateSubmission):
		return "you already have an active listing"
	case errors.Is(err, domain.ErrPromoInvalid):
		return "promo code is invalid or already used"
	case errors.Is(err, domain.ErrUnauthorized):
		return "you can only remove your own listings"
	case errors.Is(err, domain.ErrNotFound):
		return "listing not found"
	default:
		return "something went wrong, please try again"
	}
}
