package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/usecase"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/metrics"
)

const initialStateTimeout = 10 * time.Second

// ResetClock reports when the next bulk expiry cycle fires. The hub uses it
// to stamp initial-state payloads; the scheduler is bound after construction
// because each side needs the other.
type ResetClock interface {
	NextReset() time.Time
}

// Hub tracks connected sessions and fans board events out to them. It
// implements domain.Broadcaster. Broadcasts are serialized under the hub
// mutex, so every session observes mutations in the same order.
type Hub struct {
	logger  *logger.Logger
	metrics *metrics.MetricsManager

	visible     *usecase.VisibleUsecase
	submissions *usecase.SubmissionUsecase
	moderation  *usecase.ModerationUsecase
	auth        *middleware.OperatorAuthorizer

	maxMessageBytes int64

	mu       sync.Mutex
	sessions map[*Session]struct{}
	clock    ResetClock

	upgrader websocket.Upgrader
}

func NewHub(
	auth *middleware.OperatorAuthorizer,
	maxPhotoBytes int64,
	mm *metrics.MetricsManager,
	log *logger.Logger,
) *Hub {
	return &Hub{
		logger:  log.Named("ws_hub"),
		metrics: mm,
		auth:    auth,
		// Photos travel base64-encoded inside the submit payload, so the
		// frame limit is the photo cap plus headroom for the rest.
		maxMessageBytes: maxPhotoBytes + 64*1024,
		sessions:        make(map[*Session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The board is a public page served from arbitrary hosts in
			// development; origin enforcement is left to the deployment.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// BindUsecases attaches the usecases the hub dispatches into. The hub is
// constructed first because the usecases need it as their broadcaster;
// binding must happen before the HTTP server starts accepting connections.
func (h *Hub) BindUsecases(
	visible *usecase.VisibleUsecase,
	submissions *usecase.SubmissionUsecase,
	moderation *usecase.ModerationUsecase,
) {
	h.visible = visible
	h.submissions = submissions
	h.moderation = moderation
}

// BindClock attaches the expiry scheduler once it exists.
func (h *Hub) BindClock(c ResetClock) {
	h.mu.Lock()
	h.clock = c
	h.mu.Unlock()
}

func (h *Hub) nextReset() time.Time {
	h.mu.Lock()
	c := h.clock
	h.mu.Unlock()
	if c == nil {
		return time.Time{}
	}
	return c.NextReset()
}

// ServeWS upgrades the request and runs the session until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ServeWS: upgrade failed", zap.Error(err))
		return
	}

	s := newSession(h, conn)
	h.register(s)

	go s.writePump()
	s.sendInitialState(r.Context())
	s.readPump()
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	n := len(h.sessions)
	h.mu.Unlock()

	h.metrics.ConnectedSessions.Set(float64(n))
	h.logger.Debug("session connected", zap.Int("sessions", n))
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	n := len(h.sessions)
	h.mu.Unlock()

	s.close()
	h.metrics.ConnectedSessions.Set(float64(n))
	h.logger.Debug("session disconnected", zap.Int("sessions", n))
}

// ListingAdded implements domain.Broadcaster.
func (h *Hub) ListingAdded(v *domain.VisibleListing) {
	h.broadcast(eventListingAdded, toWireListing(&v.Listing, v.Permanent), false)
}

// ListingRemoved implements domain.Broadcaster.
func (h *Hub) ListingRemoved(listingID string) {
	h.broadcast(eventListingRemoved, listingRemovedPayload{ListingID: listingID}, false)
}

// PendingAdded implements domain.Broadcaster. Only authenticated operator
// sessions receive the event.
func (h *Hub) PendingAdded(l *domain.Listing) {
	h.broadcast(eventPendingAdded, toWireListing(l, false), true)
}

// BoardReset implements domain.Broadcaster.
func (h *Hub) BoardReset(survivors []*domain.VisibleListing, nextReset time.Time) {
	h.broadcast(eventBoardReset, boardResetPayload{
		Listings:  toWireVisible(survivors),
		NextReset: nextReset,
	}, false)
}

func (h *Hub) broadcast(eventType string, payload interface{}, operatorOnly bool) {
	data, err := json.Marshal(serverEnvelope{Type: eventType, Payload: payload})
	if err != nil {
		h.logger.Error("broadcast: marshal failed", zap.String("event", eventType), zap.Error(err))
		return
	}

	var stalled []*Session
	h.mu.Lock()
	for s := range h.sessions {
		if operatorOnly && !s.isOperator.Load() {
			continue
		}
		if !s.trySend(data) {
			stalled = append(stalled, s)
		}
	}
	h.mu.Unlock()

	h.metrics.BroadcastsTotal.WithLabelValues(eventType).Inc()

	// A session whose buffer is full is not keeping up; drop it rather than
	// block or reorder events for everyone else.
	for _, s := range stalled {
		h.logger.Warn("broadcast: dropping stalled session", zap.String("event", eventType))
		h.unregister(s)
	}
}

// Shutdown disconnects every session. Used during graceful shutdown.
func (h *Hub) Shutdown(_ context.Context) {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		h.unregister(s)
	}
}
