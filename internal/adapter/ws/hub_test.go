package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/metrics"
)

func newTestHub() *Hub {
	auth := middleware.NewOperatorAuthorizer("secret", "jwt-secret", time.Hour, logger.NewNop())
	return NewHub(auth, 3*1024*1024, metrics.NewMetricsManager("board-service-test"), logger.NewNop())
}

// attach registers a session without a real connection; only the send buffer
// is exercised here.
func attach(h *Hub) *Session {
	s := newSession(h, nil)
	h.register(s)
	return s
}

func drain(t *testing.T, s *Session) serverEnvelope {
	t.Helper()
	select {
	case data := <-s.send:
		var env serverEnvelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	default:
		t.Fatal("expected a frame in the send buffer")
		return serverEnvelope{}
	}
}

func TestHub_BroadcastReachesEverySession(t *testing.T) {
	h := newTestHub()
	s1 := attach(h)
	s2 := attach(h)

	h.ListingAdded(&domain.VisibleListing{
		Listing: domain.Listing{ID: "l1", Title: "Bike", Status: domain.StatusApproved},
	})

	for _, s := range []*Session{s1, s2} {
		env := drain(t, s)
		assert.Equal(t, eventListingAdded, env.Type)
	}
}

func TestHub_PendingAddedOnlyReachesOperators(t *testing.T) {
	h := newTestHub()
	viewer := attach(h)
	operator := attach(h)
	operator.isOperator.Store(true)

	h.PendingAdded(&domain.Listing{ID: "l1", Status: domain.StatusPending})

	env := drain(t, operator)
	assert.Equal(t, eventPendingAdded, env.Type)
	assert.Empty(t, viewer.send, "viewers never see the moderation queue")
}

func TestHub_ListingRemovedPayload(t *testing.T) {
	h := newTestHub()
	s := attach(h)

	h.ListingRemoved("l9")

	env := drain(t, s)
	assert.Equal(t, eventListingRemoved, env.Type)

	raw, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	var p listingRemovedPayload
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, "l9", p.ListingID)
}

func TestHub_StalledSessionIsDropped(t *testing.T) {
	h := newTestHub()
	healthy := attach(h)
	stalled := attach(h)

	// Fill the stalled session's buffer so the next broadcast cannot enqueue.
	for i := 0; i < sendBufferSize; i++ {
		require.True(t, stalled.trySend([]byte("{}")))
	}

	h.ListingRemoved("l1")

	h.mu.Lock()
	_, healthyPresent := h.sessions[healthy]
	_, stalledPresent := h.sessions[stalled]
	h.mu.Unlock()

	assert.True(t, healthyPresent)
	assert.False(t, stalledPresent, "a session that cannot keep up is disconnected")
}

func TestHub_SendAfterDisconnectIsNoOp(t *testing.T) {
	h := newTestHub()
	s := attach(h)

	h.unregister(s)

	// The read handler can still be producing acks when the hub tears the
	// session down; those sends must degrade to a refused enqueue, never a
	// send on a closed channel.
	assert.False(t, s.trySend([]byte("{}")))
	s.ack("c1", false, "ignored")
	s.unicast(eventAck, "c2", ackPayload{Success: true})

	// Tearing down twice is equally harmless.
	h.unregister(s)
	s.close()
}

func TestHub_BroadcastDuringTeardownDoesNotPanic(t *testing.T) {
	h := newTestHub()
	s := attach(h)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			s.trySend([]byte("{}"))
		}
	}()

	h.ListingRemoved("l1")
	h.unregister(s)
	h.ListingRemoved("l2")
	<-done
}

func TestHub_BoardResetCarriesNextReset(t *testing.T) {
	h := newTestHub()
	s := attach(h)
	next := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	h.BoardReset(nil, next)

	env := drain(t, s)
	assert.Equal(t, eventBoardReset, env.Type)

	raw, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	var p boardResetPayload
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.True(t, p.NextReset.Equal(next))
	assert.Empty(t, p.Listings)
}
