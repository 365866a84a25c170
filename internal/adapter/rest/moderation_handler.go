package rest

import (
	"net/http"
	"net/url"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/usecase"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
)

type moderationAction string

const (
	actionApprove moderationAction = "approve"
	actionReject  moderationAction = "reject"
	actionPromote moderationAction = "promote"
	actionRevoke  moderationAction = "revoke"
	actionDelete  moderationAction = "delete"
)

// ModerationHandler serves the operator console. The console is a plain
// HTML page whose links carry the credential as a query parameter, so every
// action is a GET that redirects back to the page.
type ModerationHandler struct {
	moderation *usecase.ModerationUsecase
	auth       *middleware.OperatorAuthorizer
	staticDir  string
	logger     *logger.Logger
}

func (h *ModerationHandler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// credential pulls the operator credential from the request: a short-lived
// token or the shared secret, both accepted wherever the other is.
func credential(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	return r.URL.Query().Get("secret")
}

// ConsolePage serves the operator console to authorized callers and a flat
// 403 to everyone else.
func (h *ModerationHandler) ConsolePage(w http.ResponseWriter, r *http.Request) {
	if !h.auth.Authorize(credential(r)) {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.staticDir, "moderate.html"))
}

// action runs one moderation operation and redirects back to the console.
// Unauthorized or failed actions redirect the same way; the console learns
// the outcome from the board state, not from this response.
func (h *ModerationHandler) action(act moderationAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cred := credential(r)
		if !h.auth.Authorize(cred) {
			http.Redirect(w, r, "/moderate", http.StatusFound)
			return
		}

		listingID := r.URL.Query().Get("id")
		var err error
		switch act {
		case actionApprove:
			_, err = h.moderation.Approve(r.Context(), listingID)
		case actionReject:
			err = h.moderation.Reject(r.Context(), listingID)
		case actionPromote:
			_, err = h.moderation.Promote(r.Context(), listingID)
		case actionRevoke:
			err = h.moderation.RevokePermanent(r.Context(), listingID)
		case actionDelete:
			err = h.moderation.DeleteAny(r.Context(), listingID)
		}
		if err != nil {
			h.logger.Warn("moderation action failed",
				zap.String("action", string(act)),
				zap.String("listing_id", listingID),
				zap.Error(err))
		}

		http.Redirect(w, r, consoleURL(cred), http.StatusFound)
	}
}

// MintPromo issues a fresh one-time premium code and returns it as plain text.
func (h *ModerationHandler) MintPromo(w http.ResponseWriter, r *http.Request) {
	if !h.auth.Authorize(credential(r)) {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	code, err := h.moderation.MintPromoCode(r.Context())
	if err != nil {
		h.logger.Error("MintPromo: failed", zap.Error(err))
		http.Error(w, "could not mint a promo code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(code))
}

func consoleURL(cred string) string {
	if cred == "" {
		return "/moderate"
	}
	return "/moderate?secret=" + url.QueryEscape(cred)
}
