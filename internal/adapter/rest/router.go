package rest

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/ws"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/usecase"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
)

// NewRouter assembles the HTTP surface: the websocket endpoint, the operator
// console, a health probe and the static board page.
func NewRouter(
	hub *ws.Hub,
	moderation *usecase.ModerationUsecase,
	auth *middleware.OperatorAuthorizer,
	staticDir string,
	log *logger.Logger,
) http.Handler {
	h := &ModerationHandler{
		moderation: moderation,
		auth:       auth,
		staticDir:  staticDir,
		logger:     log.Named("rest"),
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// Websocket sessions live far longer than any request deadline and the
	// connection is hijacked, so the endpoint stays outside the timeout
	// middleware.
	r.Get("/ws", hub.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		r.Get("/healthz", h.Health)

		r.Route("/moderate", func(r chi.Router) {
			r.Get("/", h.ConsolePage)
			r.Get("/approve", h.action(actionApprove))
			r.Get("/reject", h.action(actionReject))
			r.Get("/promote", h.action(actionPromote))
			r.Get("/revoke", h.action(actionRevoke))
			r.Get("/delete", h.action(actionDelete))
			r.Get("/promo/new", h.MintPromo)
		})

		fileServer := http.FileServer(http.Dir(filepath.Clean(staticDir)))
		r.Handle("/*", fileServer)
	})

	return r
}
