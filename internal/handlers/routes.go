package handlers

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Coordinator SessionCoordinator
	Sessions    SessionQueries
	Invitations InvitationQueries
	Friends     FriendDirectory
	RateLimiter RateLimiter

	// TrustedProxies lists the networks whose X-Forwarded-For header is
	// believed when keying the rate limiter.
	TrustedProxies []netip.Prefix
}

// NewRouter wires every HTTP handler into a chi router.
func NewRouter(deps Dependencies) http.Handler {
	v := newValidator()
	limit := requestLimiter{limiter: deps.RateLimiter, trusted: deps.TrustedProxies}
	health := HealthHandler{}
	sessions := SessionHandler{Coordinator: deps.Coordinator, Sessions: deps.Sessions, limit: limit, validate: v}
	participants := ParticipantHandler{Coordinator: deps.Coordinator, limit: limit, validate: v}
	invitations := InvitationHandler{Coordinator: deps.Coordinator, Invitations: deps.Invitations, limit: limit, validate: v}
	friends := FriendHandler{
		Friends:     deps.Friends,
		Sessions:    deps.Sessions,
		Invitations: deps.Invitations,
		limit:       limit,
		validate:    v,
	}

	r := chi.NewRouter()
	r.Get("/healthz", health.Handle)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessions.List)
			r.Post("/", sessions.Create)
			r.Get("/active", sessions.ListActive)
			r.Get("/creator/{creatorId}", sessions.ListByCreator)

			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", sessions.Get)
				r.Put("/end", sessions.End)
				r.Delete("/", sessions.Delete)

				r.Get("/friends", participants.List)
				r.Post("/friends", participants.Add)
				r.Get("/friends/count", participants.Count)
				r.Put("/friends/{friendId}/status", participants.UpdateStatus)
				r.Delete("/friends/{friendId}", participants.Remove)

				r.Get("/invitations", invitations.ListBySession)
				r.Post("/invitations", invitations.Create)
			})
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Get("/", invitations.List)
			r.Post("/sweep", invitations.Sweep)
			r.Get("/{invitationId}", invitations.Get)
			r.Post("/{invitationId}/respond", invitations.Respond)
			r.Post("/{invitationId}/cancel", invitations.Cancel)
			r.Delete("/{invitationId}", invitations.Delete)
		})

		r.Route("/friends", func(r chi.Router) {
			r.Get("/", friends.List)
			r.Post("/", friends.Create)
			r.Get("/{friendId}", friends.Get)
			r.Put("/{friendId}", friends.Update)
			r.Delete("/{friendId}", friends.Delete)
			r.Get("/{friendId}/sessions", friends.ListSessions)
			r.Get("/{friendId}/invitations", friends.ListInvitations)
			r.Get("/{friendId}/invitations/sent", friends.ListSentInvitations)
		})
	})

	return r
}
