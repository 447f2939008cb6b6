package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/sessions"
)

// SessionHandler serves the game session endpoints.
type SessionHandler struct {
	Coordinator SessionCoordinator
	Sessions    SessionQueries
	limit       requestLimiter

	validate *validator.Validate
}

type createSessionRequest struct {
	Name             string `json:"name" validate:"required,min=3,max=100"`
	CreatorID        int    `json:"creatorId" validate:"required,gt=0"`
	InitialFriendIDs []int  `json:"initialFriendIds"`
}

type sessionResponse struct {
	models.GameSession
	Participants []models.SessionFriend `json:"participants"`
}

// List handles GET /api/sessions.
func (h SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Sessions.GetAll(r.Context())
	if err != nil {
		respondError(r.Context(), w, err, "failed to list sessions")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(list))
}

// ListActive handles GET /api/sessions/active.
func (h SessionHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	list, err := h.Sessions.GetActive(r.Context())
	if err != nil {
		respondError(r.Context(), w, err, "failed to list active sessions")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(list))
}

// ListByCreator handles GET /api/sessions/creator/{creatorId}.
func (h SessionHandler) ListByCreator(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := pathID(w, r, "creatorId")
	if !ok {
		return
	}
	list, err := h.Sessions.GetByCreator(r.Context(), creatorID)
	if err != nil {
		respondError(r.Context(), w, err, "failed to list sessions")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(list))
}

// Get handles GET /api/sessions/{sessionId}.
func (h SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}
	session, err := h.Coordinator.GetSession(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err, "failed to load session")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, session)
}

// Create handles POST /api/sessions. The creator joins as the first primary
// participant and unknown initial friends are skipped.
func (h SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "sessions:create") {
		tooManyRequests(ctx, w)
		return
	}

	var req createSessionRequest
	if !decodeAndValidate(h.validate, w, r, &req) {
		return
	}

	details, err := h.Coordinator.CreateSession(ctx, sessions.CreateSessionInput{
		Name:             req.Name,
		CreatorID:        req.CreatorID,
		InitialFriendIDs: req.InitialFriendIDs,
	})
	if err != nil {
		respondError(ctx, w, err, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, sessionResponse{
		GameSession:  details.Session,
		Participants: nonNil(details.Participants),
	})
}

// End handles PUT /api/sessions/{sessionId}/end.
func (h SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "sessions:end") {
		tooManyRequests(ctx, w)
		return
	}
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	session, err := h.Coordinator.EndSession(ctx, id)
	if err != nil {
		// Ending twice reads as "no active session with that id".
		if errors.Is(err, sessions.ErrSessionAlreadyEnded) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		respondError(ctx, w, err, "failed to end session")
		return
	}
	respondJSON(ctx, w, http.StatusOK, session)
}

// Delete handles DELETE /api/sessions/{sessionId}.
func (h SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "sessions:delete") {
		tooManyRequests(ctx, w)
		return
	}
	id, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	if err := h.Coordinator.DeleteSession(ctx, id); err != nil {
		respondError(ctx, w, err, "failed to delete session")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "session deleted"})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
