package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gamenight/backend/internal/models"
)

// FriendHandler serves the friend directory endpoints.
type FriendHandler struct {
	Friends     FriendDirectory
	Sessions    SessionQueries
	Invitations InvitationQueries
	limit       requestLimiter

	validate *validator.Validate
}

type friendRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
}

// List handles GET /api/friends. A non-empty q parameter filters by name or email.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		friends []models.Friend
		err     error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		friends, err = h.Friends.Search(ctx, q)
	} else {
		friends, err = h.Friends.List(ctx)
	}
	if err != nil {
		respondError(ctx, w, err, "failed to list friends")
		return
	}
	respondJSON(ctx, w, http.StatusOK, nonNil(friends))
}

// Get handles GET /api/friends/{friendId}.
func (h FriendHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "friendId")
	if !ok {
		return
	}
	friend, err := h.Friends.Get(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err, "failed to load friend")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, friend)
}

// Create handles POST /api/friends.
func (h FriendHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "friends:create") {
		tooManyRequests(ctx, w)
		return
	}

	var req friendRequest
	if !decodeAndValidate(h.validate, w, r, &req) {
		return
	}

	friend, err := h.Friends.Add(ctx, models.Friend{Name: strings.TrimSpace(req.Name), Email: strings.TrimSpace(req.Email)})
	if err != nil {
		respondError(ctx, w, err, "failed to create friend")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, friend)
}

// Update handles PUT /api/friends/{friendId}.
func (h FriendHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "friends:update") {
		tooManyRequests(ctx, w)
		return
	}
	id, ok := pathID(w, r, "friendId")
	if !ok {
		return
	}

	var req friendRequest
	if !decodeAndValidate(h.validate, w, r, &req) {
		return
	}

	friend, err := h.Friends.Update(ctx, models.Friend{ID: id, Name: strings.TrimSpace(req.Name), Email: strings.TrimSpace(req.Email)})
	if err != nil {
		respondError(ctx, w, err, "failed to update friend")
		return
	}
	respondJSON(ctx, w, http.StatusOK, friend)
}

// Delete handles DELETE /api/friends/{friendId}.
func (h FriendHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "friends:delete") {
		tooManyRequests(ctx, w)
		return
	}
	id, ok := pathID(w, r, "friendId")
	if !ok {
		return
	}

	if err := h.Friends.Delete(ctx, id); err != nil {
		respondError(ctx, w, err, "failed to delete friend")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "friend deleted"})
}

// ListSessions handles GET /api/friends/{friendId}/sessions.
func (h FriendHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.existingFriend(w, r)
	if !ok {
		return
	}

	list, err := h.Sessions.GetByParticipant(ctx, id)
	if err != nil {
		respondError(ctx, w, err, "failed to list sessions")
		return
	}
	respondJSON(ctx, w, http.StatusOK, nonNil(list))
}

// ListInvitations handles GET /api/friends/{friendId}/invitations. With
// pending=true only unexpired pending invitations are returned.
func (h FriendHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.existingFriend(w, r)
	if !ok {
		return
	}

	pending, _ := strconv.ParseBool(r.URL.Query().Get("pending"))

	var (
		list []models.FriendInvitation
		err  error
	)
	if pending {
		list, err = h.Invitations.GetPending(ctx, id)
	} else {
		list, err = h.Invitations.GetByInvitedFriend(ctx, id)
	}
	if err != nil {
		respondError(ctx, w, err, "failed to list invitations")
		return
	}
	respondJSON(ctx, w, http.StatusOK, nonNil(list))
}

// ListSentInvitations handles GET /api/friends/{friendId}/invitations/sent.
func (h FriendHandler) ListSentInvitations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.existingFriend(w, r)
	if !ok {
		return
	}

	list, err := h.Invitations.GetByInviter(ctx, id)
	if err != nil {
		respondError(ctx, w, err, "failed to list invitations")
		return
	}
	respondJSON(ctx, w, http.StatusOK, nonNil(list))
}

func (h FriendHandler) existingFriend(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := pathID(w, r, "friendId")
	if !ok {
		return 0, false
	}
	if _, err := h.Friends.Get(r.Context(), id); err != nil {
		respondError(r.Context(), w, err, "failed to load friend")
		return 0, false
	}
	return id, true
}
