package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/sessions"
)

// InvitationHandler serves the session invitation endpoints.
type InvitationHandler struct {
	Coordinator SessionCoordinator
	Invitations InvitationQueries
	limit       requestLimiter

	validate *validator.Validate
}

type createInvitationRequest struct {
	FriendID    int        `json:"friendId" validate:"required,gt=0"`
	InvitedByID int        `json:"invitedById" validate:"required,gt=0"`
	Message     string     `json:"message" validate:"max=500"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

type respondInvitationRequest struct {
	Status string `json:"status" validate:"required"`
}

// List handles GET /api/invitations.
func (h InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Invitations.GetAll(r.Context())
	if err != nil {
		respondError(r.Context(), w, err, "failed to list invitations")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(list))
}

// ListBySession handles GET /api/sessions/{sessionId}/invitations.
func (h InvitationHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	if _, err := h.Coordinator.GetSession(ctx, sessionID); err != nil {
		respondError(ctx, w, err, "failed to load session")
		return
	}
	list, err := h.Invitations.GetBySession(ctx, sessionID)
	if err != nil {
		respondError(ctx, w, err, "failed to list invitations")
		return
	}
	respondJSON(ctx, w, http.StatusOK, nonNil(list))
}

// Get handles GET /api/invitations/{invitationId}.
func (h InvitationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invitationId")
	if !ok {
		return
	}
	inv, err := h.Invitations.GetByID(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err, "failed to load invitation")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, inv)
}

// Create handles POST /api/sessions/{sessionId}/invitations.
func (h InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "invitations:create") {
		tooManyRequests(ctx, w)
		return
	}
	sessionID, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	var req createInvitationRequest
	if !decodeAndValidate(h.validate, w, r, &req) {
		return
	}

	in := sessions.InviteInput{
		FriendID:    req.FriendID,
		InvitedByID: req.InvitedByID,
		Message:     req.Message,
	}
	if req.ExpiresAt != nil {
		in.ExpiresAt = *req.ExpiresAt
	}

	inv, err := h.Coordinator.InviteFriend(ctx, sessionID, in)
	if err != nil {
		respondError(ctx, w, err, "failed to create invitation")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, inv)
}

// Respond handles POST /api/invitations/{invitationId}/respond.
func (h InvitationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "invitations:respond") {
		tooManyRequests(ctx, w)
		return
	}
	id, ok := pathID(w, r, "invitationId")
	if !ok {
		return
	}

	var req respondInvitationRequest
	if !decodeAndValidate(h.validate, w, r, &req) {
		return
	}
	status, err := models.ParseInvitationStatus(req.Status)
	if err != nil {
		respondError(ctx, w, sessions.ErrInvalidResponse, "invalid response")
		return
	}

	inv, err := h.Coordinator.RespondToInvitation(ctx, id, status)
	if err != nil {
		respondError(ctx, w, err, "failed to respond to invitation")
		return
	}
	respondJSON(ctx, w, http.StatusOK, inv)
}

// Cancel handles POST /api/invitations/{invitationId}/cancel.
func (h InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "invitations:cancel") {
		tooManyRequests(ctx, w)
		return
	}
	id, ok := pathID(w, r, "invitationId")
	if !ok {
		return
	}

	inv, err := h.Coordinator.CancelInvitation(ctx, id)
	if err != nil {
		respondError(ctx, w, err, "failed to cancel invitation")
		return
	}
	respondJSON(ctx, w, http.StatusOK, inv)
}

// Delete handles DELETE /api/invitations/{invitationId}.
func (h InvitationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "invitations:delete") {
		tooManyRequests(ctx, w)
		return
	}
	id, ok := pathID(w, r, "invitationId")
	if !ok {
		return
	}

	if err := h.Invitations.Delete(ctx, id); err != nil {
		respondError(ctx, w, err, "failed to delete invitation")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "invitation deleted"})
}

// Sweep handles POST /api/invitations/sweep.
func (h InvitationHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	expired, err := h.Coordinator.SweepExpired(ctx)
	if err != nil {
		respondError(ctx, w, err, "failed to sweep invitations")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]int{"expired": expired})
}
