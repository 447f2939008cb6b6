package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/sessions"
)

// ParticipantHandler serves the endpoints managing who takes part in a session.
type ParticipantHandler struct {
	Coordinator SessionCoordinator
	limit       requestLimiter

	validate *validator.Validate
}

type addFriendRequest struct {
	FriendID int    `json:"friendId" validate:"required,gt=0"`
	Status   string `json:"status"`
	Message  string `json:"message" validate:"max=500"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type participantResponse struct {
	Friend   models.Friend            `json:"friend"`
	Status   models.ParticipantStatus `json:"status"`
	JoinedAt time.Time                `json:"joinedAt"`
	IsActive bool                     `json:"isActive"`
}

func toParticipantResponse(p sessions.Participant) participantResponse {
	return participantResponse{Friend: p.Friend, Status: p.Status, JoinedAt: p.JoinedAt, IsActive: p.IsActive}
}

// List handles GET /api/sessions/{sessionId}/friends.
func (h ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	participants, err := h.Coordinator.ListParticipants(r.Context(), sessionID)
	if err != nil {
		respondError(r.Context(), w, err, "failed to list participants")
		return
	}

	resp := make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		resp = append(resp, toParticipantResponse(p))
	}
	respondJSON(r.Context(), w, http.StatusOK, resp)
}

// Add handles POST /api/sessions/{sessionId}/friends.
func (h ParticipantHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "participants:add") {
		tooManyRequests(ctx, w)
		return
	}
	sessionID, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	var req addFriendRequest
	if !decodeAndValidate(h.validate, w, r, &req) {
		return
	}

	var status models.ParticipantStatus
	if req.Status != "" {
		parsed, err := models.ParseParticipantStatus(req.Status)
		if err != nil {
			respondError(ctx, w, sessions.ErrInvalidStatus, "invalid status")
			return
		}
		status = parsed
	}

	participant, err := h.Coordinator.AddFriend(ctx, sessionID, sessions.AddFriendInput{
		FriendID: req.FriendID,
		Status:   status,
		Message:  req.Message,
	})
	if err != nil {
		respondError(ctx, w, err, "failed to add friend to session")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, toParticipantResponse(participant))
}

// Count handles GET /api/sessions/{sessionId}/friends/count.
func (h ParticipantHandler) Count(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	count, err := h.Coordinator.CountActive(r.Context(), sessionID)
	if err != nil {
		respondError(r.Context(), w, err, "failed to count participants")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, map[string]int{
		"sessionId":          sessionID,
		"activeParticipants": count,
	})
}

// UpdateStatus handles PUT /api/sessions/{sessionId}/friends/{friendId}/status.
func (h ParticipantHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "participants:status") {
		tooManyRequests(ctx, w)
		return
	}
	sessionID, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "friendId")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !decodeAndValidate(h.validate, w, r, &req) {
		return
	}
	status, err := models.ParseParticipantStatus(req.Status)
	if err != nil {
		respondError(ctx, w, sessions.ErrInvalidStatus, "invalid status")
		return
	}

	participant, err := h.Coordinator.UpdateFriendStatus(ctx, sessionID, friendID, status)
	if err != nil {
		respondError(ctx, w, err, "failed to update participant status")
		return
	}
	respondJSON(ctx, w, http.StatusOK, participant)
}

// Remove handles DELETE /api/sessions/{sessionId}/friends/{friendId}.
func (h ParticipantHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.limit.allow(r, "participants:remove") {
		tooManyRequests(ctx, w)
		return
	}
	sessionID, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "friendId")
	if !ok {
		return
	}

	if err := h.Coordinator.RemoveFriend(ctx, sessionID, friendID); err != nil {
		respondError(ctx, w, err, "failed to remove friend from session")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "friend removed from session"})
}
