package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

type inviteService interface {
	Generate(ctx context.Context, inviterID int64) (*model.GeneratedInvite, error)
	Validate(ctx context.Context, code string) (*model.InviteValidation, error)
}

type InviteHandler struct {
	invites inviteService
	log     *zap.Logger
}

func NewInviteHandler(invites inviteService, log *zap.Logger) *InviteHandler {
	return &InviteHandler{
		invites: invites,
		log:     log.Named("invite"),
	}
}

// Generate mints a fresh invite link for the caller.
// POST /invites/generate
func (h *InviteHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	invite, err := h.invites.Generate(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err, "generate invite")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, invite)
}

// Validate checks a code before sign-up and shows who sent it.
// POST /invites/validate
func (h *InviteHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateInviteRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.invites.Validate(r.Context(), req.Code)
	if errors.Is(err, model.ErrInviteInvalid) {
		httputil.WriteBadRequest(w, "Invalid or expired invite code")
		return
	}
	if err != nil {
		writeError(w, h.log, err, "validate invite")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
