package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

type preferenceService interface {
	List(ctx context.Context) ([]model.Preference, error)
}

// PreferenceHandler serves the catalog of accessibility preferences that
// reviews are tagged with.
type PreferenceHandler struct {
	preferences preferenceService
	log         *zap.Logger
}

func NewPreferenceHandler(preferences preferenceService, log *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		preferences: preferences,
		log:         log.Named("preference"),
	}
}

// List returns every preference ordered by name.
// GET /preferences
func (h *PreferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.preferences.List(r.Context())
	if err != nil {
		writeError(w, h.log, err, "list preferences")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nonNil(prefs))
}
