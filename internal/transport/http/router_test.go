package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nisser/internal/handler"
	"nisser/internal/model"
	"nisser/internal/redis"
)

const routerSecret = "router-test-secret"

type fakePreferences struct{}

func (fakePreferences) List(ctx context.Context) ([]model.Preference, error) {
	return []model.Preference{{ID: 1, Name: "Step-free entrance"}}, nil
}

// newTestRouter wires handlers without services, except the static preference
// catalog. Other requests used here are rejected by middleware or validation
// before any service call.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	limiter := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = limiter.Close() })

	log := zap.NewNop()
	return NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(nil, nil, false, log),
		UserHandler:         handler.NewUserHandler(nil, nil, log),
		FollowHandler:       handler.NewFollowHandler(nil, log),
		NotificationHandler: handler.NewNotificationHandler(nil, log),
		InviteHandler:       handler.NewInviteHandler(nil, log),
		ReviewHandler:       handler.NewReviewHandler(nil, log),
		CommentHandler:      handler.NewCommentHandler(nil, log),
		FeedPostHandler:     handler.NewFeedPostHandler(nil, log),
		MediaHandler:        handler.NewMediaHandler(nil, log),
		PreferenceHandler:   handler.NewPreferenceHandler(fakePreferences{}, log),
		JWTSecret:           routerSecret,
		Limiter:             limiter,
		AuthLimit:           RateLimitRule{Limit: 2, Window: time.Minute},
		InviteLimit:         RateLimitRule{Limit: 2, Window: time.Minute},
		Logger:              log,
	})
}

func bearer(t *testing.T, userID int64) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(routerSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nisser_http_request_duration_seconds")
}

func TestRouter_PreferencesArePublic(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preferences", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Step-free entrance")
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/follow/request"},
		{http.MethodGet, "/follow/followers"},
		{http.MethodDelete, "/follow/3"},
		{http.MethodGet, "/notifications"},
		{http.MethodPost, "/invites/generate"},
		{http.MethodPost, "/reviews"},
		{http.MethodGet, "/reviews/feed"},
		{http.MethodGet, "/reviews/comments"},
		{http.MethodPost, "/feed/posts"},
		{http.MethodPut, "/user"},
		{http.MethodGet, "/user/progress"},
		{http.MethodPost, "/upload"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.method+" "+route.path)
	}
}

func TestRouter_AuthenticatedRequestReachesHandler(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/follow/status/not-a-number", nil)
	req.Header.Set("Authorization", bearer(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AuthRoutesAreRateLimited(t *testing.T) {
	router := newTestRouter(t)

	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{}`))
		req.RemoteAddr = "192.0.2.10:4000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, login())
	assert.Equal(t, http.StatusBadRequest, login())
	assert.Equal(t, http.StatusTooManyRequests, login())
}
