package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nisser/internal/handler"
	"nisser/internal/httputil"
	authmw "nisser/internal/transport/http/middleware"
)

// RateLimitRule is a fixed-window limit applied to a route group.
type RateLimitRule struct {
	Limit  int
	Window time.Duration
}

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	FollowHandler       *handler.FollowHandler
	NotificationHandler *handler.NotificationHandler
	InviteHandler       *handler.InviteHandler
	ReviewHandler       *handler.ReviewHandler
	CommentHandler      *handler.CommentHandler
	FeedPostHandler     *handler.FeedPostHandler
	MediaHandler        *handler.MediaHandler
	PreferenceHandler   *handler.PreferenceHandler

	JWTSecret   string
	Limiter     authmw.WindowLimiter
	AuthLimit   RateLimitRule
	InviteLimit RateLimitRule
	Logger      *zap.Logger
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(authmw.RequestLogger(cfg.Logger.Named("http")))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	limit := func(name string, rule RateLimitRule) func(http.Handler) http.Handler {
		return authmw.RateLimit(cfg.Limiter, name, rule.Limit, rule.Window, cfg.Logger.Named("ratelimit"))
	}

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Use(limit("auth", cfg.AuthLimit))
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/logout", cfg.AuthHandler.Logout)
	})
	r.With(limit("invite_validate", cfg.InviteLimit)).Post("/invites/validate", cfg.InviteHandler.Validate)
	r.Get("/preferences", cfg.PreferenceHandler.List)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Route("/follow", func(r chi.Router) {
			r.Post("/request", cfg.FollowHandler.SubmitRequest)
			r.Post("/respond", cfg.FollowHandler.Respond)
			r.Get("/status/{id}", cfg.FollowHandler.Status)
			r.Get("/request/status/{id}", cfg.FollowHandler.RequestStatus)
			r.Get("/suggestions", cfg.FollowHandler.Suggestions)
			r.Get("/requests", cfg.FollowHandler.PendingRequests)
			r.Get("/followers", cfg.FollowHandler.Followers)
			r.Get("/following", cfg.FollowHandler.Following)
			r.Delete("/{id}", cfg.FollowHandler.Unfollow)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Get("/unread-count", cfg.NotificationHandler.UnreadCount)
			r.Post("/read", cfg.NotificationHandler.MarkRead)
			r.Post("/read-all", cfg.NotificationHandler.MarkAllRead)
		})

		r.With(limit("invite_generate", cfg.InviteLimit)).Post("/invites/generate", cfg.InviteHandler.Generate)

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", cfg.ReviewHandler.Create)
			r.Get("/feed", cfg.ReviewHandler.Feed)
			r.Get("/user/{id}", cfg.ReviewHandler.ListByUser)
			r.Post("/useful", cfg.ReviewHandler.ToggleUseful)
			r.Get("/useful/status/{id}", cfg.ReviewHandler.UsefulStatus)

			r.Get("/comments", cfg.CommentHandler.List)
			r.Post("/comments", cfg.CommentHandler.Create)
			r.Put("/comments/{id}", cfg.CommentHandler.Update)
			r.Delete("/comments/{id}", cfg.CommentHandler.Delete)

			r.Get("/{id}", cfg.ReviewHandler.Get)
			r.Put("/{id}", cfg.ReviewHandler.Update)
			r.Delete("/{id}", cfg.ReviewHandler.Delete)
		})

		r.Route("/feed/posts", func(r chi.Router) {
			r.Get("/", cfg.FeedPostHandler.List)
			r.Post("/", cfg.FeedPostHandler.Create)
			r.Delete("/{id}", cfg.FeedPostHandler.Delete)
		})

		r.Route("/user", func(r chi.Router) {
			r.Put("/", cfg.UserHandler.UpdateProfile)
			r.Get("/search", cfg.UserHandler.Search)
			r.Get("/progress", cfg.UserHandler.Progress)
			r.Post("/complete-onboarding", cfg.UserHandler.CompleteOnboarding)
			r.Get("/{id}", cfg.UserHandler.GetProfile)
		})

		r.Post("/upload", cfg.MediaHandler.Upload)
	})

	return r
}
