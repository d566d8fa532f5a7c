package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/quillpost/server/internal/http/handlers"
	"github.com/quillpost/server/internal/middleware"
	"github.com/quillpost/server/internal/model"
)

// AuthService is the login flow plus the access token check
type AuthService interface {
	handlers.AuthService
	middleware.Authenticator
}

// Services are the application services exposed over HTTP
type Services struct {
	Auth     AuthService
	Users    handlers.UsersService
	Category handlers.CategoryService
	Blog     handlers.BlogService
	Files    handlers.FileService
}

// Options tune the router
type Options struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
	// UploadDir is served under /uploads when local storage is in use
	UploadDir string
	// AuthRateLimit caps /auth requests per client IP per AuthRateWindow
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(svc Services, opts Options) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AuthRateLimit <= 0 {
		opts.AuthRateLimit = 10
	}
	if opts.AuthRateWindow <= 0 {
		opts.AuthRateWindow = 10 * time.Minute
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	if opts.UploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir)))
		r.With(inertDownload).Get("/uploads/*", fs.ServeHTTP)
	}

	authHandler := handlers.NewAuthHandler(svc.Auth)
	usersHandler := handlers.NewUsersHandler(svc.Users)
	categoryHandler := handlers.NewCategoryHandler(svc.Category)
	blogHandler := handlers.NewBlogHandler(svc.Blog)
	filesHandler := handlers.NewFilesHandler(svc.Files)

	authLimiter := middleware.NewRateLimiter(opts.AuthRateWindow, opts.AuthRateLimit)
	requireAuth := middleware.AuthMiddleware(svc.Auth)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(authLimiter, middleware.GetIPKey))
		r.Post("/user-existence", authHandler.HandleUserExistence)
		r.Post("/check-otp", authHandler.HandleCheckOtp)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/profile", usersHandler.GetProfile)
		r.Put("/profile", usersHandler.UpdateProfile)
		r.Patch("/change-username", usersHandler.ChangeUsername)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/block", usersHandler.ToggleBlock)
			r.Get("/", usersHandler.List)
			r.Get("/{id}", usersHandler.Get)
		})
	})

	r.Route("/category", func(r chi.Router) {
		r.Get("/", categoryHandler.List)
		r.Get("/{id}", categoryHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, adminOnly)
			r.Post("/", categoryHandler.Create)
			r.Patch("/{id}", categoryHandler.Update)
			r.Delete("/{id}", categoryHandler.Delete)
		})
	})

	r.Route("/blog", func(r chi.Router) {
		r.Get("/", blogHandler.List)

		// Protected routes (require valid access token)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", blogHandler.Create)
			r.Get("/my", blogHandler.Mine)
			r.Get("/like/{id}", blogHandler.ToggleLike)
			r.Get("/bookmark/{id}", blogHandler.ToggleBookmark)
			r.Patch("/{id}", blogHandler.Update)
			r.Delete("/{id}", blogHandler.Delete)
		})

		r.Get("/{id}", blogHandler.Get)
	})

	r.Route("/blog-comment", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", blogHandler.CreateComment)
		r.Get("/", blogHandler.ListComments)
	})

	r.Route("/file-manager", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/upload", filesHandler.Upload)
		r.Get("/", filesHandler.List)
		r.Get("/{id}", filesHandler.Get)
		r.Delete("/{id}", filesHandler.Delete)
	})

	return r
}

// inertDownload keeps user uploads from rendering as active content on the
// API origin. Images still load through <img> tags.
func inertDownload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Content-Security-Policy", "default-src 'none'; sandbox")
		h.Set("Content-Disposition", "attachment")
		next.ServeHTTP(w, r)
	})
}
