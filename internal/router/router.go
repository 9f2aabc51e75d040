package router

import (
	"net/http"

	"github.com/fruteira-pos/terminal/internal/catalog"
	"github.com/fruteira-pos/terminal/internal/checkout"
	"github.com/fruteira-pos/terminal/internal/config"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/handler"
	mw "github.com/fruteira-pos/terminal/internal/middleware"
	"github.com/fruteira-pos/terminal/internal/scale"
	"github.com/fruteira-pos/terminal/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the collaborators the terminal routes are built on.
type Deps struct {
	Catalog  *catalog.Loader
	Workflow *checkout.Workflow
	Scale    scale.Reader
	Hub      *ws.Hub
	// Operators enables POST /auth/login. Nil when tokens are issued by the
	// sales backend.
	Operators handler.OperatorStore
	Logger    *zap.Logger
}

// New creates a Chi router with all terminal routes wired up.
// Applies authentication, terminal scoping, and role-based middleware as needed.
func New(cfg *config.Config, d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	if d.Operators != nil {
		handler.NewAuthHandler(d.Operators, cfg.JWTSecret, cfg.TerminalID).RegisterRoutes(r)
	}

	// Customer display (handles auth internally via query param)
	r.Get("/ws/terminals/{tid}/display", ws.DisplayHandler(d.Hub, cfg.JWTSecret, cfg.CORSOrigins))

	// Protected routes, scoped to this terminal
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireTerminal(cfg.TerminalID))

		catalogHandler := handler.NewCatalogHandler(d.Catalog)
		r.Route("/catalog", func(r chi.Router) {
			catalogHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleOperator))
				catalogHandler.RegisterReloadRoutes(r)
			})
		})

		r.Route("/cart", handler.NewCartHandler(d.Workflow, d.Catalog).RegisterRoutes)
		r.Route("/payment", handler.NewPaymentHandler(d.Workflow).RegisterRoutes)
		r.Route("/checkout", handler.NewCheckoutHandler(d.Workflow).RegisterRoutes)
		r.Route("/scale", handler.NewScaleHandler(d.Scale).RegisterRoutes)
	})

	if d.Logger != nil {
		d.Logger.Info("router initialized",
			zap.String("terminal_id", cfg.TerminalID.String()),
			zap.Bool("local_login", d.Operators != nil),
		)
	}
	return r
}
