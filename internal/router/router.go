package router

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5"
	"github.com/pedezap/api/internal/cart"
	"github.com/pedezap/api/internal/cep"
	"github.com/pedezap/api/internal/checkout"
	"github.com/pedezap/api/internal/config"
	"github.com/pedezap/api/internal/database"
	"github.com/pedezap/api/internal/enum"
	"github.com/pedezap/api/internal/handler"
	mw "github.com/pedezap/api/internal/middleware"
	"github.com/pedezap/api/internal/ws"
)

// New creates a Chi router with all application routes wired up: the public
// storefront under /establishments/{slug} and the JWT-protected admin API
// under /admin/establishments/{eid}.
func New(cfg *config.Config, queries *database.Queries, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-ID"},
		ExposedHeaders:   []string{"X-Session-ID"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// CEP lookup (public, used by the address form)
	cepHandler := handler.NewCEPHandler(cep.NewClient(cfg.CEPBaseURL))
	cepHandler.RegisterRoutes(r)

	// Shared in-memory state for storefront visitors.
	carts := cart.NewStore()
	sessions := checkout.NewMemoryStore()
	controller := checkout.NewController(sessions, queries)

	// WebSocket route: tracking pages subscribe to their establishment's
	// order status events. Public, like the tracking page itself.
	r.Get("/ws/establishments/{slug}/orders", func(w http.ResponseWriter, r *http.Request) {
		est, err := queries.GetEstablishmentBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				http.Error(w, "estabelecimento não encontrado", http.StatusNotFound)
				return
			}
			log.Printf("ERROR: get establishment for ws: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		ws.ServeWS(hub, est.ID, w, r)
	})

	// Storefront routes (public, session-scoped via X-Session-ID)
	r.Route("/establishments/{slug}", func(r chi.Router) {
		menuHandler := handler.NewMenuHandler(queries)
		menuHandler.RegisterRoutes(r)

		cartHandler := handler.NewCartHandler(carts, queries)
		r.Route("/cart", cartHandler.RegisterRoutes)

		checkoutHandler := handler.NewCheckoutHandler(controller, carts, queries)
		r.Route("/checkout", checkoutHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(queries, hub)
		orderHandler.RegisterPublicRoutes(r)
	})

	// Admin routes (require authentication and establishment membership)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/admin/establishments/{eid}", func(r chi.Router) {
			r.Use(mw.RequireEstablishment)

			orderHandler := handler.NewOrderHandler(queries, hub)
			orderHandler.RegisterAdminRoutes(r)

			comboHandler := handler.NewComboHandler(queries)
			comboHandler.RegisterRoutes(r)

			auditHandler := handler.NewAuditHandler(queries)
			auditHandler.RegisterRoutes(r)

			// Team management is restricted to owners and managers.
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
				teamHandler := handler.NewTeamHandler(queries)
				teamHandler.RegisterRoutes(r)
			})
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
