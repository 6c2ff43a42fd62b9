package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mysticbob/nochickenleftbehind/internal/database"
	mw "github.com/mysticbob/nochickenleftbehind/internal/middleware"
	inats "github.com/mysticbob/nochickenleftbehind/internal/nats"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Auth and account handlers
	Register      http.HandlerFunc
	Login         http.HandlerFunc
	Refresh       http.HandlerFunc
	Logout        http.HandlerFunc
	GetProfile    http.HandlerFunc
	UpdateProfile http.HandlerFunc

	// Recipe handlers
	CreateRecipe              http.HandlerFunc
	ListRecipes               http.HandlerFunc
	GetRecipe                 http.HandlerFunc
	UpdateRecipe              http.HandlerFunc
	DeleteRecipe              http.HandlerFunc
	SimilarRecipes            http.HandlerFunc
	RateRecipe                http.HandlerFunc
	RecipeOwnershipMiddleware func(http.Handler) http.Handler

	// Pantry handlers
	CreatePantryItem   http.HandlerFunc
	ListPantry         http.HandlerFunc
	ListExpiringPantry http.HandlerFunc
	UpdatePantryItem   http.HandlerFunc
	DeletePantryItem   http.HandlerFunc

	// Grocery handlers
	CreateGroceryList http.HandlerFunc
	ListGroceryLists  http.HandlerFunc
	GetGroceryList    http.HandlerFunc
	DeleteGroceryList http.HandlerFunc
	AddGroceryItem    http.HandlerFunc
	CheckGroceryItem  http.HandlerFunc
	DeleteGroceryItem http.HandlerFunc
	RegenerateGrocery http.HandlerFunc

	// Meal plan handlers
	CreateMealPlan http.HandlerFunc
	ListMealPlans  http.HandlerFunc
	GetMealPlan    http.HandlerFunc
	UpdateMealPlan http.HandlerFunc
	DeleteMealPlan http.HandlerFunc

	// Assistant handlers
	Chat              http.HandlerFunc
	Suggestions       http.HandlerFunc
	AssistantContext  http.HandlerFunc
	SetPreference     http.HandlerFunc
	GetAssistantState http.HandlerFunc
	SetAssistantState http.HandlerFunc

	// Tool handlers
	ListTools http.HandlerFunc
	CallTool  http.HandlerFunc

	// Billing handlers
	GetSubscription    http.HandlerFunc
	ChangeSubscription http.HandlerFunc

	// Audit handlers
	ListAuditLogs http.HandlerFunc

	// Auth middleware
	AuthMiddleware func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	AuthRateLimiter    func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, natsClient *inats.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe — always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe — checks DB and NATS
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"nats":     "healthy",
		}

		status := http.StatusOK

		if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if natsClient != nil && !natsClient.Healthy() {
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if natsClient == nil {
			health["nats"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public) — optionally rate-limited
		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthRateLimiter != nil {
				r.Use(cfg.AuthRateLimiter)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)
				r.Post("/logout", h.Logout)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", h.GetProfile)
				r.Put("/profile", h.UpdateProfile)
			})

			r.Route("/recipes", func(r chi.Router) {
				r.Post("/", h.CreateRecipe)
				r.Get("/", h.ListRecipes)

				r.Route("/{recipeID}", func(r chi.Router) {
					r.Use(h.RecipeOwnershipMiddleware)
					r.Get("/", h.GetRecipe)
					r.Put("/", h.UpdateRecipe)
					r.Delete("/", h.DeleteRecipe)
					r.Get("/similar", h.SimilarRecipes)
					r.Post("/rating", h.RateRecipe)
				})
			})

			r.Route("/pantry", func(r chi.Router) {
				r.Post("/", h.CreatePantryItem)
				r.Get("/", h.ListPantry)
				r.Get("/expiring", h.ListExpiringPantry)
				r.Put("/{itemID}", h.UpdatePantryItem)
				r.Delete("/{itemID}", h.DeletePantryItem)
			})

			r.Route("/grocery-lists", func(r chi.Router) {
				r.Post("/", h.CreateGroceryList)
				r.Get("/", h.ListGroceryLists)

				r.Route("/{listID}", func(r chi.Router) {
					r.Get("/", h.GetGroceryList)
					r.Delete("/", h.DeleteGroceryList)
					r.Post("/items", h.AddGroceryItem)
					r.Put("/items/{itemID}", h.CheckGroceryItem)
					r.Delete("/items/{itemID}", h.DeleteGroceryItem)
					r.Post("/regenerate", h.RegenerateGrocery)
				})
			})

			r.Route("/meal-plans", func(r chi.Router) {
				r.Post("/", h.CreateMealPlan)
				r.Get("/", h.ListMealPlans)
				r.Get("/{planID}", h.GetMealPlan)
				r.Put("/{planID}", h.UpdateMealPlan)
				r.Delete("/{planID}", h.DeleteMealPlan)
			})

			r.Route("/assistant", func(r chi.Router) {
				r.Post("/chat", h.Chat)
				r.Get("/suggestions", h.Suggestions)
				r.Get("/context", h.AssistantContext)
				r.Put("/preferences", h.SetPreference)
				r.Get("/state", h.GetAssistantState)
				r.Put("/state", h.SetAssistantState)
			})

			r.Route("/tools", func(r chi.Router) {
				r.Get("/", h.ListTools)
				r.Post("/{name}", h.CallTool)
			})

			r.Route("/billing", func(r chi.Router) {
				r.Get("/subscription", h.GetSubscription)
				r.Post("/subscription", h.ChangeSubscription)
			})

			r.Get("/audit", h.ListAuditLogs)
		})
	})

	return r
}
