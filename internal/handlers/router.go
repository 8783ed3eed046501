package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	gorillaws "github.com/gorilla/websocket"

	"bankledger/internal/config"
	"bankledger/internal/middleware"
	"bankledger/internal/websocket"
)

type Handler struct {
	cfg          config.Config
	users        UserService
	accounts     AccountService
	transactions TransactionService
	admin        AdminStore
	audit        AuditStore
	hub          *websocket.Hub
	upgrader     *gorillaws.Upgrader
}

func New(cfg config.Config, users UserService, accounts AccountService, transactions TransactionService, admin AdminStore, audit AuditStore, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:          cfg,
		users:        users,
		accounts:     accounts,
		transactions: transactions,
		admin:        admin,
		audit:        audit,
		hub:          hub,
		upgrader:     websocket.NewUpgrader(cfg.AllowedOrigins),
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(h.cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	limit := h.cfg.AuthRateLimit
	if limit <= 0 {
		limit = 10
	}
	authLimiter := httprate.LimitByIP(limit, time.Minute)
	requireAuth := middleware.Auth(h.cfg.JWTSecret, h.admin)

	router.With(authLimiter).Post("/signup", h.Signup)
	router.Get("/activate/{uid}/{token}", h.Activate)
	router.With(authLimiter).Post("/login", h.Login)
	router.With(authLimiter).Post("/token/refresh", h.RefreshToken)
	router.Post("/logout", h.Logout)

	router.Route("/profile", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.GetProfile)
		r.Put("/", h.ReplaceProfile)
		r.Patch("/", h.PatchProfile)
		r.Delete("/", h.DeleteProfile)
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(requireAuth)
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/self-check", h.SelfCheck)
			r.Get("/{id}", h.GetAccount)
			r.Delete("/{id}", h.DeleteAccount)
		})
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Get("/export", h.ExportTransactions)
			r.Get("/{id}", h.GetTransaction)
			r.Put("/{id}", h.ReplaceTransaction)
			r.Patch("/{id}", h.PatchTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireStaff(h.admin))
		r.Get("/users", h.AdminListUsers)
		r.Patch("/users/{id}", h.AdminUpdateUser)
		r.Get("/audit", h.ListAuditLogs)
		r.Get("/reconcile", h.Reconcile)
	})

	router.Get("/ws/balances", h.WSBalances)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

func splitOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, "*")
	}
	return origins
}
