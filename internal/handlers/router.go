package handlers

import (
	"net/http"
	"strings"

	"imagegen/internal/config"
	"imagegen/internal/middleware"
	"imagegen/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	cfg         config.Config
	generations GenerationService
	credits     CreditService
	reports     ReportService
	hub         *websocket.Hub
	log         *logrus.Logger
}

func New(cfg config.Config, generations GenerationService, credits CreditService, reports ReportService, hub *websocket.Hub, log *logrus.Logger) *Handler {
	return &Handler{
		cfg:         cfg,
		generations: generations,
		credits:     credits,
		reports:     reports,
		hub:         hub,
		log:         log,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(h.log))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(h.cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Route("/api", func(r chi.Router) {
		r.Post("/generations", h.CreateGeneration)
		r.Get("/generations/{id}", h.GetGeneration)
		r.Get("/credits", h.GetCredits)
		r.Post("/users", h.CreateUser)
		r.Get("/reports", h.ListReports)
		r.Post("/reports/run", h.RunReport)
	})
	router.Get("/ws/credits", h.WSCredits)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
