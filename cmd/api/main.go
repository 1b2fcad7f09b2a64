package main

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"clinic-scheduling/internal/config"
	"clinic-scheduling/internal/middleware"
	"clinic-scheduling/internal/observability/metrics"
	"clinic-scheduling/internal/scheduler"
	"clinic-scheduling/internal/store"
)

type server struct {
	store   *store.MemoryStore
	engine  *scheduler.Engine
	metrics *metrics.Metrics
	log     zerolog.Logger
	seed    config.SeedConfig

	// scheduleMu serializes optimization batches against cancellations
	// and re-seeds so a batch always commits against the snapshot it
	// scored.
	scheduleMu sync.Mutex
}

func newServer(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) *server {
	st := store.NewMemoryStore()
	return &server{
		store:   st,
		engine:  scheduler.NewEngine(st, st, log),
		metrics: m,
		log:     log,
		seed:    cfg.Seed,
	}
}

func (s *server) routes(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", s.handleCreatePatient)
		r.Get("/", s.handleListPatients)
		r.Get("/{id}", s.handleGetPatient)
		r.Put("/{id}", s.handleUpdatePatient)
		r.Delete("/{id}", s.handleDeletePatient)
	})

	r.Route("/medical", func(r chi.Router) {
		r.Post("/diagnoses", s.handleCreateDiagnosis)
		r.Get("/diagnoses", s.handleListDiagnoses)
		r.Get("/diagnoses/{id}", s.handleGetDiagnosis)
		r.Post("/cpt-codes", s.handleCreateCPTCode)
		r.Get("/cpt-codes", s.handleListCPTCodes)
		r.Get("/cpt-codes/{id}", s.handleGetCPTCode)
		r.Post("/patient-diagnoses", s.handleCreatePatientDiagnosis)
		r.Get("/patient-diagnoses", s.handleListPatientDiagnoses)
		r.Post("/patient-procedures", s.handleCreatePatientProcedure)
		r.Get("/patient-procedures", s.handleListPatientProcedures)
	})

	r.Route("/resources", func(r chi.Router) {
		r.Post("/", s.handleCreateResource)
		r.Get("/", s.handleListResources)
		r.Get("/{id}", s.handleGetResource)
		r.Put("/{id}", s.handleUpdateResource)
		r.Delete("/{id}", s.handleDeleteResource)
	})

	r.Post("/time-slots", s.handleCreateTimeSlot)
	r.Get("/time-slots", s.handleListTimeSlots)

	r.Post("/scheduling/optimize", s.handleOptimize)

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", s.handleListAppointments)
		r.Get("/{id}", s.handleGetAppointment)
		r.Post("/{id}/cancel", s.handleCancelAppointment)
		r.Post("/{id}/complete", s.handleCompleteAppointment)
	})

	r.Post("/admin/seed", s.handleSeed)
	r.Get("/search", s.handleActiveSearch)

	return r
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", "clinic-api").
		Logger()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	srv := newServer(cfg, log, m)

	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		log.Fatal().Err(err).Msg("compression adapter")
	}

	handler := middleware.RequestLogger(log)(
		middleware.CORS(cfg.CORS.AllowedOrigins)(
			compress(srv.routes(reg))))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("api server started")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}
