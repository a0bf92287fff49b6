package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sightlinehq/optishop-backend/api/controllers"
	workshopcontrollers "github.com/sightlinehq/optishop-backend/api/controllers/workshop"
	"github.com/sightlinehq/optishop-backend/api/middleware"
	"github.com/sightlinehq/optishop-backend/internal/vendors"
	"github.com/sightlinehq/optishop-backend/internal/workshop"
	"github.com/sightlinehq/optishop-backend/pkg/config"
	"github.com/sightlinehq/optishop-backend/pkg/logger"
	"github.com/sightlinehq/optishop-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database controllers.Pinger,
	cache controllers.Pinger,
	idempotencyStore redis.IdempotencyStore,
	statusTracker workshop.StatusTracker,
	coordinator workshop.Coordinator,
	vendorService vendors.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, database, cache))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Workshop.IdempotencyTTL, logg))

		r.Route("/workshop", func(r chi.Router) {
			r.Route("/orders", func(r chi.Router) {
				r.Post("/status-batch", workshopcontrollers.SetStatusBatch(statusTracker, cfg.Workshop, logg))
				r.Post("/batch/job-works", workshopcontrollers.AssignJobWorkBatch(coordinator, cfg.Workshop, logg))
				r.Post("/batch/damage", workshopcontrollers.MarkDamagedBatch(coordinator, cfg.Workshop, logg))

				r.Route("/{orderId}", func(r chi.Router) {
					r.Patch("/status", workshopcontrollers.SetStatus(statusTracker, logg))
					r.Post("/job-works", workshopcontrollers.AssignJobWork(coordinator, logg))
					r.Post("/damage", workshopcontrollers.MarkDamaged(coordinator, logg))
					r.Get("/fitting-eligibility", workshopcontrollers.FittingEligibility(coordinator, logg))
				})
			})

			r.Post("/job-works/{jobWorkId}/received", workshopcontrollers.MarkReceived(coordinator, logg))
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Get("/", controllers.VendorList(vendorService, logg))
			r.Post("/", controllers.VendorCreate(vendorService, logg))
			r.Get("/{vendorId}", controllers.VendorGet(vendorService, logg))
		})
	})

	return r
}
