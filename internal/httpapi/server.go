package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swupdate/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Status() types.StatusResponse
	Ready() bool
	// Update asks the waiting worker to activate; false means there was
	// nothing to activate.
	Update() (bool, error)
	// Check re-reads the worker script and installs a new candidate if it changed.
	Check(ctx context.Context) (types.CheckResponse, error)
	Events(ctx context.Context, limit int) ([]types.EventRecord, error)
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(inflightMiddleware)

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.Status())
		})

		r.Post("/update", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sent, err := svc.Update()
			if err != nil {
				status := statusFor(err)
				countActivation("error")
				writeJSONError(w, status, err.Error())
				logEnd(r, "update", status, start, err)
				return
			}
			resp := types.UpdateResponse{Sent: sent, Phase: svc.Status().Phase}
			status := http.StatusOK
			if sent {
				// the worker activates on its own; nothing to wait for here
				status = http.StatusAccepted
				countActivation("sent")
			} else {
				countActivation("noop")
			}
			writeJSON(w, status, resp)
			logEnd(r, "update", status, start, nil)
		})

		r.Post("/check", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			// Join server base context with request context so shutdown cancels work too.
			ctx, cancel := joinContexts(serverBaseCtx, r.Context())
			defer cancel()
			if checkTimeout > 0 {
				var cancelT context.CancelFunc
				ctx, cancelT = context.WithTimeout(ctx, checkTimeout)
				defer cancelT()
			}
			resp, err := svc.Check(ctx)
			if err != nil {
				// If the client went away there is nobody to answer.
				if r.Context().Err() != nil {
					return
				}
				status := statusFor(err)
				writeJSONError(w, status, err.Error())
				logEnd(r, "check", status, start, err)
				return
			}
			writeJSON(w, http.StatusOK, resp)
			logEnd(r, "check", http.StatusOK, start, nil)
		})

		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			limit := 0
			if v := r.URL.Query().Get("limit"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n < 0 {
					writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
					return
				}
				limit = n
			}
			events, err := svc.Events(r.Context(), limit)
			if err != nil {
				writeJSONError(w, statusFor(err), err.Error())
				return
			}
			writeJSON(w, http.StatusOK, types.EventsResponse{Events: events})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("registering"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	if swaggerEnabled {
		MountSwagger(r)
	}

	return r
}
