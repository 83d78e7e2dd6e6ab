package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/YeyeJames/jiale15/internal/backup"
	"github.com/YeyeJames/jiale15/internal/catalog"
	"github.com/YeyeJames/jiale15/internal/iam"
	"github.com/YeyeJames/jiale15/internal/reporting"
	"github.com/YeyeJames/jiale15/internal/scheduling"
	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/config"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/monitoring"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// APIPrefix is the mount point of the JSON API
const APIPrefix = "/api/v1"

// Services are the components served over HTTP
type Services struct {
	IAM        *iam.Service
	Catalog    *catalog.Service
	Scheduling *scheduling.Service
	Reporting  *reporting.Service
	Backup     *backup.Service
}

// Server is the clinic HTTP server
type Server struct {
	config     *config.Config
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	logger     *logger.Logger
	metrics    *monitoring.MetricsCollector
	tracing    *monitoring.TracingManager
	health     *monitoring.HealthManager
}

// New builds the router. metrics, tracing and health may be nil.
func New(cfg *config.Config, svc Services, log *logger.Logger, metrics *monitoring.MetricsCollector, tracing *monitoring.TracingManager, health *monitoring.HealthManager) *Server {
	s := &Server{
		config:  cfg,
		router:  mux.NewRouter(),
		logger:  log,
		metrics: metrics,
		tracing: tracing,
		health:  health,
	}
	s.setupRoutes(svc)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:         600,
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return s
}

func (s *Server) setupRoutes(svc Services) {
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(securityHeadersMiddleware)
	if s.tracing != nil {
		s.router.Use(s.tracing.HTTPMiddleware)
	}
	if s.metrics != nil {
		s.router.Use(s.metrics.HTTPMiddleware)
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, r, s.logger, types.NewNotFoundError(types.ErrCodeNotFound, "route not found"))
	})

	if s.health != nil {
		s.router.Handle(s.config.Monitoring.HealthPath, s.health.HTTPHandler()).Methods("GET")
	}
	if s.metrics != nil && s.config.Monitoring.Enabled {
		s.router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
	}

	apiRouter := s.router.PathPrefix(APIPrefix).Subrouter()
	svc.IAM.RegisterLoginRoute(apiRouter)

	secured := apiRouter.NewRoute().Subrouter()
	secured.Use(iam.AuthMiddleware(svc.IAM.Tokens(), s.logger))
	adminOnly := iam.RequireRole(s.logger, types.RoleAdmin)

	svc.IAM.RegisterRoutes(secured, adminOnly)
	svc.Catalog.RegisterRoutes(secured, adminOnly)
	svc.Scheduling.RegisterRoutes(secured, adminOnly)
	svc.Reporting.RegisterRoutes(secured, adminOnly)
	svc.Backup.RegisterRoutes(secured)
}

// requestLoggingMiddleware tags each request with an id and logs it
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), logger.RequestIDKey, requestID)

		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r.WithContext(ctx))

		s.logger.HTTPRequest(ctx, r.Method, r.URL.Path, r.UserAgent(), r.RemoteAddr,
			wrapper.statusCode, time.Since(start).Milliseconds(), nil)
	})
}

// securityHeadersMiddleware keeps browsers from sniffing, framing or
// caching responses that carry patient data
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// Handler returns the complete handler chain, CORS included
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains open requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
