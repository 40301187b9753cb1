package apiserver

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/authorsapi/profiles/internal/app/cache"
	"github.com/authorsapi/profiles/internal/app/metrics"
	"github.com/authorsapi/profiles/internal/app/notify"
	"github.com/authorsapi/profiles/internal/app/service"
	"github.com/authorsapi/profiles/internal/app/store/sqlstore"
	"github.com/gorilla/handlers"
	_ "github.com/lib/pq"
	"github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/middleware/http"
	httpreporter "github.com/openzipkin/zipkin-go/reporter/http"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type APIServer struct {
	config  *Config
	logger  *logrus.Logger
	closers []func() error
}

func New(conf *Config) *APIServer {
	return &APIServer{
		config: conf,
		logger: logrus.New(),
	}
}

func (s *APIServer) Start() error {
	if err := s.configureLogger(); err != nil {
		return err
	}

	if s.config.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}

	defer s.close()

	db, err := s.configureStore()
	if err != nil {
		return err
	}

	m := metrics.New()

	dispatcher, err := s.configureNotifier(m)
	if err != nil {
		return err
	}

	st := sqlstore.New(db)
	profiles := service.NewProfiles(st, s.configureCache(), s.logger, s.config.PageSize)
	graph := service.NewFollowGraph(st, dispatcher)
	srv := newServer(profiles, graph, m, s.logger, []byte(s.config.JWTSecret))

	handler, err := s.configureHandler(srv)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              s.config.BindAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.config.BindAddr).Info("starting api server")
		if s.config.TLSCert != "" && s.config.TLSKey != "" {
			serveErr <- server.ListenAndServeTLS(s.config.TLSCert, s.config.TLSKey)
			return
		}
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		s.logger.Info("shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Errorf("http shutdown: %v", err)
	}

	if err := dispatcher.Close(shutdownCtx); err != nil {
		s.logger.Warnf("notification queue not drained: %v", err)
	}

	return nil
}

func (s *APIServer) configureLogger() error {
	level, err := logrus.ParseLevel(s.config.LogLevel)
	if err != nil {
		return err
	}

	s.logger.SetLevel(level)

	return nil
}

func (s *APIServer) configureStore() (*sql.DB, error) {
	db, err := sql.Open("postgres", s.config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	s.closers = append(s.closers, db.Close)

	return db, nil
}

func (s *APIServer) configureNotifier(m *metrics.Metrics) (*notify.Dispatcher, error) {
	var n notify.Notifier = &notify.LogNotifier{Logger: s.logger}

	if s.config.NatsURL != "" {
		nn, err := notify.NewNATSNotifier(s.config.NatsURL, s.config.NatsSubject)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, nn.Close)
		n = nn
	}

	d := notify.NewDispatcher(n, s.logger, notify.Config{
		From:      s.config.NotifyFromEmail,
		Workers:   s.config.NotifyWorkers,
		QueueSize: s.config.NotifyQueueSize,
	})
	d.OnResult(m.ObserveNotification)

	return d, nil
}

func (s *APIServer) configureCache() cache.Cache {
	if s.config.MemcachedURL == "" {
		return cache.Nop{}
	}

	return cache.NewMemcached(s.config.MemcachedURL, time.Duration(s.config.CacheTTLSeconds)*time.Second)
}

// configureHandler wraps the router with tracing, CORS, proxy headers and panic recovery.
func (s *APIServer) configureHandler(h http.Handler) (http.Handler, error) {
	if s.config.ZipkinURL != "" {
		reporter := httpreporter.NewReporter(s.config.ZipkinURL)
		s.closers = append(s.closers, reporter.Close)

		hostPort := s.config.BindAddr
		if strings.HasPrefix(hostPort, ":") {
			hostPort = "localhost" + hostPort
		}

		endpoint, err := zipkin.NewEndpoint("profiles", hostPort)
		if err != nil {
			return nil, fmt.Errorf("zipkin endpoint: %w", err)
		}

		tracer, err := zipkin.NewTracer(reporter, zipkin.WithLocalEndpoint(endpoint))
		if err != nil {
			return nil, fmt.Errorf("zipkin tracer: %w", err)
		}

		h = zipkinhttp.NewServerMiddleware(tracer, zipkinhttp.TagResponseSize(true))(h)
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"X-Requested-With", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	h = corsMiddleware.Handler(h)

	h = handlers.ProxyHeaders(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.logger),
		handlers.PrintRecoveryStack(true),
	)(h)

	return h, nil
}

func (s *APIServer) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warnf("close: %v", err)
		}
	}
}
