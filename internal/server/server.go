package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sngm3741/podcast-question-gateway/internal/config"
	"github.com/sngm3741/podcast-question-gateway/internal/infrastructure/llm"
	"github.com/sngm3741/podcast-question-gateway/internal/infrastructure/mailchimp"
	"github.com/sngm3741/podcast-question-gateway/internal/infrastructure/sheets"
	"github.com/sngm3741/podcast-question-gateway/internal/interfaces/http/common"
	gatewayhttp "github.com/sngm3741/podcast-question-gateway/internal/interfaces/http/gateway"
	"github.com/sngm3741/podcast-question-gateway/internal/metrics"
	"github.com/sngm3741/podcast-question-gateway/internal/submission/application"
)

// Server manages the HTTP lifecycle and is the composition root wiring
// config, upstream clients and handlers together.
type Server struct {
	logger         *zap.Logger
	addr           string
	metricsAddr    string
	allowedOrigins []string
	metrics        *metrics.Metrics
	gateway        *gatewayhttp.Handler
}

// New builds the upstream clients and handlers from cfg.
func New(cfg config.Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// One client for every upstream; its timeout is the only deadline outbound calls get.
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	m := metrics.New()

	submissions := application.NewSubmissionService(application.Config{
		Logger: logger.Named("submission"),
		Sheets: sheets.New(sheets.Config{
			WebhookURL: cfg.SheetsWebhookURL,
			Secret:     cfg.SheetsSecret,
			Issuer:     cfg.SheetsIssuer,
			HTTPClient: httpClient,
		}),
		Mailchimp: mailchimp.New(mailchimp.Config{
			APIKey:     cfg.MailchimpAPIKey,
			ListID:     cfg.MailchimpListID,
			Tags:       cfg.MailchimpTags,
			BaseURL:    cfg.MailchimpBaseURL,
			HTTPClient: httpClient,
		}),
		Observer: m,
	})

	proxy := llm.NewProxy(llm.Config{
		Endpoint:   cfg.LLMEndpoint,
		APIKey:     cfg.LLMAPIKey,
		HTTPClient: httpClient,
	})

	return &Server{
		logger:         logger,
		addr:           cfg.Addr,
		metricsAddr:    cfg.MetricsAddr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		metrics:        m,
		gateway: gatewayhttp.NewHandler(gatewayhttp.Config{
			Logger:      logger.Named("http"),
			Proxy:       proxy,
			Submissions: submissions,
		}),
	}
}

// Router assembles middleware and routes.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(s.logger, s.metrics))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.NotFound(common.MethodNotAllowed)
	router.MethodNotAllowed(common.MethodNotAllowed)

	s.gateway.Register(router)
	return router
}

// Run starts the gateway (and the metrics listener when configured) and
// blocks until the process receives SIGINT/SIGTERM or the listener fails.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.addr))
		errChan <- httpServer.ListenAndServe()
	}()

	var metricsServer *http.Server
	if s.metricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", s.metrics.Handler())
		metricsServer = &http.Server{
			Addr:              s.metricsAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			s.logger.Info("metrics listening", zap.String("addr", s.metricsAddr))
			errChan <- metricsServer.ListenAndServe()
		}()
	}

	return s.waitForShutdown(errChan, httpServer, metricsServer)
}

// waitForShutdown watches for listener failure or an OS signal and drains
// in-flight requests before returning.
func (s *Server) waitForShutdown(errChan <-chan error, servers ...*http.Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server exited unexpectedly", zap.Error(err))
			runErr = err
		}
	case sig := <-sigChan:
		s.logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("error during shutdown", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}
	_ = s.logger.Sync()
	return runErr
}
