package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/datakeep/apiserver/config"
	"github.com/datakeep/apiserver/internal/db"
	"github.com/datakeep/apiserver/internal/docstore"
	"github.com/datakeep/apiserver/internal/handlers"
	"github.com/datakeep/apiserver/internal/logger"
	"github.com/datakeep/apiserver/internal/mq"
	"github.com/datakeep/apiserver/internal/services"
	"github.com/datakeep/apiserver/internal/store"
)

// Server wraps the HTTP server and its owned resources.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	broker     *mq.MQ
	log        *zap.Logger
}

// New opens the shared database pool, selects the document store and broker
// backends from config, and wires the services behind a chi router. Handlers
// only ever see the abstract contracts, so the backends stay swappable.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	docBackend, err := newDocstoreBackend(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init docstore backend: %w", err)
	}

	broker, err := newBroker(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init mq backend: %w", err)
	}

	accountRepo := store.NewAccountRepository(dbConn)
	auditRepo := store.NewAuditRepository(dbConn)

	authService := services.NewAuthService(accountRepo, auditRepo, log)
	if broker != nil {
		authService = authService.WithPublisher(broker)
	}
	accountService := services.NewAccountService(accountRepo)
	documentService := services.NewDocumentService(docstore.New(docBackend))

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logger.RequestLogger(log),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, authService)
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, accountService, authService)
	})
	router.Route("/data", func(r chi.Router) {
		handlers.DataRouter(r, documentService, authService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		db:         dbConn,
		broker:     broker,
		log:        log,
	}, nil
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info("listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases owned resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}

func newDocstoreBackend(ctx context.Context, cfg config.Config) (docstore.Backend, error) {
	switch cfg.DocstoreBackend {
	case config.DocstoreMinio:
		backend, err := docstore.NewMinioBackend(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := backend.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return backend, nil
	case config.DocstoreGCS:
		backend, err := docstore.NewGCSBackend(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		if err := backend.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return backend, nil
	case config.DocstoreMemory:
		return docstore.NewMemBackend(), nil
	default:
		return nil, fmt.Errorf("unknown docstore backend %q", cfg.DocstoreBackend)
	}
}

func newBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.MQBackend {
	case config.MQRabbitMQ:
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case config.MQPubSub:
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case config.MQNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
}
