package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/mailsage/mailsage-backend/internal/db"
	"github.com/mailsage/mailsage-backend/internal/observability"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Store    *db.Store
	Services Services
	Router   *gin.Engine
	cancel   context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	store, err := wireStore(log)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	vs, err := resolveVectorStore(log, cfg)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	services, err := wireServices(log, cfg, clients, store, vs)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	handlers := wireHandlers(log, services)
	router := wireRouter(log, handlers)

	return &App{
		Log:      log,
		Cfg:      cfg,
		Clients:  clients,
		Store:    store,
		Services: services,
		Router:   router,
	}, nil
}

// Start launches background components: the metrics endpoint, the Redis
// reachability collector, and the Temporal worker when one is configured.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if m := observability.Current(); m != nil {
		m.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		m.StartRedisCollector(ctx, a.Log, a.Cfg.RedisAddr)
	}

	if a.Services.Worker != nil {
		go func() {
			if err := a.Services.Worker.Start(ctx); err != nil {
				a.Log.Warn("Temporal worker stopped", "error", err)
			}
		}()
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
