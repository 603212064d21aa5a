// Package container wires the application's dependency graph in a
// single place: config, infrastructure, repositories, services, and
// handlers, in that order, so wiring mistakes surface as a startup
// error rather than a nil pointer deep in a request.
package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"cardvault-backend/internal/config"
	"cardvault-backend/internal/domains/auth"
	authHandler "cardvault-backend/internal/domains/auth/handler"
	authRepo "cardvault-backend/internal/domains/auth/repository"
	"cardvault-backend/internal/domains/catalog"
	catalogHandler "cardvault-backend/internal/domains/catalog/handler"
	catalogRepo "cardvault-backend/internal/domains/catalog/repository"
	"cardvault-backend/internal/domains/catalog/seed"
	"cardvault-backend/internal/domains/deck"
	deckHandler "cardvault-backend/internal/domains/deck/handler"
	deckRepo "cardvault-backend/internal/domains/deck/repository"
	"cardvault-backend/internal/infrastructure/cache"
	"cardvault-backend/internal/infrastructure/coordination"
	"cardvault-backend/internal/infrastructure/dispatcher"
	"cardvault-backend/internal/infrastructure/lock"
	"cardvault-backend/internal/infrastructure/queue"
	"cardvault-backend/internal/infrastructure/ratelimit"
	"cardvault-backend/internal/shared/health"
	"cardvault-backend/pkg/database"
	"cardvault-backend/pkg/jwt"
	"cardvault-backend/pkg/logger"
)

// Container owns every singleton the API and worker binaries share.
type Container struct {
	Config *config.Config

	DB    *pgxpool.Pool
	Coord *coordination.Client

	Cards      *cache.Namespace
	Locks      *lock.Lock
	RateLimit  *ratelimit.Limiter
	Queue      *queue.Queue
	Dispatcher *dispatcher.Dispatcher
	JWTManager *jwt.Manager
	Health     *health.Checker

	AuthService    *auth.Service
	CatalogService *catalog.Service
	DeckService    *deck.Service
	Seeder         *seed.Seeder

	AuthHandler    *authHandler.Handler
	CatalogHandler *catalogHandler.Handler
	DeckHandler    *deckHandler.Handler
}

// New builds the full dependency graph. Callers must invoke Cleanup
// when done, typically deferred right after a successful call.
func New(ctx context.Context) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.App.Environment)

	c := &Container{Config: cfg}

	if err := c.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}
	if err := c.initRepositoriesAndServices(); err != nil {
		return nil, fmt.Errorf("init services: %w", err)
	}
	c.initHandlers()

	logger.Info("container initialized", map[string]interface{}{"environment": cfg.App.Environment})
	return c, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPool(ctx, c.Config.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	c.DB = pool

	c.Coord = coordination.New(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := c.Coord.Connect(ctx); err != nil {
		logger.Error("coordination store unavailable at startup, continuing degraded", err)
	}

	c.Cards = cache.NewNamespace(c.Coord, "cards", c.Config.Cache.DefaultTTL)
	c.Locks = lock.New(c.Coord)
	c.RateLimit = ratelimit.New(c.Coord, c.Config.RateLimit.Window)
	c.Queue = queue.New(c.Coord)
	c.Dispatcher = dispatcher.New(c.Queue, c.Cards, c.Config.Queue.PollInterval, c.Config.Queue.MaxMessagesPerCycle)
	c.Health = health.NewChecker(c.DB, c.Coord)

	privateKey, err := jwt.LoadPrivateKey(c.Config.JWT.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("load jwt private key: %w", err)
	}
	publicKey, err := jwt.LoadPublicKey(c.Config.JWT.PublicKeyPath)
	if err != nil {
		return fmt.Errorf("load jwt public key: %w", err)
	}
	c.JWTManager = jwt.NewManager(privateKey, publicKey, c.Config.JWT.Issuer, c.Config.JWT.AccessTokenExpiry)

	return nil
}

func (c *Container) initRepositoriesAndServices() error {
	principals := authRepo.NewPostgresPrincipalRepository(c.DB)
	refreshTokens := authRepo.NewPostgresRefreshTokenRepository(c.DB)
	c.AuthService = auth.NewService(principals, refreshTokens, c.JWTManager, c.Config.JWT.AccessTokenExpiry, c.Config.JWT.RefreshTokenExpiry)

	cardRepo := catalogRepo.NewPostgresRepository(c.DB)
	c.CatalogService = catalog.NewService(cardRepo, c.Cards, c.Queue)
	c.Seeder = seed.NewSeeder(c.Config.Seed.SourceURL, c.Config.Seed.Timeout, c.CatalogService)

	decks := deckRepo.NewPostgresRepository(c.DB)
	c.DeckService = deck.NewService(decks, c.Locks)

	return nil
}

func (c *Container) initHandlers() {
	c.AuthHandler = authHandler.NewHandler(c.AuthService)
	c.CatalogHandler = catalogHandler.NewHandler(c.CatalogService, c.Queue, c.Seeder)
	c.DeckHandler = deckHandler.NewHandler(c.DeckService)
}

// Cleanup releases the resources New acquired: the coordination store
// connection and the database pool. Callers that started c.Dispatcher
// are responsible for calling its own Stop first.
func (c *Container) Cleanup() {
	if c.Coord != nil {
		if err := c.Coord.Close(); err != nil {
			logger.Error("closing coordination store", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
