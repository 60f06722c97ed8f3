// Package main is the entry point for the IT-ERA Chatbot Service.
// @title IT-ERA Chatbot Service API
// @version 1.0
// @description Mark, the IT-ERA website assistant: intent routing, AI replies with guardrails, swarm A/B testing and lead escalation

// @contact.name IT-ERA
// @contact.url https://www.it-era.it
// @contact.email info@it-era.it

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Operator API key
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/itera/chatbot-service/docs"
	"github.com/itera/chatbot-service/internal/api/handlers"
	"github.com/itera/chatbot-service/internal/api/middleware"
	"github.com/itera/chatbot-service/internal/api/routes"
	"github.com/itera/chatbot-service/internal/config"
	"github.com/itera/chatbot-service/internal/core/cache"
	"github.com/itera/chatbot-service/internal/core/docdb"
	"github.com/itera/chatbot-service/internal/core/guardrail"
	"github.com/itera/chatbot-service/internal/core/vault"
	memcache "github.com/itera/chatbot-service/internal/infrastructure/cache/memory"
	rediscache "github.com/itera/chatbot-service/internal/infrastructure/cache/redis"
	"github.com/itera/chatbot-service/internal/infrastructure/docdb/mongodb"
	memstore "github.com/itera/chatbot-service/internal/infrastructure/guardrail/memory"
	redisstore "github.com/itera/chatbot-service/internal/infrastructure/guardrail/redis"
	dotenvvault "github.com/itera/chatbot-service/internal/infrastructure/vault/dotenv"
	"github.com/itera/chatbot-service/internal/pkg/encryption"
	"github.com/itera/chatbot-service/internal/pkg/logging"
	"github.com/itera/chatbot-service/internal/services/ai"
	"github.com/itera/chatbot-service/internal/services/ai/provider"
	"github.com/itera/chatbot-service/internal/services/chat"
	"github.com/itera/chatbot-service/internal/services/guardrails"
	"github.com/itera/chatbot-service/internal/services/notify"
	"github.com/itera/chatbot-service/internal/services/routing"
	"github.com/itera/chatbot-service/internal/services/session"
	"github.com/itera/chatbot-service/internal/services/swarm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCloser := logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	defer logCloser.Close()

	ctx := context.Background()

	// Initialize vault client using factory pattern
	vaultClient, err := createVaultClient(cfg.Vault)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vault client")
	}
	defer vaultClient.Close()

	// Initialize cache client using factory pattern
	cacheClient, err := createCacheClient(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache client")
	}
	defer cacheClient.Close()

	// Initialize guardrail counter store
	guardrailStore, err := createGuardrailStore(cfg.Guardrail, cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize guardrail store")
	}
	defer guardrailStore.Close()

	// Initialize document db client; the archive is optional
	var docDBClient docdb.Client
	if cfg.DocDB.Enabled {
		docDBClient, err = createDocDBClient(ctx, cfg.DocDB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize document db client")
		}
		defer docDBClient.Close(ctx)

		if err := docDBClient.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure indexes")
		}
	}

	// Initialize encryptor
	encryptor, err := createEncryptor(cfg.Vault, vaultClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryptor")
	}

	// Initialize session service
	sessionService, err := session.NewService(&session.Config{
		CacheClient: cacheClient,
		Encryptor:   encryptor,
		TTL:         cfg.Guardrail.SessionTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session service")
	}

	rateLimiter := guardrails.NewRateLimiter(guardrailStore, map[guardrails.Scope]guardrails.Limit{
		guardrails.ScopeSession: {Max: cfg.Guardrail.SessionCallsPerMinute, Window: time.Minute},
		guardrails.ScopeIP:      {Max: cfg.Guardrail.IPMessagesPerHour, Window: time.Hour},
	})

	// Initialize AI engine
	engine, err := createAIEngine(ctx, cfg, vaultClient, rateLimiter, guardrailStore, cacheClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize AI engine")
	}
	var generator routing.ResponseGenerator
	if engine != nil {
		generator = ai.NewRetrier(engine, ai.RetrierConfig{
			MaxAttempts:    cfg.AI.MaxRetries,
			AttemptTimeout: cfg.AI.Timeout,
		})
	}

	// Initialize escalation notifier
	notifier, err := createNotifier(ctx, cfg.Notify, vaultClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize notifier")
	}
	dispatcher := notify.NewDispatcher(notifier, notify.DispatcherConfig{
		QueueSize: cfg.Notify.QueueSize,
		Workers:   cfg.Notify.Workers,
		Timeout:   cfg.Notify.Timeout,
	})
	defer dispatcher.Stop()

	// Initialize swarm and A/B router
	var (
		orchestrator *swarm.Orchestrator
		router       *routing.Router
	)
	if cfg.Swarm.Enabled {
		orchestrator = swarm.NewOrchestrator(&swarm.Config{
			Profiles:   cacheClient,
			ProfileTTL: cfg.Guardrail.CustomerProfileTTL,
		})

		var perfStore cache.Client
		if cfg.Guardrail.PerformanceRecordsOn {
			perfStore = cacheClient
		}
		router, err = routing.NewRouter(&routing.Config{
			Swarm:            orchestrator,
			AI:               generator,
			Notifier:         dispatcher,
			PerformanceStore: perfStore,
			PerformanceTTL:   cfg.Guardrail.PerformanceRecordTTL,
			ABTestEnabled:    cfg.Swarm.ABTestEnabled,
			SwarmPercentage:  cfg.Swarm.Percentage,
			MinSampleSize:    cfg.Swarm.MinSampleSize,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize A/B router")
		}
		defer router.Stop()
	}

	// Initialize chat service
	chatCfg := &chat.Config{
		Sessions:     sessionService,
		IPLimiter:    rateLimiter,
		AI:           generator,
		Notifier:     dispatcher,
		MaxMessages:  cfg.Guardrail.MaxMessagesPerSession,
		StoreTimeout: cfg.Chat.StoreTimeout,
	}
	if router != nil {
		chatCfg.Router = router
	}
	if docDBClient != nil {
		chatCfg.Conversations = docDBClient.Conversations()
		chatCfg.Leads = docDBClient.Leads()
	}
	chatService, err := chat.NewService(chatCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize chat service")
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Setup router
	ginRouter := setupRouter(ctx, cfg, vaultClient, &components{
		cacheClient:    cacheClient,
		guardrailStore: guardrailStore,
		docDBClient:    docDBClient,
		chatService:    chatService,
		engine:         engine,
		router:         router,
		orchestrator:   orchestrator,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", cfg.Server.Address()).
			Bool("ai", engine != nil).
			Bool("swarm", router != nil).
			Bool("archive", docDBClient != nil).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// createVaultClient creates a vault client based on the configuration.
func createVaultClient(cfg config.VaultConfig) (vault.Client, error) {
	switch vault.Type(cfg.Type) {
	case vault.TypeDotEnv:
		return dotenvvault.NewClient(cfg.SecretsFile)
	default:
		return nil, fmt.Errorf("unsupported vault type: %s", cfg.Type)
	}
}

// createCacheClient creates a cache client based on the configuration.
func createCacheClient(cfg config.CacheConfig) (cache.Client, error) {
	cacheType, err := cache.ParseType(cfg.Type)
	if err != nil {
		return nil, err
	}

	switch cacheType {
	case cache.TypeRedis:
		return rediscache.NewClient(rediscache.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Password:   cfg.Password,
			DB:         cfg.DB,
			DefaultTTL: cfg.TTL,
			KeyPrefix:  cfg.KeyPrefix,
		})
	case cache.TypeMemory:
		return memcache.NewCache(cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// createGuardrailStore creates the rate/cost counter store. Redis reuses the cache connection settings.
func createGuardrailStore(cfg config.GuardrailConfig, cacheCfg config.CacheConfig) (guardrail.Store, error) {
	switch guardrail.Type(cfg.StoreType) {
	case guardrail.TypeMemory:
		return memstore.NewStore(), nil
	case guardrail.TypeRedis:
		return redisstore.NewStore(redisstore.Config{
			Host:     cacheCfg.Host,
			Port:     cacheCfg.Port,
			Password: cacheCfg.Password,
			DB:       cacheCfg.DB,
		})
	default:
		return nil, fmt.Errorf("unsupported guardrail store type: %s", cfg.StoreType)
	}
}

// createDocDBClient creates a document database client based on the configuration.
func createDocDBClient(ctx context.Context, cfg config.DocDBConfig) (docdb.Client, error) {
	dbType, err := docdb.ParseType(cfg.Type)
	if err != nil {
		return nil, err
	}

	switch dbType {
	case docdb.TypeMongoDB, docdb.TypeCosmosDB:
		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.URI,
			DatabaseName: cfg.Database,
			Retention:    cfg.Retention,
		})
	default:
		return nil, fmt.Errorf("unsupported docdb type: %s", cfg.Type)
	}
}

// createEncryptor creates an encryptor based on the configuration.
func createEncryptor(cfg config.VaultConfig, vaultClient vault.Client) (encryption.Encryptor, error) {
	encryptionKey := vault.SecretOr(context.Background(), vaultClient, vault.SecretEncryptionKey, cfg.EncryptionKey)
	if encryptionKey == "" {
		// Use NoOp encryptor in development
		log.Warn().Msg("SECRETS_ENCRYPTION_KEY not set, sessions are stored unencrypted")
		return encryption.NewNoOpEncryptor(), nil
	}

	return encryption.NewAESEncryptor(encryptionKey)
}

// createAIEngine builds the guarded single-call engine. Returns nil when AI is disabled or has no key.
func createAIEngine(ctx context.Context, cfg *config.Config, vaultClient vault.Client, rateLimiter *guardrails.RateLimiter, store guardrail.Store, cacheClient cache.Client) (*ai.Engine, error) {
	if !cfg.AI.Enabled {
		log.Info().Msg("AI engine disabled, static replies only")
		return nil, nil
	}

	secretName := vault.SecretOpenAIAPIKey
	if provider.Name(cfg.AI.Provider) == provider.Anthropic {
		secretName = vault.SecretAnthropicAPIKey
	}
	apiKey, err := vaultClient.GetSecret(ctx, secretName)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.AI.Provider).Msg("AI API key not configured, static replies only")
		return nil, nil
	}

	p, err := provider.New(provider.Name(cfg.AI.Provider), provider.Config{
		APIKey:     apiKey,
		Model:      cfg.AI.Model,
		BaseURL:    cfg.AI.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.AI.Timeout},
	})
	if err != nil {
		return nil, err
	}

	return ai.NewEngine(&ai.Config{
		Provider:    p,
		RateLimiter: rateLimiter,
		Ledger:      guardrails.NewCostLedger(store, cfg.Guardrail.SessionTTL),
		Cache:       guardrails.NewResponseCache(cacheClient, cfg.Guardrail.ResponseCacheTTL),
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
		CostLimit:   cfg.AI.CostLimit,
	})
}

// createNotifier creates the escalation webhook notifier, or a no-op one when no URL is configured.
func createNotifier(ctx context.Context, cfg config.NotifyConfig, vaultClient vault.Client) (notify.Notifier, error) {
	url := vault.SecretOr(ctx, vaultClient, vault.SecretTeamsWebhookURL, cfg.TeamsWebhookURL)
	if url == "" {
		log.Warn().Msg("TEAMS_WEBHOOK_URL not set, escalations are only logged")
		return notify.NoopNotifier{}, nil
	}

	return notify.NewWebhookNotifier(&notify.WebhookConfig{
		URL:     url,
		Timeout: cfg.Timeout,
	})
}

// components groups the services exposed over HTTP. Optional ones may be nil.
type components struct {
	cacheClient    cache.Client
	guardrailStore guardrail.Store
	docDBClient    docdb.Client
	chatService    handlers.ChatService
	engine         *ai.Engine
	router         *routing.Router
	orchestrator   *swarm.Orchestrator
}

// setupRouter creates and configures the Gin router.
func setupRouter(ctx context.Context, cfg *config.Config, vaultClient vault.Client, c *components) *gin.Engine {
	r := gin.New()

	// Create middleware
	loggingMw := middleware.NewLoggingMiddleware()
	errorMw := middleware.NewErrorMiddleware()
	corsCfg := middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins)

	// Typed nils must not reach the handler interfaces
	var (
		engine       handlers.AIEngine
		abRouter     handlers.ABRouter
		orchestrator handlers.SwarmStats
	)
	if c.engine != nil {
		engine = c.engine
	}
	if c.router != nil && c.orchestrator != nil {
		abRouter = c.router
		orchestrator = c.orchestrator
	}

	routesCfg := &routes.Config{
		HealthHandler:      handlers.NewHealthHandler(c.cacheClient, c.guardrailStore, c.docDBClient),
		ChatHandler:        handlers.NewChatHandler(c.chatService),
		DiagnosticsHandler: handlers.NewDiagnosticsHandler(engine),
		SwarmHandler:       handlers.NewSwarmHandler(abRouter, orchestrator),
		ArchiveHandler:     handlers.NewArchiveHandler(c.docDBClient),
	}

	adminKey := vault.SecretOr(ctx, vaultClient, vault.SecretAdminAPIKey, cfg.Server.AdminAPIKey)
	if adminKey != "" {
		routesCfg.AuthMiddleware = middleware.NewAuthMiddleware(adminKey)
	} else {
		log.Warn().Msg("ADMIN_API_KEY not set, operator endpoints disabled")
	}

	routes.SetupWithMiddleware(r, routesCfg, loggingMw, errorMw, corsCfg)

	// Swagger documentation endpoint
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
