package app

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/playerlink/external/espn"
	"github.com/riskibarqy/playerlink/external/oddsapi"
	"github.com/riskibarqy/playerlink/external/oddsstream"
	"github.com/riskibarqy/playerlink/internal/config"
	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
	"github.com/riskibarqy/playerlink/internal/domain/identity"
	"github.com/riskibarqy/playerlink/internal/domain/mismatch"
	"github.com/riskibarqy/playerlink/internal/domain/playername"
	"github.com/riskibarqy/playerlink/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/playerlink/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/playerlink/internal/platform/cache"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/platform/metrics"
	"github.com/riskibarqy/playerlink/internal/platform/resilience"
	"github.com/riskibarqy/playerlink/internal/usecase"
)

// App holds the services shared by every playerlink command.
type App struct {
	cfg     config.Config
	logger  *logging.Logger
	db      *sqlx.DB
	redis   *redis.Client
	metrics *metrics.Recorder

	Identities     identity.Repository
	Lines          bettingline.Repository
	Mismatches     mismatch.Repository
	Resolver       *usecase.IdentityResolver
	Ingestion      *usecase.IngestionService
	OddsIngestion  *usecase.OddsIngestionService
	Reconciliation *usecase.ReconciliationService
	Batch          *usecase.BatchReconcileService
	MismatchReview *usecase.MismatchService
}

// New opens the database (and Redis when configured) and builds the service graph.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := cfg.RequireDB(); err != nil {
		return nil, err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.NewRecorder(),
	}

	var identities identity.Repository = postgres.NewIdentityRepository(db)
	if cfg.CacheEnabled {
		var shared cache.AliasCache
		if cfg.RedisAddr != "" {
			client, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
			a.redis = client
			shared = cache.NewRedisAliasCache(client, cfg.RedisAliasTTL)
		}
		identities = cache.NewIdentityRepository(
			identities,
			basecache.NewStore[identity.Identity](cfg.CacheTTL),
			basecache.NewStore[int64](cfg.CacheTTL),
			shared,
			logger,
		)
	}

	a.Identities = identities
	a.Lines = postgres.NewBettingLineRepository(db)
	a.Mismatches = postgres.NewMismatchRepository(db)

	boxScores := espn.NewClient(espn.ClientConfig{
		BaseURL: cfg.ESPNBaseURL,
		Timeout: cfg.ESPNTimeout,
		Retry: resilience.RetryPolicy{
			MaxAttempts: cfg.ESPNMaxAttempts,
			BaseDelay:   cfg.ESPNRetryBaseDelay,
			MaxDelay:    cfg.ESPNRetryMaxDelay,
			Multiplier:  2,
		},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ESPNCircuitEnabled,
			FailureThreshold: cfg.ESPNCircuitFailureCount,
			OpenTimeout:      cfg.ESPNCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ESPNCircuitHalfOpenMaxReq,
		},
		Logger:  logger,
		Metrics: a.metrics,
	})
	odds := oddsapi.NewClient(oddsapi.ClientConfig{
		BaseURL: cfg.OddsAPIBaseURL,
		APIKey:  cfg.OddsAPIKey,
		Regions: cfg.OddsAPIRegions,
		Timeout: cfg.OddsAPITimeout,
		Retry: resilience.RetryPolicy{
			MaxAttempts: cfg.OddsAPIMaxAttempts,
			BaseDelay:   cfg.ESPNRetryBaseDelay,
			MaxDelay:    cfg.ESPNRetryMaxDelay,
			Multiplier:  2,
		},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.OddsAPICircuitEnabled,
			FailureThreshold: cfg.OddsAPICircuitFailureCount,
			OpenTimeout:      cfg.OddsAPICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.OddsAPICircuitHalfOpenMax,
		},
		Logger:  logger,
		Metrics: a.metrics,
	})

	adapter := usecase.NewNBAAdapter(boxScores)
	a.Resolver = usecase.NewIdentityResolver(identities, playername.NewMappings(cfg.NameMappings), logger, a.metrics)
	a.Ingestion = usecase.NewIngestionService(adapter, a.Resolver, a.Lines, logger, a.metrics)
	a.OddsIngestion = usecase.NewOddsIngestionService(odds, adapter, a.Ingestion, logger)
	a.Reconciliation = usecase.NewReconciliationService(
		usecase.ReconciliationConfig{RecordWorkers: cfg.ReconcileRecordWorkers},
		adapter,
		a.Lines,
		identities,
		a.Mismatches,
		a.Resolver,
		logger,
		a.metrics,
	)
	a.Batch = usecase.NewBatchReconcileService(boxScores, a.Reconciliation, logger, a.metrics)
	a.MismatchReview = usecase.NewMismatchService(a.Mismatches, a.Lines, identities, a.Resolver, logger)

	return a, nil
}

// NewOddsConsumer builds the Kafka consumer. The caller closes the returned reader.
func (a *App) NewOddsConsumer() (*oddsstream.Consumer, func() error, error) {
	if err := a.cfg.RequireKafka(); err != nil {
		return nil, nil, err
	}
	reader := oddsstream.NewReader(oddsstream.ReaderConfig{
		Brokers: a.cfg.KafkaBrokers,
		Topic:   a.cfg.KafkaTopic,
		GroupID: a.cfg.KafkaGroupID,
	})
	return oddsstream.NewConsumer(reader, a.Ingestion, a.logger), reader.Close, nil
}

// MetricsServer serves /metrics and a /healthz that pings Postgres and Redis.
func (a *App) MetricsServer() *http.Server {
	return metrics.NewServer(a.cfg.MetricsAddr, a.metrics, a.ping)
}

func (a *App) ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping postgres")
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, "ping redis")
		}
	}
	return nil
}

func (a *App) Close() error {
	var errs error
	if a.redis != nil {
		errs = errors.CombineErrors(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = errors.CombineErrors(errs, a.db.Close())
	}
	return errs
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := NormalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := openTracedDB(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return db, nil
}
