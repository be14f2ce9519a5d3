package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

// Config stores runtime configuration for the playerlink commands.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	LogLevel                logging.Level
	DBURL                   string
	DBDisablePreparedBinary bool
	DBMaxOpenConns          int
	MetricsAddr             string
	PprofEnabled            bool
	PprofAddr               string

	CacheEnabled  bool
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisAliasTTL time.Duration

	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	ESPNBaseURL                string
	ESPNTimeout                time.Duration
	ESPNMaxAttempts            int
	ESPNRetryBaseDelay         time.Duration
	ESPNRetryMaxDelay          time.Duration
	ESPNCircuitEnabled         bool
	ESPNCircuitFailureCount    int
	ESPNCircuitOpenTimeout     time.Duration
	ESPNCircuitHalfOpenMaxReq  int
	OddsAPIBaseURL             string
	OddsAPIKey                 string
	OddsAPIRegions             string
	OddsAPITimeout             time.Duration
	OddsAPIMaxAttempts         int
	OddsAPICircuitEnabled      bool
	OddsAPICircuitFailureCount int
	OddsAPICircuitOpenTimeout  time.Duration
	OddsAPICircuitHalfOpenMax  int

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	ReconcileGameWorkers   int
	ReconcileRecordWorkers int
	// NameMappings extends the built-in shorthand table, e.g. "kat=karl anthony towns".
	NameMappings map[string]string
}

// LoadDotEnv reads a .env file into the process environment when one exists. Variables
// already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "playerlink"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:       logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		DBURL:          strings.TrimSpace(getEnv("DB_URL", "")),
		MetricsAddr:    strings.TrimSpace(getEnv("METRICS_ADDR", ":9090")),
		PprofAddr:      strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		RedisAddr:      strings.TrimSpace(getEnv("REDIS_ADDR", "")),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		ESPNBaseURL:    strings.TrimSpace(getEnv("ESPN_BASE_URL", "https://site.api.espn.com/apis/site/v2/sports/basketball/nba")),
		OddsAPIBaseURL: strings.TrimSpace(getEnv("ODDS_API_BASE_URL", "https://api.the-odds-api.com/v4")),
		OddsAPIKey:     strings.TrimSpace(getEnv("ODDS_API_KEY", "")),
		OddsAPIRegions: strings.TrimSpace(getEnv("ODDS_API_REGIONS", "us")),
		KafkaBrokers:   splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:     strings.TrimSpace(getEnv("KAFKA_TOPIC", "betting-lines")),
		KafkaGroupID:   strings.TrimSpace(getEnv("KAFKA_GROUP_ID", "playerlink-ingest")),
	}

	p := parser{}
	cfg.DBDisablePreparedBinary = p.boolean("DB_DISABLE_PREPARED_BINARY_RESULT", true)
	cfg.DBMaxOpenConns = p.positiveInt("DB_MAX_OPEN_CONNS", 10)
	cfg.PprofEnabled = p.boolean("PPROF_ENABLED", false)

	cfg.CacheEnabled = p.boolean("CACHE_ENABLED", true)
	cfg.CacheTTL = p.positiveDuration("CACHE_TTL", 10*time.Minute)
	cfg.RedisDB = p.nonNegativeInt("REDIS_DB", 0)
	cfg.RedisAliasTTL = p.positiveDuration("REDIS_ALIAS_TTL", 24*time.Hour)

	cfg.UptraceEnabled = p.boolean("UPTRACE_ENABLED", false)
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	cfg.UptraceLogsEnabled = p.boolean("UPTRACE_LOGS_ENABLED", true)

	cfg.PyroscopeEnabled = p.boolean("PYROSCOPE_ENABLED", false)
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = getEnv("PYROSCOPE_AUTH_TOKEN", "")
	cfg.PyroscopeBasicAuthUser = getEnv("PYROSCOPE_BASIC_AUTH_USER", "")
	cfg.PyroscopeBasicAuthPassword = getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")
	cfg.PyroscopeUploadRate = p.positiveDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)

	cfg.ESPNTimeout = p.positiveDuration("ESPN_TIMEOUT", 15*time.Second)
	cfg.ESPNMaxAttempts = p.positiveInt("ESPN_MAX_ATTEMPTS", 3)
	cfg.ESPNRetryBaseDelay = p.positiveDuration("ESPN_RETRY_BASE_DELAY", 500*time.Millisecond)
	cfg.ESPNRetryMaxDelay = p.positiveDuration("ESPN_RETRY_MAX_DELAY", 8*time.Second)
	cfg.ESPNCircuitEnabled = p.boolean("ESPN_CIRCUIT_ENABLED", true)
	cfg.ESPNCircuitFailureCount = p.positiveInt("ESPN_CIRCUIT_FAILURE_COUNT", 5)
	cfg.ESPNCircuitOpenTimeout = p.positiveDuration("ESPN_CIRCUIT_OPEN_TIMEOUT", 30*time.Second)
	cfg.ESPNCircuitHalfOpenMaxReq = p.positiveInt("ESPN_CIRCUIT_HALF_OPEN_MAX_REQ", 1)

	cfg.OddsAPITimeout = p.positiveDuration("ODDS_API_TIMEOUT", 30*time.Second)
	cfg.OddsAPIMaxAttempts = p.positiveInt("ODDS_API_MAX_ATTEMPTS", 2)
	cfg.OddsAPICircuitEnabled = p.boolean("ODDS_API_CIRCUIT_ENABLED", true)
	cfg.OddsAPICircuitFailureCount = p.positiveInt("ODDS_API_CIRCUIT_FAILURE_COUNT", 5)
	cfg.OddsAPICircuitOpenTimeout = p.positiveDuration("ODDS_API_CIRCUIT_OPEN_TIMEOUT", 30*time.Second)
	cfg.OddsAPICircuitHalfOpenMax = p.positiveInt("ODDS_API_CIRCUIT_HALF_OPEN_MAX_REQ", 1)

	cfg.ReconcileGameWorkers = p.positiveInt("RECONCILE_GAME_WORKERS", 4)
	cfg.ReconcileRecordWorkers = p.positiveInt("RECONCILE_RECORD_WORKERS", 8)

	if p.err != nil {
		return Config{}, p.err
	}

	cfg.NameMappings, err = parseNameMap(getEnv("PLAYER_NAME_MAPPINGS", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse PLAYER_NAME_MAPPINGS: %w", err)
	}

	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.ESPNRetryMaxDelay < cfg.ESPNRetryBaseDelay {
		return Config{}, fmt.Errorf("ESPN_RETRY_MAX_DELAY must be >= ESPN_RETRY_BASE_DELAY")
	}
	if cfg.ReconcileGameWorkers > 16 {
		return Config{}, fmt.Errorf("RECONCILE_GAME_WORKERS must be <= 16")
	}
	if cfg.PprofAddr == "" {
		cfg.PprofAddr = ":6060"
	}

	return cfg, nil
}

// RequireDB is checked by the commands that open a database.
func (c Config) RequireDB() error {
	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	return nil
}

// RequireKafka is checked by the consume command.
func (c Config) RequireKafka() error {
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required")
	}
	return nil
}

// parser keeps the first parse error so Load can read every variable in sequence.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parse %s: %w", key, err)
	}
}

func (p *parser) boolean(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return value
}

func (p *parser) positiveInt(key string, fallback int) int {
	value, err := getEnvAsInt(key, fallback)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	if value < 1 {
		p.fail(key, fmt.Errorf("must be >= 1"))
		return fallback
	}
	return value
}

func (p *parser) nonNegativeInt(key string, fallback int) int {
	value, err := getEnvAsInt(key, fallback)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	if value < 0 {
		p.fail(key, fmt.Errorf("must be >= 0"))
		return fallback
	}
	return value
}

func (p *parser) positiveDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	if value <= 0 {
		p.fail(key, fmt.Errorf("must be > 0"))
		return fallback
	}
	return value
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	return strconv.Atoi(value)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

// parseNameMap reads comma separated alias=canonical pairs.
func parseNameMap(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range splitCSV(raw) {
		alias, canonical, ok := strings.Cut(item, "=")
		alias = strings.TrimSpace(alias)
		canonical = strings.TrimSpace(canonical)
		if !ok || alias == "" || canonical == "" {
			return nil, fmt.Errorf("invalid mapping %q", item)
		}
		out[alias] = canonical
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
