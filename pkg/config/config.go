package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Features     FeaturesConfig
	Candidates   CandidatesConfig
	Serving      ServingConfig
	Ranker       RankerConfig
	Ollama       OllamaConfig
	Experiment   ExperimentConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Candidates.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Experiment.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HELIX_APP_ENV" required:"true"`
	Port         string `envconfig:"HELIX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HELIX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HELIX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HELIX_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HELIX_DB_DSN" required:"true"`
	Driver string `envconfig:"HELIX_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"HELIX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HELIX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HELIX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HELIX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HELIX_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"HELIX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HELIX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HELIX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HELIX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HELIX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// FeaturesConfig controls the feature refresh windows.
type FeaturesConfig struct {
	UserLookbackDays int           `envconfig:"HELIX_FEATURES_USER_LOOKBACK_DAYS" default:"28"`
	ItemLookbackDays int           `envconfig:"HELIX_FEATURES_ITEM_LOOKBACK_DAYS" default:"7"`
	RefreshInterval  time.Duration `envconfig:"HELIX_FEATURES_REFRESH_INTERVAL" default:"24h"`
}

// CandidatesConfig controls candidate retrieval budgets.
type CandidatesConfig struct {
	TotalK          int     `envconfig:"HELIX_CANDIDATES_TOTAL_K" default:"100"`
	PopularityRatio float64 `envconfig:"HELIX_CANDIDATES_POPULARITY_RATIO" default:"0.5"`
	RecentItems     int     `envconfig:"HELIX_CANDIDATES_RECENT_ITEMS" default:"10"`
}

func (c CandidatesConfig) validate() error {
	if c.TotalK <= 0 {
		return fmt.Errorf("candidates total_k must be positive, got %d", c.TotalK)
	}
	if c.PopularityRatio < 0 || c.PopularityRatio > 1 {
		return fmt.Errorf("candidates popularity ratio must be in [0,1], got %f", c.PopularityRatio)
	}
	return nil
}

// PopularityK returns the popularity share of the candidate budget.
func (c CandidatesConfig) PopularityK() int {
	return int(float64(c.TotalK) * c.PopularityRatio)
}

// CoVisitationK returns the co-visitation share of the candidate budget.
func (c CandidatesConfig) CoVisitationK() int {
	return c.TotalK - c.PopularityK()
}

type ServingConfig struct {
	TopK            int `envconfig:"HELIX_SERVING_TOP_K" default:"10"`
	DefaultSendHour int `envconfig:"HELIX_SERVING_DEFAULT_SEND_HOUR" default:"12"`
	BatchWorkers    int `envconfig:"HELIX_SERVING_BATCH_WORKERS" default:"8"`
}

type RankerConfig struct {
	ModelPath string `envconfig:"HELIX_RANKER_MODEL_PATH" default:"models/artifacts/purchase_ranker.json"`
}

type OllamaConfig struct {
	BaseURL      string        `envconfig:"HELIX_OLLAMA_BASE_URL" default:"http://localhost:11434"`
	Model        string        `envconfig:"HELIX_OLLAMA_MODEL" default:"llama3"`
	Timeout      time.Duration `envconfig:"HELIX_OLLAMA_TIMEOUT" default:"30s"`
	ProbeTimeout time.Duration `envconfig:"HELIX_OLLAMA_PROBE_TIMEOUT" default:"5s"`
	MaxRetries   int           `envconfig:"HELIX_OLLAMA_MAX_RETRIES" default:"2"`
	Temperature  float64       `envconfig:"HELIX_OLLAMA_TEMPERATURE" default:"0.8"`
}

type ExperimentConfig struct {
	Seed        int64   `envconfig:"HELIX_EXPERIMENT_SEED" default:"42"`
	Users       int     `envconfig:"HELIX_EXPERIMENT_USERS" default:"1000"`
	ItemsShown  int     `envconfig:"HELIX_EXPERIMENT_ITEMS_SHOWN" default:"5"`
	Alpha       float64 `envconfig:"HELIX_EXPERIMENT_ALPHA" default:"0.05"`
	SendHourMin int     `envconfig:"HELIX_EXPERIMENT_SEND_HOUR_MIN" default:"9"`
	SendHourMax int     `envconfig:"HELIX_EXPERIMENT_SEND_HOUR_MAX" default:"21"`
	Workers     int     `envconfig:"HELIX_EXPERIMENT_WORKERS" default:"8"`
}

func (e ExperimentConfig) validate() error {
	if e.Alpha <= 0 || e.Alpha >= 1 {
		return fmt.Errorf("experiment alpha must be in (0,1), got %f", e.Alpha)
	}
	if e.SendHourMin < 0 || e.SendHourMax > 23 || e.SendHourMin > e.SendHourMax {
		return fmt.Errorf("experiment send hour range [%d,%d] is invalid", e.SendHourMin, e.SendHourMax)
	}
	return nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HELIX_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HELIX_AUTO_MIGRATE" default:"false"`
}
