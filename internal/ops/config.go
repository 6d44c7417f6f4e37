// Package ops loads the engine configuration: a JSON file for the
// instrument and limits, environment variables for API credentials.
// The resolved config is passed by value into the components that need
// it; there are no process-wide singletons.
package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/maker"
	"main/internal/model"
	exchange "main/internal/order/delegator/binance"
	"main/internal/risk"
	"main/pkg/conn"
	"main/pkg/exception"
)

const (
	envAPIKey    = "MAKER_API_KEY"
	envAPISecret = "MAKER_API_SECRET"
)

// FileConfig mirrors the JSON config layout. Decimal-valued fields are
// strings so they parse exactly at the instrument scales.
type FileConfig struct {
	Symbol        string `json:"symbol"`
	WsURL         string `json:"wsUrl"`
	RestURL       string `json:"restUrl"`
	PriceScale    int    `json:"priceScale"`
	QuantityScale int    `json:"quantityScale"`
	Tick          string `json:"tick"`
	QuoteQty      string `json:"quoteQty"`
	SnapshotLimit int    `json:"snapshotLimit"`

	ResyncDelay       time.Duration `json:"resyncDelay"`
	OrderTimeout      time.Duration `json:"orderTimeout"`
	HousekeepInterval time.Duration `json:"housekeepInterval"`
	QueueCapacity     int           `json:"queueCapacity"`

	Risk      RiskFileConfig  `json:"risk"`
	Postgres  conn.Option     `json:"postgres"`
	Pyroscope PyroscopeConfig `json:"pyroscope"`
}

// RiskFileConfig defines the hard limits as exact decimal strings.
type RiskFileConfig struct {
	MaxLong     string `json:"maxLong"`
	MaxShort    string `json:"maxShort"`
	MaxOrderQty string `json:"maxOrderQty"`
	Tolerance   string `json:"tolerance"`
}

// PyroscopeConfig controls the optional continuous profiler.
type PyroscopeConfig struct {
	Enable        bool   `json:"enable"`
	ServerAddress string `json:"serverAddress"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Maker             maker.Config
	Risk              risk.Config
	WsURL             string
	RestURL           string
	QueueCapacity     int
	HousekeepInterval time.Duration
	Credentials       exchange.Credentials
	Postgres          conn.Option
	Pyroscope         PyroscopeConfig
}

// Load reads the JSON config file and resolves defaults, scales, and
// credentials.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config")
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "unmarshal config")
	}
	return Resolve(cfg)
}

// Resolve validates a FileConfig and fills defaults.
func Resolve(cfg FileConfig) (Loaded, error) {
	if cfg.Symbol == "" {
		return Loaded{}, exception.ErrConfigMissingSymbol
	}
	if cfg.PriceScale < 0 || cfg.QuantityScale < 0 {
		return Loaded{}, exception.ErrConfigInvalidScale
	}
	if cfg.PriceScale == 0 {
		cfg.PriceScale = 2
	}
	if cfg.QuantityScale == 0 {
		cfg.QuantityScale = 8
	}
	if cfg.Tick == "" {
		cfg.Tick = "0.01"
	}
	if cfg.QuoteQty == "" {
		cfg.QuoteQty = "0.6"
	}
	if cfg.SnapshotLimit <= 0 {
		cfg.SnapshotLimit = 1000
	}
	if cfg.ResyncDelay <= 0 {
		cfg.ResyncDelay = 5 * time.Second
	}
	if cfg.OrderTimeout <= 0 {
		cfg.OrderTimeout = time.Minute
	}
	if cfg.HousekeepInterval <= 0 {
		cfg.HousekeepInterval = time.Second
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 1024
	}
	if cfg.Risk.Tolerance == "" {
		cfg.Risk.Tolerance = "0.001"
	}

	tick, err := model.ParsePrice(cfg.Tick, cfg.PriceScale)
	if err != nil || tick <= 0 {
		return Loaded{}, errors.Wrapf(exception.ErrConfigBadDecimal, "tick %q", cfg.Tick)
	}
	quoteQty, err := model.ParseQuantity(cfg.QuoteQty, cfg.QuantityScale)
	if err != nil || quoteQty <= 0 {
		return Loaded{}, errors.Wrapf(exception.ErrConfigBadDecimal, "quoteQty %q", cfg.QuoteQty)
	}

	riskCfg, err := resolveRisk(cfg.Risk, cfg.QuantityScale)
	if err != nil {
		return Loaded{}, err
	}

	return Loaded{
		Maker: maker.Config{
			Symbol:        cfg.Symbol,
			PriceScale:    cfg.PriceScale,
			QuantityScale: cfg.QuantityScale,
			Tick:          tick,
			QuoteQty:      quoteQty,
			SnapshotLimit: cfg.SnapshotLimit,
			ResyncDelay:   cfg.ResyncDelay,
			StaleAfter:    cfg.OrderTimeout,
		},
		Risk:              riskCfg,
		WsURL:             cfg.WsURL,
		RestURL:           cfg.RestURL,
		QueueCapacity:     cfg.QueueCapacity,
		HousekeepInterval: cfg.HousekeepInterval,
		Credentials: exchange.Credentials{
			Key:    os.Getenv(envAPIKey),
			Secret: os.Getenv(envAPISecret),
		},
		Postgres:  cfg.Postgres,
		Pyroscope: cfg.Pyroscope,
	}, nil
}

func resolveRisk(cfg RiskFileConfig, quantityScale int) (risk.Config, error) {
	maxLong, err := model.ParseQuantity(cfg.MaxLong, quantityScale)
	if err != nil {
		return risk.Config{}, errors.Wrapf(exception.ErrConfigBadDecimal, "maxLong %q", cfg.MaxLong)
	}
	maxShort, err := model.ParseQuantity(cfg.MaxShort, quantityScale)
	if err != nil {
		return risk.Config{}, errors.Wrapf(exception.ErrConfigBadDecimal, "maxShort %q", cfg.MaxShort)
	}
	maxOrderQty, err := model.ParseQuantity(cfg.MaxOrderQty, quantityScale)
	if err != nil {
		return risk.Config{}, errors.Wrapf(exception.ErrConfigBadDecimal, "maxOrderQty %q", cfg.MaxOrderQty)
	}
	tolerance, err := model.ParseQuantity(cfg.Tolerance, quantityScale)
	if err != nil {
		return risk.Config{}, errors.Wrapf(exception.ErrConfigBadDecimal, "tolerance %q", cfg.Tolerance)
	}

	if maxLong < 0 || maxShort > 0 || maxOrderQty <= 0 {
		return risk.Config{}, exception.ErrConfigInvalidLimit
	}

	return risk.Config{
		MaxLong:       maxLong,
		MaxShort:      maxShort,
		MaxOrderQty:   maxOrderQty,
		Tolerance:     tolerance,
		QuantityScale: quantityScale,
	}, nil
}
