package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/pkg/exception"
)

func validFileConfig() FileConfig {
	return FileConfig{
		Symbol: "BTCUSDT",
		Risk: RiskFileConfig{
			MaxLong:     "5",
			MaxShort:    "-5",
			MaxOrderQty: "1",
		},
	}
}

func TestResolveDefaults(t *testing.T) {
	loaded, err := Resolve(validFileConfig())
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", loaded.Maker.Symbol)
	assert.Equal(t, 2, loaded.Maker.PriceScale)
	assert.Equal(t, 8, loaded.Maker.QuantityScale)
	assert.Equal(t, model.Price(1), loaded.Maker.Tick)
	assert.Equal(t, model.Quantity(60000000), loaded.Maker.QuoteQty)
	assert.Equal(t, 1000, loaded.Maker.SnapshotLimit)
	assert.Equal(t, 5*time.Second, loaded.Maker.ResyncDelay)
	assert.Equal(t, time.Minute, loaded.Maker.StaleAfter)
	assert.Equal(t, time.Second, loaded.HousekeepInterval)
	assert.Equal(t, 1024, loaded.QueueCapacity)

	assert.Equal(t, model.Quantity(5_00000000), loaded.Risk.MaxLong)
	assert.Equal(t, model.Quantity(-5_00000000), loaded.Risk.MaxShort)
	assert.Equal(t, model.Quantity(1_00000000), loaded.Risk.MaxOrderQty)
	assert.Equal(t, model.Quantity(100000), loaded.Risk.Tolerance)
	assert.Equal(t, 8, loaded.Risk.QuantityScale)
}

func TestResolveRejectsBadConfigs(t *testing.T) {
	testCases := []struct {
		desc     string
		mutate   func(*FileConfig)
		expected error
	}{
		{
			desc:     "missing symbol",
			mutate:   func(c *FileConfig) { c.Symbol = "" },
			expected: exception.ErrConfigMissingSymbol,
		},
		{
			desc:     "negative scale",
			mutate:   func(c *FileConfig) { c.PriceScale = -1 },
			expected: exception.ErrConfigInvalidScale,
		},
		{
			desc:   "malformed tick",
			mutate: func(c *FileConfig) { c.Tick = "a lot" },
		},
		{
			desc:   "zero tick",
			mutate: func(c *FileConfig) { c.Tick = "0" },
		},
		{
			desc:   "malformed quote quantity",
			mutate: func(c *FileConfig) { c.QuoteQty = "?" },
		},
		{
			desc:   "malformed risk limit",
			mutate: func(c *FileConfig) { c.Risk.MaxLong = "many" },
		},
		{
			desc:     "negative long limit",
			mutate:   func(c *FileConfig) { c.Risk.MaxLong = "-1" },
			expected: exception.ErrConfigInvalidLimit,
		},
		{
			desc:     "positive short limit",
			mutate:   func(c *FileConfig) { c.Risk.MaxShort = "1" },
			expected: exception.ErrConfigInvalidLimit,
		},
		{
			desc:     "zero max order quantity",
			mutate:   func(c *FileConfig) { c.Risk.MaxOrderQty = "0" },
			expected: exception.ErrConfigInvalidLimit,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := validFileConfig()
			tc.mutate(&cfg)
			_, err := Resolve(cfg)
			require.Error(t, err)
			if tc.expected != nil {
				assert.ErrorIs(t, err, tc.expected)
			}
		})
	}
}

func TestResolveCredentialsFromEnv(t *testing.T) {
	t.Setenv("MAKER_API_KEY", "key-from-env")
	t.Setenv("MAKER_API_SECRET", "secret-from-env")

	loaded, err := Resolve(validFileConfig())
	require.NoError(t, err)
	assert.Equal(t, "key-from-env", loaded.Credentials.Key)
	assert.Equal(t, "secret-from-env", loaded.Credentials.Secret)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"symbol": "ETHUSDT",
		"tick": "0.05",
		"quoteQty": "1.5",
		"resyncDelay": 2000000000,
		"risk": {"maxLong": "10", "maxShort": "-10", "maxOrderQty": "2"}
	}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", loaded.Maker.Symbol)
	assert.Equal(t, model.Price(5), loaded.Maker.Tick)
	assert.Equal(t, model.Quantity(1_50000000), loaded.Maker.QuoteQty)
	assert.Equal(t, 2*time.Second, loaded.Maker.ResyncDelay)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
