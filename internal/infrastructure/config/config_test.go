package config

import (
	"testing"
	"time"

	"github.com/retreat/backend/internal/domain/pricing"
	"github.com/retreat/backend/internal/domain/reservation"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "retreat-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "retreat", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 5, cfg.Import.BatchSize)
		assert.Equal(t, "memory", cfg.Import.DedupBackend)
		assert.Equal(t, 30*time.Minute, cfg.Import.DedupTTL)
		assert.Equal(t, "db", cfg.Import.ItemSource)
		assert.Equal(t, pricing.CostBasisRetail, cfg.Pricing.DefaultCostBasis)
		assert.True(t, decimal.NewFromInt(10000).Equal(cfg.Pricing.OverageRate))
		assert.Len(t, cfg.Pricing.IngredientPrices, 5)
	})

	t.Run("loads values from environment variables with RETREAT prefix", func(t *testing.T) {
		t.Setenv("RETREAT_APP_NAME", "test-app")
		t.Setenv("RETREAT_APP_PORT", "9000")
		t.Setenv("RETREAT_DATABASE_DRIVER", "sqlite")
		t.Setenv("RETREAT_DATABASE_SQLITE_PATH", "/tmp/ledger.db")
		t.Setenv("RETREAT_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("RETREAT_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("RETREAT_IMPORT_BATCH_SIZE", "8")
		t.Setenv("RETREAT_IMPORT_DEDUP_BACKEND", "redis")
		t.Setenv("RETREAT_IMPORT_DEDUP_TTL", "5m")
		t.Setenv("RETREAT_PRICING_OVERAGE_RATE", "12500")
		t.Setenv("RETREAT_PRICING_DEFAULT_COST_BASIS", "ingredient")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "/tmp/ledger.db", cfg.Database.SQLitePath)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 8, cfg.Import.BatchSize)
		assert.Equal(t, "redis", cfg.Import.DedupBackend)
		assert.Equal(t, 5*time.Minute, cfg.Import.DedupTTL)
		assert.True(t, decimal.NewFromInt(12500).Equal(cfg.Pricing.OverageRate))
		assert.Equal(t, pricing.CostBasisIngredient, cfg.Pricing.DefaultCostBasis)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("RETREAT_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("RETREAT_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		t.Setenv("RETREAT_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects malformed overage rate", func(t *testing.T) {
		t.Setenv("RETREAT_PRICING_OVERAGE_RATE", "ten thousand")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pricing.overage_rate")
	})

	t.Run("rejects unknown cost basis", func(t *testing.T) {
		t.Setenv("RETREAT_PRICING_DEFAULT_COST_BASIS", "wholesale")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "default_cost_basis")
	})

	t.Run("csv item source requires a directory", func(t *testing.T) {
		t.Setenv("RETREAT_IMPORT_ITEM_SOURCE", "csv")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "import.csv_dir")
	})

	t.Run("s3 item source requires bucket and credentials", func(t *testing.T) {
		t.Setenv("RETREAT_IMPORT_ITEM_SOURCE", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")

		t.Setenv("RETREAT_STORAGE_BUCKET", "retreat-items")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.access_key")

		t.Setenv("RETREAT_STORAGE_ACCESS_KEY", "key")
		t.Setenv("RETREAT_STORAGE_SECRET_KEY", "secret")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", cfg.Storage.Region)
		assert.Equal(t, "retreat-items", cfg.Storage.Bucket)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("RETREAT_APP_ENV", "production")
		t.Setenv("RETREAT_DATABASE_PASSWORD", "secure-password")
		t.Setenv("RETREAT_DATABASE_SSLMODE", "require")
		t.Setenv("RETREAT_IMPORT_DEDUP_BACKEND", "redis")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("RETREAT_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("RETREAT_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("requires shared dedup backend in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("RETREAT_IMPORT_DEDUP_BACKEND", "memory")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "import.dedup_backend must be redis")
	})

	t.Run("rejects full SQL in spans in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("RETREAT_TELEMETRY_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestFromViper_IngredientPrices(t *testing.T) {
	v := viper.New()
	v.Set("pricing.ingredient_prices", map[string]any{
		"breakfast": "3000",
		"dinner":    "7000.5",
	})

	cfg, err := fromViper(v)
	require.NoError(t, err)

	require.Len(t, cfg.Pricing.IngredientPrices, 2)
	assert.True(t, decimal.NewFromInt(3000).Equal(cfg.Pricing.IngredientPrices[reservation.MealTypeBreakfast]))
	assert.True(t, decimal.RequireFromString("7000.5").Equal(cfg.Pricing.IngredientPrices[reservation.MealTypeDinner]))

	calc := cfg.Pricing.CalculatorConfig()
	assert.True(t, cfg.Pricing.OverageRate.Equal(calc.OverageRate))
	assert.Equal(t, cfg.Pricing.IngredientPrices, calc.IngredientPrices)
}

func TestFromViper_RejectsNegativeIngredientPrice(t *testing.T) {
	v := viper.New()
	v.Set("pricing.ingredient_prices", map[string]any{"lunch": "-1"})

	_, err := fromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be negative")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
