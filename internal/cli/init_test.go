package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	seed := filepath.Join(t.TempDir(), "seed.csv")
	csv := "Date,Time,Type,Income,Expense,Remaining Balance,Category,Income/Expense\n" +
		"2024-03-01,09:00,pay,1000,,1000,Salary,Income\n"
	require.NoError(t, os.WriteFile(seed, []byte(csv), 0o600))
	return &config.Config{
		DataBackend: config.BackendMemory,
		SeedFile:    seed,
		SessionTTL:  time.Hour,
	}
}

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Output: &bytes.Buffer{}})
}

func TestBuildAppMemory(t *testing.T) {
	app, err := BuildApp(context.Background(), memoryConfig(t), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	assert.Nil(t, app.Notifier)
	d, err := app.Service.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Totals{Income: 1000, Balance: 1000}, d.Totals)

	cats, err := app.Service.Categories(context.Background(), "sid", core.KindIncome)
	require.NoError(t, err)
	assert.Contains(t, cats, "Salary")
}

func TestBuildAppRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()

	app, err := BuildApp(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	list, err := app.Service.AddCategory(context.Background(), "sid", core.KindExpense, "Pets")
	require.NoError(t, err)
	assert.Equal(t, "Pets", list[len(list)-1])
	assert.NotEmpty(t, mr.Keys())
}

func TestBuildAppCategoriesFile(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.CategoriesFile = filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(cfg.CategoriesFile, []byte("income:\n  - Rent\n"), 0o600))

	app, err := BuildApp(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	cats, err := app.Service.Categories(context.Background(), "sid", core.KindIncome)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rent"}, cats)
}

func TestBuildAppErrors(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.DataBackend = "excel"
	_, err := BuildApp(context.Background(), cfg, testLogger())
	assert.Error(t, err)

	cfg = memoryConfig(t)
	cfg.RedisURL = "redis://127.0.0.1:1"
	_, err = BuildApp(context.Background(), cfg, testLogger())
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FINTRACK_TEST_VALUE=loaded\n"), 0o600))
	t.Setenv("FINTRACK_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("FINTRACK_TEST_VALUE"))
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("FINTRACK_TEST_VALUE"))
}
