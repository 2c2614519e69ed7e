package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/itohio/dietemp/pkg/config"
	"github.com/itohio/dietemp/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockConfig() *config.Config {
	cfg := config.Default()
	cfg.Sampling.Interval = time.Millisecond
	cfg.Sampling.WarmupIterations = 2
	cfg.Sampling.AverageReadings = 3
	return cfg
}

func TestRun_MockUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, run(ctx, mockConfig(), true))
}

func TestRun_DegenerateStaticCalibration(t *testing.T) {
	cfg := mockConfig()
	cfg.Calibration.Source = config.SourceStatic
	cfg.Calibration.TSCalLow = 1500
	cfg.Calibration.TSCalHigh = 1500
	cfg.Calibration.VrefCal = 1528

	err := run(context.Background(), cfg, true)
	assert.ErrorIs(t, err, errcode.DegenerateCalibration)
	assert.True(t, errcode.Fatal(errcode.Of(err)))
}

func TestRun_MissingStaticCalibration(t *testing.T) {
	cfg := mockConfig()
	cfg.Calibration.Source = config.SourceStatic

	err := run(context.Background(), cfg, true)
	assert.Equal(t, errcode.CalibrationUnavailable, errcode.Of(err))
}

func TestDescribe(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "simulated die", describe(cfg, true))
	assert.Equal(t, "serial port /dev/ttyACM0", describe(cfg, false))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()

	assert.NoError(t, loadEnv(filepath.Join(dir, "missing.env")))

	good := filepath.Join(dir, "good.env")
	require.NoError(t, os.WriteFile(good, []byte("DIETEMP_TEST_TOKEN=secret\n"), 0o600))
	t.Setenv("DIETEMP_TEST_TOKEN", "")
	os.Unsetenv("DIETEMP_TEST_TOKEN")
	require.NoError(t, loadEnv(good))
	assert.Equal(t, "secret", os.Getenv("DIETEMP_TEST_TOKEN"))

	bad := filepath.Join(dir, "bad.env")
	require.NoError(t, os.WriteFile(bad, []byte("B@D=1\n"), 0o600))
	assert.Error(t, loadEnv(bad))
}
