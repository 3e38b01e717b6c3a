package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amirphl/marketplace-settlement/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(config.LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     "file",
		FilePath:   path,
		MaxSize:    1,
		MaxBackups: 1,
	})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("payment settled", zap.String("transaction_id", "pi_1"))
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"payment settled"`)
	assert.Contains(t, string(raw), `"transaction_id":"pi_1"`)
	assert.NotContains(t, string(raw), "hidden")
}
