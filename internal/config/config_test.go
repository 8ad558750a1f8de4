package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	viper.Reset()

	Init()

	assert.Equal(t, 1, viper.GetInt("version"))
	assert.Equal(t, DefaultAlgorithm, viper.GetString("algorithm"))
	assert.Equal(t, DefaultKeepCount, viper.GetInt("keep_count"))
	assert.Equal(t, DefaultDebounceSeconds, viper.GetInt("debounce_seconds"))
}

func TestLoad_NoConfigFile(t *testing.T) {
	viper.Reset()

	// Run from an empty directory so no stray config.yaml is picked up
	tempDir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	Init()

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultAlgorithm, cfg.Algorithm)
}

func TestLoad_WithConfigFile(t *testing.T) {
	viper.Reset()

	tempDir := t.TempDir()
	cfgPath := filepath.Join(tempDir, "config.yaml")
	content := "version: 1\nalgorithm: lzss\nkeep_count: 9\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	Init()

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "lzss", cfg.Algorithm)
	assert.Equal(t, 9, cfg.KeepCount)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	viper.Reset()
	Init()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg:  &Config{Version: 1, Algorithm: "joined", KeepCount: 3, DebounceSeconds: 2},
		},
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: true,
		},
		{
			name:    "bad version",
			cfg:     &Config{Version: 0, Algorithm: "huffman", DebounceSeconds: 2},
			wantErr: true,
		},
		{
			name:    "unknown algorithm",
			cfg:     &Config{Version: 1, Algorithm: "zstd", DebounceSeconds: 2},
			wantErr: true,
		},
		{
			name:    "negative keep count",
			cfg:     &Config{Version: 1, Algorithm: "lzss", KeepCount: -1, DebounceSeconds: 2},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.cfg)
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}
