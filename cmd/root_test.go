// file: cmd/root_test.go
// version: 2.0.0
// guid: 7eae8d0c-7fda-4f45-8f73-5d1e0c7c9f1a

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/jdfalk/bookmeta/internal/config"
)

func TestInitConfigCreatesCacheDirectory(t *testing.T) {
	tempDir := t.TempDir()
	coldPath := filepath.Join(tempDir, "cache", "cold")

	origCfgFile := cfgFile
	origConfig := config.AppConfig
	defer func() {
		cfgFile = origCfgFile
		config.AppConfig = origConfig
		viper.Reset()
	}()

	cfgFile = filepath.Join(tempDir, "config.yaml")

	viper.Reset()
	viper.Set("cache.cold_path", coldPath)
	initConfig()

	if _, err := os.Stat(filepath.Dir(coldPath)); err != nil {
		t.Fatalf("expected cache directory to exist: %v", err)
	}
}

func TestInitConfigUsesHomeConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".bookmeta.yaml")
	if err := os.WriteFile(configPath, []byte("port: \"9090\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	origCfgFile := cfgFile
	origConfig := config.AppConfig
	defer func() {
		cfgFile = origCfgFile
		config.AppConfig = origConfig
		viper.Reset()
	}()

	t.Setenv("HOME", tempDir)
	cfgFile = ""

	viper.Reset()
	initConfig()

	if config.AppConfig.Port != "9090" {
		t.Fatalf("expected port from home config, got %q", config.AppConfig.Port)
	}
}

func TestBuildChainUnknownProvider(t *testing.T) {
	origConfig := config.AppConfig
	defer func() {
		config.AppConfig = origConfig
	}()

	config.AppConfig.Providers.Order = []string{"librarything"}
	if _, err := buildChain(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestBuildChainEmptyOrder(t *testing.T) {
	origConfig := config.AppConfig
	defer func() {
		config.AppConfig = origConfig
	}()

	config.AppConfig.Providers.Order = nil
	if _, err := buildChain(); err == nil {
		t.Fatal("expected error for empty provider order")
	}
}

func TestBuildChainConfiguredOrder(t *testing.T) {
	origConfig := config.AppConfig
	defer func() {
		config.AppConfig = origConfig
	}()

	config.AppConfig.Providers.Order = []string{"openlibrary", "googlebooks"}
	chain, err := buildChain()
	if err != nil {
		t.Fatalf("buildChain failed: %v", err)
	}
	names := chain.Names()
	if len(names) != 2 || names[0] != "openlibrary" || names[1] != "googlebooks" {
		t.Fatalf("unexpected provider order: %v", names)
	}
}

func TestBuildRankerOverrides(t *testing.T) {
	origConfig := config.AppConfig
	defer func() {
		config.AppConfig = origConfig
	}()

	config.AppConfig.Ranking.ReputablePublishers = []string{"acme press"}
	if r := buildRanker(); r == nil {
		t.Fatal("expected ranker")
	}
}

func TestBuildStoreDegradesToHotOnly(t *testing.T) {
	origConfig := config.AppConfig
	defer func() {
		config.AppConfig = origConfig
	}()

	// A regular file where the cold tier directory should be makes the
	// pebble open fail; the store must fall back to hot-only.
	tempDir := t.TempDir()
	blocked := filepath.Join(tempDir, "not-a-dir")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create blocking file: %v", err)
	}

	config.AppConfig.Cache.HotCapacity = 10
	config.AppConfig.Cache.ColdPath = blocked

	store, closeStore, err := buildStore()
	if err != nil {
		t.Fatalf("buildStore failed: %v", err)
	}
	defer closeStore()

	if !store.HasHot() {
		t.Fatal("expected hot tier")
	}
	if store.HasCold() {
		t.Fatal("expected cold tier to be unavailable")
	}
}

func TestExecuteHelp(t *testing.T) {
	tempDir := t.TempDir()

	origCfg := cfgFile
	defer func() {
		cfgFile = origCfg
		viper.Reset()
	}()
	cfgFile = filepath.Join(tempDir, "config.yaml")

	rootCmd.SetArgs([]string{"--help"})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
}
