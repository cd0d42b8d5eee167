package graphcbo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(`
[estimator]
max_pattern_size = 2
cache_capacity = 64
disable_label_delta = true
parallelism = 3

[catalog]
path = "/var/lib/graphcbo/stats.db"
`)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Options.MaxPatternSizeOverride != 2 {
		t.Errorf("MaxPatternSizeOverride = %d, want 2", cfg.Options.MaxPatternSizeOverride)
	}
	if cfg.Options.CacheCapacity != 64 {
		t.Errorf("CacheCapacity = %d, want 64", cfg.Options.CacheCapacity)
	}
	if !cfg.Options.DisableLabelDelta {
		t.Error("DisableLabelDelta = false, want true")
	}
	if cfg.Options.Parallelism != 3 {
		t.Errorf("Parallelism = %d, want 3", cfg.Options.Parallelism)
	}
	if cfg.CatalogPath != "/var/lib/graphcbo/stats.db" {
		t.Errorf("CatalogPath = %q", cfg.CatalogPath)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig("")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	def := DefaultOptions()
	if cfg.Options.CacheCapacity != def.CacheCapacity {
		t.Errorf("CacheCapacity = %d, want %d", cfg.Options.CacheCapacity, def.CacheCapacity)
	}
	if cfg.Options.Parallelism != def.Parallelism {
		t.Errorf("Parallelism = %d, want %d", cfg.Options.Parallelism, def.Parallelism)
	}
	if cfg.Options.MaxPatternSizeOverride != 0 {
		t.Errorf("MaxPatternSizeOverride = %d, want 0", cfg.Options.MaxPatternSizeOverride)
	}
	if cfg.CatalogPath != "" {
		t.Errorf("CatalogPath = %q, want empty", cfg.CatalogPath)
	}

	// An explicit zero disables the cache.
	cfg, err = ParseConfig("[estimator]\ncache_capacity = 0\n")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Options.CacheCapacity != 0 {
		t.Errorf("CacheCapacity = %d, want 0", cfg.Options.CacheCapacity)
	}
}

func TestParseConfigRejectsBadInput(t *testing.T) {
	cases := []struct {
		name, text, want string
	}{
		{"unknown key", "[estimator]\nmax_pattern_sise = 2\n", "unknown config keys"},
		{"negative size", "[estimator]\nmax_pattern_size = -1\n", "negative"},
		{"bad toml", "[estimator\n", "decode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig(tc.text)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphcbo.toml")
	if err := os.WriteFile(path, []byte("[catalog]\npath = \"stats.db\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CatalogPath != "stats.db" {
		t.Errorf("CatalogPath = %q, want stats.db", cfg.CatalogPath)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for a missing file")
	}
}
