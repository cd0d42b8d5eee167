package graphcbo

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// fileConfig is the TOML layout accepted by LoadConfig:
//
//	[estimator]
//	max_pattern_size = 3
//	cache_capacity = 10000
//	disable_label_delta = false
//	parallelism = 8
//
//	[catalog]
//	path = "stats.db"
type fileConfig struct {
	Estimator struct {
		MaxPatternSize    int  `toml:"max_pattern_size"`
		CacheCapacity     *int `toml:"cache_capacity"`
		DisableLabelDelta bool `toml:"disable_label_delta"`
		Parallelism       int  `toml:"parallelism"`
	} `toml:"estimator"`
	Catalog struct {
		Path string `toml:"path"`
	} `toml:"catalog"`
}

// Config is the decoded configuration file.
type Config struct {
	Options     Options
	CatalogPath string
}

// LoadConfig reads a TOML configuration file. Omitted settings keep the
// values of DefaultOptions; cache_capacity = 0 disables the cache.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "graphcbo: read config %s", path)
	}
	return ParseConfig(string(data))
}

// ParseConfig decodes TOML configuration text.
func ParseConfig(text string) (Config, error) {
	var fc fileConfig
	md, err := toml.Decode(text, &fc)
	if err != nil {
		return Config{}, errors.Wrap(err, "graphcbo: could not decode TOML config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Newf("graphcbo: unknown config keys %v", undecoded)
	}

	opts := DefaultOptions()
	if fc.Estimator.MaxPatternSize < 0 {
		return Config{}, errors.Newf("graphcbo: max_pattern_size %d is negative", fc.Estimator.MaxPatternSize)
	}
	opts.MaxPatternSizeOverride = fc.Estimator.MaxPatternSize
	if fc.Estimator.CacheCapacity != nil {
		opts.CacheCapacity = *fc.Estimator.CacheCapacity
	}
	opts.DisableLabelDelta = fc.Estimator.DisableLabelDelta
	if fc.Estimator.Parallelism > 0 {
		opts.Parallelism = fc.Estimator.Parallelism
	}
	return Config{Options: opts, CatalogPath: fc.Catalog.Path}, nil
}
