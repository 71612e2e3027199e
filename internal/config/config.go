// Package config loads the configuration of the httpwire command.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/stealthrocket/httpwire/pkg/httpwire"
	"github.com/tetratelabs/wazero"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is the location of the configuration file when neither
	// HTTPWIRECONFIG nor a command line option set it.
	DefaultPath = "~/.httpwire/config.yaml"

	// PathEnv is the environment variable overriding the default path.
	PathEnv = "HTTPWIRECONFIG"

	defaultCachePath = "~/.httpwire/cache"
)

// DefaultConfigPath returns the path of the configuration file, taking the
// environment into account.
func DefaultConfigPath() Path {
	if p, ok := os.LookupEnv(PathEnv); ok && p != "" {
		return Path(p)
	}
	return DefaultPath
}

// Load opens and reads the configuration file at path. A missing file yields
// the default configuration.
func Load(path Path) (*Config, error) {
	r, _, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Read(r)
}

// Open opens the configuration file at path, and returns the resolved path.
// When the file does not exist, the returned reader produces the default
// configuration.
func Open(path Path) (io.ReadCloser, string, error) {
	resolved, err := path.Resolve()
	if err != nil {
		return nil, resolved, err
	}
	f, err := os.Open(resolved)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, resolved, err
		}
		b, _ := yaml.Marshal(Default())
		return io.NopCloser(bytes.NewReader(b)), resolved, nil
	}
	return f, resolved, nil
}

// Read reads and parses configuration. Unknown fields are errors.
func Read(r io.Reader) (*Config, error) {
	c := Default()
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default is the default configuration.
func Default() *Config {
	c := new(Config)
	c.Log.Level = "info"
	c.Output = "text"
	c.Cache.Location = NullableValue[Path](defaultCachePath)
	return c
}

// Config is the httpwire configuration.
type Config struct {
	Log struct {
		Level string `json:"level" yaml:"level"`
	} `json:"log" yaml:"log"`
	Output string `json:"output" yaml:"output"`
	Frame  struct {
		MaxSize Nullable[int] `json:"maxSize" yaml:"maxSize"`
	} `json:"frame" yaml:"frame"`
	Cache struct {
		Location Nullable[Path] `json:"location" yaml:"location"`
	} `json:"cache" yaml:"cache"`
}

func (c *Config) validate() error {
	switch c.Output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format: %q (not one of text, json, yaml)", c.Output)
	}
	if size, ok := c.Frame.MaxSize.Value(); ok && size <= 0 {
		return fmt.Errorf("frame.maxSize must be positive: %d", size)
	}
	return nil
}

// Limits returns the frame limits set by the configuration.
func (c *Config) Limits() httpwire.Limits {
	size, _ := c.Frame.MaxSize.Value()
	return httpwire.Limits{MaxFrameSize: size}
}

// NewRuntime constructs a wazero.Runtime to load guest body producers in.
// When a cache location is configured, compiled modules are cached there.
func (c *Config) NewRuntime(ctx context.Context) (wazero.Runtime, error) {
	config := wazero.NewRuntimeConfig()

	var cache wazero.CompilationCache
	if cachePath, ok := c.Cache.Location.Value(); ok {
		path, err := cachePath.Resolve()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve httpwire cache location: %w", err)
		}
		cache, err = createCacheDirectory(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create httpwire cache directory: %w", err)
		}
		config = config.WithCompilationCache(cache)
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, config)
	if cache != nil {
		runtime = &runtimeWithCompilationCache{
			Runtime: runtime,
			cache:   cache,
		}
	}
	return runtime, nil
}

type runtimeWithCompilationCache struct {
	wazero.Runtime
	cache wazero.CompilationCache
}

func (r *runtimeWithCompilationCache) Close(ctx context.Context) error {
	defer r.cache.Close(ctx)
	return r.Runtime.Close(ctx)
}

func createCacheDirectory(path string) (wazero.CompilationCache, error) {
	if err := os.MkdirAll(path, 0777); err != nil {
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
	}
	return wazero.NewCompilationCacheWithDir(path)
}
