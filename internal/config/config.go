package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/scatter/internal/core/cluster"
	"github.com/zeusync/scatter/internal/core/noise"
	"github.com/zeusync/scatter/internal/core/spawn"
	"github.com/zeusync/scatter/internal/generator"
	"github.com/zeusync/scatter/internal/scene"
	"github.com/zeusync/scatter/pkg/rng"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCATTER_"

// Config is the on-disk configuration for a scatter process.
type Config struct {
	// Seed names the world. Numeric strings are used verbatim, anything else
	// is hashed.
	Seed     string  `yaml:"seed"`
	LogLevel string  `yaml:"log_level"`
	TickRate float64 `yaml:"tick_rate"`
	// MaxTicks stops the tick loop after that many ticks. Zero runs forever.
	MaxTicks uint64 `yaml:"max_ticks"`

	Objects  ObjectsConfig  `yaml:"objects"`
	Noise    NoiseConfig    `yaml:"noise"`
	Spawn    SpawnConfig    `yaml:"spawn"`
	Colors   ColorsConfig   `yaml:"colors"`
	Viewport scene.Viewport `yaml:"viewport"`
	Server   ServerConfig   `yaml:"server"`
}

type ObjectsConfig struct {
	Max   int     `yaml:"max"`
	Scale float64 `yaml:"scale"`
}

type NoiseConfig struct {
	noise.Params `yaml:",inline"`
	Seed         string `yaml:"seed"`
	Octaves      int    `yaml:"octaves"`
}

type SpawnConfig struct {
	Threshold float64 `yaml:"threshold"`
	Mode      string  `yaml:"mode"`
}

type ColorsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Palette []string `yaml:"palette"`
	// Seeds is the distribution seed count the bootstrap aims for.
	Seeds int `yaml:"seeds"`
	// NearThreshold is a squared distance in normalized screen space.
	NearThreshold float64 `yaml:"near_threshold"`
	MaxIterations int     `yaml:"max_iterations"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Seed:     "0",
		LogLevel: "info",
		TickRate: 60,
		Objects:  ObjectsConfig{Max: 500, Scale: 0.2},
		Noise: NoiseConfig{
			Params:  noise.Params{Scale: 10},
			Seed:    "0",
			Octaves: noise.DefaultOctaves,
		},
		Spawn: SpawnConfig{Threshold: 0.7, Mode: string(spawn.ModeNoise)},
		Colors: ColorsConfig{
			Enabled:       true,
			Seeds:         8,
			NearThreshold: 0.02,
			MaxIterations: cluster.DefaultMaxIterations,
		},
		Viewport: scene.DefaultViewport(),
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// Decode reads YAML over the defaults. Keys missing from the document keep
// their default values.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Load reads path (when non-empty), loads .env files if present, applies
// SCATTER_* overrides and validates the result.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if cfg, err = Decode(f); err != nil {
			return Config{}, err
		}
	}

	if err := loadEnvFiles(envFiles...); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFiles(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from SCATTER_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	unsigned := func(key string, dst *uint64) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("SEED", &c.Seed)
	str("LOG_LEVEL", &c.LogLevel)
	num("TICK_RATE", &c.TickRate)
	unsigned("MAX_TICKS", &c.MaxTicks)
	integer("MAX_OBJECTS", &c.Objects.Max)
	num("OBJECT_SCALE", &c.Objects.Scale)
	num("NOISE_ORIGIN_X", &c.Noise.OriginX)
	num("NOISE_ORIGIN_Y", &c.Noise.OriginY)
	num("NOISE_SCALE", &c.Noise.Scale)
	str("NOISE_SEED", &c.Noise.Seed)
	integer("NOISE_OCTAVES", &c.Noise.Octaves)
	num("THRESHOLD", &c.Spawn.Threshold)
	str("SPAWN_MODE", &c.Spawn.Mode)
	boolean("COLORS", &c.Colors.Enabled)
	integer("DISTRIBUTION_SEEDS", &c.Colors.Seeds)
	num("NEAR_THRESHOLD", &c.Colors.NearThreshold)
	integer("MAX_ITERATIONS", &c.Colors.MaxIterations)
	num("VIEWPORT_WIDTH", &c.Viewport.Width)
	num("VIEWPORT_HEIGHT", &c.Viewport.Height)
	num("VIEWPORT_CAMERA_Z", &c.Viewport.CameraZ)
	num("VIEWPORT_NEAR", &c.Viewport.Near)
	num("VIEWPORT_FAR", &c.Viewport.Far)
	str("SERVER_ADDR", &c.Server.Addr)
	if v, ok := lookup(EnvPrefix + "PALETTE"); ok {
		c.Colors.Palette = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}

	return errors.Join(errs...)
}

// Validate checks everything Generator would reject plus process settings.
func (c Config) Validate() error {
	var errs []error
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick rate must be positive, got %v", c.TickRate))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, errors.New("viewport width and height must be positive"))
	}
	gen, err := c.Generator()
	if err != nil {
		errs = append(errs, err)
	} else if err := gen.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Generator converts the file configuration into a generator configuration.
func (c Config) Generator() (generator.Config, error) {
	mode, err := spawn.ParseMode(c.Spawn.Mode)
	if err != nil {
		return generator.Config{}, err
	}
	palette, err := ParsePalette(c.Colors.Palette)
	if err != nil {
		return generator.Config{}, err
	}
	if len(palette) == 0 {
		palette = generator.DefaultPalette()
	}

	return generator.Config{
		MaxObjects:             c.Objects.Max,
		ObjectScale:            c.Objects.Scale,
		Noise:                  c.Noise.Params,
		NoiseSeed:              rng.SeedFromString(c.Noise.Seed),
		Octaves:                c.Noise.Octaves,
		Threshold:              c.Spawn.Threshold,
		Mode:                   mode,
		Colors:                 c.Colors.Enabled,
		Palette:                palette,
		DistributionSeeds:      c.Colors.Seeds,
		NearThreshold:          c.Colors.NearThreshold,
		MaxBootstrapIterations: c.Colors.MaxIterations,
		Seed:                   rng.SeedFromString(c.Seed),
	}, nil
}

// ParsePalette parses hex colors such as "#ff8800".
func ParsePalette(hexes []string) ([]colorful.Color, error) {
	out := make([]colorful.Color, 0, len(hexes))
	var errs []error
	for _, h := range hexes {
		c, err := colorful.Hex(strings.TrimSpace(h))
		if err != nil {
			errs = append(errs, fmt.Errorf("palette color %q: %w", h, err))
			continue
		}
		out = append(out, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
