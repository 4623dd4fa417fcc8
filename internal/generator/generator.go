package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/scatter/internal/core/cluster"
	"github.com/zeusync/scatter/internal/core/events/bus"
	"github.com/zeusync/scatter/internal/core/geom"
	"github.com/zeusync/scatter/internal/core/models"
	"github.com/zeusync/scatter/internal/core/noise"
	"github.com/zeusync/scatter/internal/core/observability/log"
	"github.com/zeusync/scatter/internal/core/registry"
	"github.com/zeusync/scatter/internal/core/spawn"
	"github.com/zeusync/scatter/pkg/rng"
)

// State names the phases of a tick.
type State uint8

const (
	StateIdle State = iota
	StateCapacityCheck
	StateClearAll
	StateSpawnDecision
	StateNoSpawn
	StateSpawnAndLabel
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapacityCheck:
		return "capacity_check"
	case StateClearAll:
		return "clear_all"
	case StateSpawnDecision:
		return "spawn_decision"
	case StateNoSpawn:
		return "no_spawn"
	case StateSpawnAndLabel:
		return "spawn_and_label"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// TickResult reports what a single tick did.
type TickResult struct {
	// Path lists the states visited after Idle, in order.
	Path     []State
	Spawned  bool
	ObjectID models.ObjectID
	Label    models.Label
	Noise    float64
	Evicted  int
	Cleared  int
}

// Stats accumulates counters over the generator's lifetime.
type Stats struct {
	Ticks    uint64
	Spawned  uint64
	Rejected uint64
	Evicted  uint64
	Cleared  uint64
	Failures uint64
	Live     int
	Seeds    int
}

// Generator places objects on noise-gated ticks and colors them by spatial
// cluster. It owns its registry and cluster state; callers must serialize
// calls.
type Generator struct {
	id     string
	cfg    Config
	scene  models.Scene
	logger log.Log
	bus    bus.EventBus

	registry  *registry.Registry
	clusterer *cluster.Clusterer
	gate      spawn.Gate

	gateRnd  models.RandomSource
	labelRnd models.RandomSource
	// fixedSampler is set when the sampler was injected and must survive
	// reconfiguration.
	fixedSampler noise.Sampler

	clearRequested bool
	closed         bool
	stats          Stats
}

// Option customizes a Generator at construction.
type Option func(*Generator)

// WithLogger sets the logger. The default discards output.
func WithLogger(l log.Log) Option {
	return func(g *Generator) { g.logger = l }
}

// WithBus publishes lifecycle events on b.
func WithBus(b bus.EventBus) Option {
	return func(g *Generator) { g.bus = b }
}

// WithSampler replaces the Perlin sampler built from the config.
func WithSampler(s noise.Sampler) Option {
	return func(g *Generator) { g.fixedSampler = s }
}

// WithRandom replaces the seeded random streams for the gate and the label
// picker. Both may be the same source.
func WithRandom(gate, labels models.RandomSource) Option {
	return func(g *Generator) {
		g.gateRnd = gate
		g.labelRnd = labels
	}
}

// New validates cfg and builds a generator bound to scene. When colors are
// enabled the cluster seeds are bootstrapped before New returns.
func New(cfg Config, scene models.Scene, opts ...Option) (*Generator, error) {
	if scene == nil {
		return nil, ErrNilScene
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == "" {
		cfg.Mode = spawn.ModeNoise
	}

	g := &Generator{
		id:    uuid.NewString(),
		cfg:   cfg,
		scene: scene,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.NewNop()
	}
	g.logger = g.logger.With(log.String("generator", g.id))
	if g.gateRnd == nil {
		g.gateRnd = rng.NewStream(cfg.Seed, "gate")
	}
	if g.labelRnd == nil {
		g.labelRnd = rng.NewStream(cfg.Seed, "labels")
	}

	g.registry = registry.New(scene, min(cfg.MaxObjects, 1024))
	g.registry.OnEvict(func(id models.ObjectID) {
		g.publish(EventObjectEvicted, EvictedEvent{ObjectID: id})
	})

	g.applyGate()
	c, res, err := g.buildClusterer(cfg)
	if err != nil {
		return nil, err
	}
	g.installClusterer(c, res)
	return g, nil
}

// ID identifies this generator instance in logs and events.
func (g *Generator) ID() string {
	return g.id
}

// Tick runs one Idle → CapacityCheck → [ClearAll] → SpawnDecision →
// NoSpawn|SpawnAndLabel → Idle cycle. Errors from scene services end the
// tick early; a handle is only registered once it was created and placed.
func (g *Generator) Tick(ctx context.Context) (TickResult, error) {
	res := TickResult{Label: models.NoLabel}
	if g.closed {
		return res, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	g.stats.Ticks++

	res.Path = append(res.Path, StateCapacityCheck)
	evicted, err := g.registry.EnforceCapacity(g.cfg.MaxObjects)
	res.Evicted += evicted
	g.stats.Evicted += uint64(evicted)
	if err != nil {
		return res, g.fail("enforce capacity", err)
	}

	if g.clearRequested {
		g.clearRequested = false
		res.Path = append(res.Path, StateClearAll)
		cleared, err := g.registry.Clear()
		res.Cleared = cleared
		g.stats.Cleared += uint64(cleared)
		g.publish(EventObjectsCleared, ClearedEvent{Count: cleared})
		if err != nil {
			return res, g.fail("clear objects", err)
		}
	}

	res.Path = append(res.Path, StateSpawnDecision)
	if g.cfg.MaxObjects == 0 {
		res.Path = append(res.Path, StateNoSpawn)
		g.stats.Rejected++
		return res, nil
	}

	decision := g.gate.Decide(g.gateRnd)
	res.Noise = decision.Noise
	if !decision.Spawn {
		res.Path = append(res.Path, StateNoSpawn)
		g.stats.Rejected++
		return res, nil
	}

	res.Path = append(res.Path, StateSpawnAndLabel)
	if err := g.spawn(decision, &res); err != nil {
		return res, g.fail("spawn object", err)
	}
	return res, nil
}

func (g *Generator) spawn(d spawn.Decision, res *TickResult) error {
	// Eviction precedes creation; a failed release aborts the spawn.
	evicted, err := g.registry.MakeRoom(g.cfg.MaxObjects)
	res.Evicted += evicted
	g.stats.Evicted += uint64(evicted)
	if err != nil {
		return err
	}

	position := g.scene.MapPosition(d.U, d.V)
	id, err := g.scene.CreateObject()
	if err != nil {
		return err
	}
	if err := g.scene.PlaceObject(id, position, g.cfg.ObjectScale); err != nil {
		if derr := g.scene.DestroyObject(id); derr != nil {
			err = errors.Join(err, fmt.Errorf("destroy unplaced object %d: %w", id, derr))
		}
		return err
	}

	g.registry.Register(id)
	res.Spawned = true
	res.ObjectID = id
	g.stats.Spawned++

	event := SpawnedEvent{
		ObjectID: id,
		Position: position,
		U:        d.U,
		V:        d.V,
		Noise:    d.Noise,
		Scale:    g.cfg.ObjectScale,
		Label:    models.NoLabel,
	}

	if g.clusterer != nil {
		label, err := g.clusterer.Update(geom.Vec3{X: d.U, Y: d.V})
		if err != nil {
			return fmt.Errorf("label object %d: %w", id, err)
		}
		res.Label = label
		event.Label = label

		color, _ := g.cfg.Color(label)
		event.Color = color.Hex()
		if err := g.scene.SetAppearance(id, label, color); err != nil {
			return fmt.Errorf("set appearance of object %d: %w", id, err)
		}
	}

	g.publish(EventObjectSpawned, event)
	g.logger.Debug("Object spawned",
		log.Uint64("object", uint64(id)),
		log.Float64("noise", d.Noise),
		log.Int("label", int(res.Label)),
		log.Int("live", g.registry.Len()),
	)
	return nil
}

// RequestClear arms the one-shot clear; the next tick drains the registry.
func (g *Generator) RequestClear() {
	g.clearRequested = true
}

// ClearRequested reports whether a clear is pending.
func (g *Generator) ClearRequested() bool {
	return g.clearRequested
}

// Configure validates and applies cfg. Capacity changes take effect on the
// next tick. Changes to colors, palette size, near threshold or seed target
// rebuild and re-bootstrap the cluster state.
func (g *Generator) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Mode == "" {
		cfg.Mode = spawn.ModeNoise
	}

	// Build everything that can fail before committing any state.
	rebuild := cfg.clusterChanged(g.cfg)
	var (
		next *cluster.Clusterer
		res  cluster.BootstrapResult
	)
	if rebuild {
		var err error
		if next, res, err = g.buildClusterer(cfg); err != nil {
			return err
		}
	}

	prev := g.cfg
	g.cfg = cfg
	if cfg.samplerChanged(prev) {
		g.gate.Sampler = nil
	}
	g.applyGate()
	if rebuild {
		g.installClusterer(next, res)
	}
	g.logger.Info("Generator reconfigured",
		log.Int("max_objects", cfg.MaxObjects),
		log.Float64("threshold", cfg.Threshold),
		log.Bool("colors", cfg.Colors),
	)
	return nil
}

// Config returns the active configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Objects returns the live handles, oldest first.
func (g *Generator) Objects() []models.ObjectID {
	return g.registry.Items()
}

// Seeds returns the cluster seeds, or nil when colors are disabled.
func (g *Generator) Seeds() []cluster.Seed {
	if g.clusterer == nil {
		return nil
	}
	return g.clusterer.Seeds()
}

func (g *Generator) Stats() Stats {
	s := g.stats
	s.Live = g.registry.Len()
	if g.clusterer != nil {
		s.Seeds = g.clusterer.SeedCount()
	}
	return s
}

// Close releases every live object. Further ticks fail with ErrClosed.
func (g *Generator) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	cleared, err := g.registry.Clear()
	g.stats.Cleared += uint64(cleared)
	if err != nil {
		return fmt.Errorf("close generator: %w", err)
	}
	return nil
}

func (g *Generator) applyGate() {
	sampler := g.fixedSampler
	if sampler == nil {
		sampler = g.gate.Sampler
	}
	if sampler == nil {
		sampler = noise.NewPerlin(g.cfg.NoiseSeed, g.cfg.Octaves)
	}
	g.gate = spawn.Gate{
		Sampler:   sampler,
		Params:    g.cfg.Noise,
		Threshold: g.cfg.Threshold,
		Mode:      g.cfg.Mode,
	}
}

// buildClusterer creates and bootstraps the cluster state for cfg without
// touching the generator. It returns nil when colors are disabled.
func (g *Generator) buildClusterer(cfg Config) (*cluster.Clusterer, cluster.BootstrapResult, error) {
	if !cfg.Colors {
		return nil, cluster.BootstrapResult{}, nil
	}

	c, err := cluster.New(cfg.NearThreshold, len(cfg.Palette), g.labelRnd)
	if err != nil {
		return nil, cluster.BootstrapResult{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	res, err := cluster.Bootstrapper{
		TargetSeeds:   cfg.DistributionSeeds,
		MaxIterations: cfg.MaxBootstrapIterations,
		Logger:        g.logger,
	}.Run(c)
	if err != nil {
		return nil, cluster.BootstrapResult{}, fmt.Errorf("bootstrap color distribution: %w", err)
	}
	return c, res, nil
}

func (g *Generator) installClusterer(c *cluster.Clusterer, res cluster.BootstrapResult) {
	g.clusterer = c
	if c == nil {
		return
	}
	g.publish(EventClusterBootstrapped, BootstrappedEvent{
		Seeds:      res.Seeds,
		Target:     res.Target,
		Iterations: res.Iterations,
	})
}

func (g *Generator) publish(eventType string, data any) {
	if g.bus == nil {
		return
	}
	if err := g.bus.Publish(bus.NewEvent(eventType, g.id, data)); err != nil {
		g.logger.Warn("Event handler failed", log.String("event", eventType), log.Error(err))
	}
}

func (g *Generator) fail(op string, err error) error {
	g.stats.Failures++
	g.logger.Error("Tick failed", log.String("op", op), log.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
