package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scatter/internal/config"
	"github.com/zeusync/scatter/internal/core/events/bus"
	"github.com/zeusync/scatter/internal/core/observability/log"
	"github.com/zeusync/scatter/internal/generator"
	"github.com/zeusync/scatter/internal/runner"
	"github.com/zeusync/scatter/internal/scene"
	"github.com/zeusync/scatter/internal/server"
)

// App is the wired object graph of a scatter process.
type App struct {
	Config    config.Config
	Logger    log.Log
	Bus       bus.EventBus
	Scene     *scene.Scene
	Generator *generator.Generator
	Runner    *runner.Runner
	Server    *server.Server
}

// ProviderSet builds an App from a loaded config and a logger.
var ProviderSet = wire.NewSet(
	ProvideBus,
	ProvideScene,
	ProvideGenerator,
	ProvideRunner,
	ProvideServer,
	wire.Struct(new(App), "*"),
)

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideScene(cfg config.Config) *scene.Scene {
	return scene.New(cfg.Viewport)
}

func ProvideGenerator(cfg config.Config, s *scene.Scene, logger log.Log, eventBus bus.EventBus) (*generator.Generator, error) {
	genCfg, err := cfg.Generator()
	if err != nil {
		return nil, err
	}
	return generator.New(genCfg, s,
		generator.WithLogger(logger.With(log.String("component", "generator"))),
		generator.WithBus(eventBus),
	)
}

func ProvideRunner(cfg config.Config, gen *generator.Generator, logger log.Log) (*runner.Runner, error) {
	return runner.New(gen, cfg.TickRate,
		runner.WithMaxTicks(cfg.MaxTicks),
		runner.WithLogger(logger.With(log.String("component", "runner"))),
	)
}

func ProvideServer(cfg config.Config, eventBus bus.EventBus, logger log.Log, r *runner.Runner) (*server.Server, error) {
	srvCfg := server.DefaultConfig()
	srvCfg.Addr = cfg.Server.Addr
	srvCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	return server.New(srvCfg, eventBus, logger,
		server.WithStats(r.StatsAny),
		server.WithClear(r.RequestClear),
	)
}
