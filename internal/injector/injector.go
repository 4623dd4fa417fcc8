//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scatter/internal/config"
	"github.com/zeusync/scatter/internal/core/observability/log"
)

func InitializeApp(cfg config.Config, logger log.Log) (*App, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
