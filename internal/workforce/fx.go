package workforce

import (
	"github.com/smallbiznis/provisora/internal/workforce/repository"
	"github.com/smallbiznis/provisora/internal/workforce/service"
	"go.uber.org/fx"
)

var Module = fx.Module("workforce.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
