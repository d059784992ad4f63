package provision

import (
	"github.com/smallbiznis/provisora/internal/provision/lock"
	"github.com/smallbiznis/provisora/internal/provision/repository"
	"github.com/smallbiznis/provisora/internal/provision/service"
	"go.uber.org/fx"
)

var Module = fx.Module("provision.service",
	lock.Module,
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
