package costledger

import (
	"github.com/smallbiznis/provisora/internal/costledger/domain"
	"github.com/smallbiznis/provisora/internal/costledger/repository"
	"github.com/smallbiznis/provisora/internal/costledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("costledger.service",
	fx.Provide(domain.NewValidator),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
