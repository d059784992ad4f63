package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/provisora/internal/config"
	"github.com/smallbiznis/provisora/internal/contract/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Cfg  config.Config
	Repo domain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	timeout time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("contract.service"),
		repo:    p.Repo,
		timeout: p.Cfg.StoreTimeout,
	}
}

func (s *Service) Lookup(ctx context.Context, id snowflake.ID) (domain.Contract, error) {
	if id == 0 {
		return domain.Contract{}, domain.ErrInvalidID
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Contract{}, err
	}
	if item == nil {
		return domain.Contract{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Contract, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	contracts := make([]domain.Contract, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		contracts = append(contracts, *item)
	}
	return contracts, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
