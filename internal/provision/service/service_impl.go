package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/provisora/internal/audit/domain"
	"github.com/smallbiznis/provisora/internal/clock"
	"github.com/smallbiznis/provisora/internal/config"
	contractdomain "github.com/smallbiznis/provisora/internal/contract/domain"
	"github.com/smallbiznis/provisora/internal/observability/metrics"
	"github.com/smallbiznis/provisora/internal/provision/domain"
	"github.com/smallbiznis/provisora/internal/provision/lock"
	"github.com/smallbiznis/provisora/internal/reconciliation"
	"github.com/smallbiznis/provisora/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	operationCreate = "create"
	operationUpdate = "update"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Cfg       config.Config
	Repo      domain.Repository
	Engine    *reconciliation.Engine
	Locker    lock.Locker
	Contracts contractdomain.Service
	Audit     auditdomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	engine    *reconciliation.Engine
	locker    lock.Locker
	contracts contractdomain.Service
	audit     auditdomain.Service
	metrics   *metrics.Metrics
	timeout   time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("provision.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		engine:    p.Engine,
		locker:    p.Locker,
		contracts: p.Contracts,
		audit:     p.Audit,
		metrics:   p.Metrics,
		timeout:   p.Cfg.StoreTimeout,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (provision domain.Provision, err error) {
	defer func() { s.metrics.RecordProvisionWrite(operationCreate, outcomeOf(err)) }()

	if req.ContractID == 0 {
		return domain.Provision{}, &domain.FieldError{Fields: []string{"contract_id"}, Err: domain.ErrInvalidContract}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	contractName, err := s.resolveContractName(ctx, req.ContractID, req.ContractName)
	if err != nil {
		return domain.Provision{}, err
	}

	status := req.Status
	if strings.TrimSpace(string(status)) == "" {
		status = domain.StatusAguardandoPO
	}

	now := s.now()
	candidate := domain.Provision{
		ID:              s.genID.Generate(),
		ContractID:      req.ContractID,
		ContractName:    contractName,
		Description:     strings.TrimSpace(req.Description),
		Month:           req.Month,
		Year:            req.Year,
		PredictedAmount: req.PredictedAmount,
		BilledAmount:    req.BilledAmount,
		ReceivedAmount:  req.ReceivedAmount,
		Status:          status,
		DueDate:         normalizeDate(req.DueDate),
		Glosas:          req.Glosas,
		DescontoSLA:     req.DescontoSLA,
		VendaMOE:        req.VendaMOE,
		Outros:          req.Outros,
		Efetivo:         req.Efetivo,
		FringePlanejado: req.FringePlanejado,
		FringeExecutado: req.FringeExecutado,
		Revision:        1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.engine.ValidateNew(candidate); err != nil {
		return domain.Provision{}, err
	}

	key := candidate.PeriodKey()
	unlock, err := s.locker.Lock(ctx, key.String())
	if err != nil {
		return domain.Provision{}, s.storeErr(err)
	}
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByPeriod(ctx, tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicatePeriod
		}
		if err := s.repo.Insert(ctx, tx, &candidate); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicatePeriod
			}
			return err
		}
		return s.audit.Record(ctx, tx, auditdomain.RecordRequest{
			TargetType: auditdomain.TargetProvision,
			TargetID:   candidate.ID,
			Action:     auditdomain.ActionCreate,
			Revision:   candidate.Revision,
			Changes:    snapshot(candidate),
		})
	})
	if err != nil {
		return domain.Provision{}, s.storeErr(err)
	}

	s.log.Info("provision created",
		zap.String("provision_id", candidate.ID.String()),
		zap.String("period", key.String()),
		zap.String("status", string(candidate.Status)),
	)
	return candidate, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Provision, error) {
	if id == 0 {
		return domain.Provision{}, domain.ErrNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Provision{}, s.storeErr(err)
	}
	if item == nil {
		return domain.Provision{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) GetByPeriod(ctx context.Context, contractID snowflake.ID, month, year int) (domain.Provision, error) {
	if err := domain.ValidatePeriod(month, year); err != nil {
		return domain.Provision{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	item, err := s.repo.FindByPeriod(ctx, s.db, domain.PeriodKey{ContractID: contractID, Month: month, Year: year})
	if err != nil {
		return domain.Provision{}, s.storeErr(err)
	}
	if item == nil {
		return domain.Provision{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest) (provision domain.Provision, err error) {
	defer func() { s.metrics.RecordProvisionWrite(operationUpdate, outcomeOf(err)) }()

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Provision{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := current.PeriodKey()
	unlock, err := s.locker.Lock(ctx, key.String())
	if err != nil {
		return domain.Provision{}, s.storeErr(err)
	}
	defer unlock()

	var updated domain.Provision
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if stored == nil {
			return domain.ErrNotFound
		}

		next, changed := req.Apply(*stored)
		if err := s.engine.ValidateUpdate(*stored, next); err != nil {
			return err
		}
		if len(changed) == 0 {
			updated = *stored
			return nil
		}

		next.Revision = stored.Revision + 1
		next.UpdatedAt = s.now()
		ok, err := s.repo.UpdateRevision(ctx, tx, &next, stored.Revision)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConcurrentUpdate
		}

		if err := s.audit.Record(ctx, tx, auditdomain.RecordRequest{
			TargetType: auditdomain.TargetProvision,
			TargetID:   next.ID,
			Action:     auditdomain.ActionUpdate,
			Revision:   next.Revision,
			Changes:    diff(*stored, next, changed),
		}); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return domain.Provision{}, s.storeErr(err)
	}

	s.log.Info("provision updated",
		zap.String("provision_id", updated.ID.String()),
		zap.Int64("revision", updated.Revision),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Provision, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, s.storeErr(err)
	}

	provisions := make([]domain.Provision, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		provisions = append(provisions, *item)
	}
	return provisions, nil
}

func (s *Service) ListProvisions(ctx context.Context, filter domain.ListFilter) ([]domain.Provision, error) {
	return s.List(ctx, filter)
}

// resolveContractName keeps a caller supplied name and otherwise asks the
// contract registry. Contracts are a weak reference: a known name is enough.
func (s *Service) resolveContractName(ctx context.Context, contractID snowflake.ID, name string) (string, error) {
	if name = strings.TrimSpace(name); name != "" {
		return name, nil
	}

	contract, err := s.contracts.Lookup(ctx, contractID)
	if err != nil {
		if errors.Is(err, contractdomain.ErrNotFound) || errors.Is(err, contractdomain.ErrInvalidID) {
			return "", &domain.FieldError{Fields: []string{"contract_id"}, Err: domain.ErrInvalidContract}
		}
		return "", s.storeErr(err)
	}
	return contract.Name, nil
}

func (s *Service) storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, lock.ErrLockTimeout) || errors.Is(err, lock.ErrLockUnavailable) || db.IsTimeoutErr(err) {
		s.log.Warn("provision store unavailable", zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &date
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrDuplicatePeriod), errors.Is(err, domain.ErrConcurrentUpdate):
		return metrics.OutcomeConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return metrics.OutcomeError
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInconsistentState),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidContract),
		errors.Is(err, domain.ErrInvalidHeadcount),
		errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
