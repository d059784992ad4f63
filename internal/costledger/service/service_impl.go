package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	auditdomain "github.com/smallbiznis/provisora/internal/audit/domain"
	"github.com/smallbiznis/provisora/internal/clock"
	"github.com/smallbiznis/provisora/internal/config"
	"github.com/smallbiznis/provisora/internal/costledger/domain"
	"github.com/smallbiznis/provisora/internal/observability/metrics"
	"github.com/smallbiznis/provisora/pkg/db"
	"github.com/smallbiznis/provisora/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	Repo     domain.Repository
	Validate *validator.Validate
	Audit    auditdomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	validate *validator.Validate
	audit    auditdomain.Service
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("costledger.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		validate: p.Validate,
		audit:    p.Audit,
		metrics:  p.Metrics,
		timeout:  p.Cfg.StoreTimeout,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (entry domain.Entry, err error) {
	defer func() { s.metrics.RecordCostEntryWrite("create", outcomeOf(err)) }()

	req.Supplier = strings.TrimSpace(req.Supplier)
	req.CostCenter = strings.TrimSpace(req.CostCenter)
	req.InvoiceNumber = strings.TrimSpace(req.InvoiceNumber)
	if err := s.validate.Struct(req); err != nil {
		return domain.Entry{}, domain.ValidationError(err)
	}
	if !req.Value.Equal(req.Value.Round(2)) {
		return domain.Entry{}, &domain.FieldError{Fields: []string{"value"}, Err: domain.ErrInvalidAmount}
	}

	status := req.Status
	if status == "" {
		status = domain.StatusPendente
	}

	now := s.clock.Now().UTC().Truncate(time.Microsecond)
	entry = domain.Entry{
		ID:            s.genID.Generate(),
		Date:          toDate(req.Date),
		Category:      req.Category,
		ContractID:    req.ContractID,
		Value:         req.Value,
		Status:        status,
		Supplier:      req.Supplier,
		CostCenter:    req.CostCenter,
		InvoiceNumber: req.InvoiceNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.DueDate != nil && !req.DueDate.IsZero() {
		due := toDate(*req.DueDate)
		entry.DueDate = &due
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &entry); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, auditdomain.RecordRequest{
			TargetType: auditdomain.TargetCostEntry,
			TargetID:   entry.ID,
			Action:     auditdomain.ActionCreate,
			Revision:   1,
			Changes: map[string]any{
				"category":    string(entry.Category),
				"contract_id": entry.ContractID.String(),
				"value":       entry.Value.StringFixed(2),
				"status":      string(entry.Status),
			},
		})
	})
	if err != nil {
		return domain.Entry{}, s.storeErr(err)
	}
	return entry, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Entry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Entry{}, s.storeErr(err)
	}
	if item == nil {
		return domain.Entry{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if err := validateFilter(req.Filter); err != nil {
		return domain.ListResponse{}, err
	}

	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.Cursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.repo.List(ctx, s.db, req.Filter, cursor, pageSize)
	if err != nil {
		return domain.ListResponse{}, s.storeErr(err)
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *domain.Entry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	entries := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}

	resp := domain.ListResponse{Entries: entries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, status domain.Status) (entry domain.Entry, err error) {
	defer func() { s.metrics.RecordCostEntryWrite("update_status", outcomeOf(err)) }()

	if !status.Valid() {
		return domain.Entry{}, &domain.FieldError{Fields: []string{"status"}, Err: domain.ErrInvalidStatus}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if current.Status == domain.StatusPago {
			return domain.ErrEntryPaid
		}
		if current.Status == status {
			entry = *current
			return nil
		}
		if !current.Status.CanTransition(status) {
			return &domain.FieldError{Fields: []string{"status"}, Err: domain.ErrInvalidTransition}
		}

		next := *current
		next.Status = status
		next.UpdatedAt = s.clock.Now().UTC().Truncate(time.Microsecond)
		ok, err := s.repo.UpdateStatus(ctx, tx, &next, current.Status)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConcurrentUpdate
		}
		if err := s.audit.Record(ctx, tx, auditdomain.RecordRequest{
			TargetType: auditdomain.TargetCostEntry,
			TargetID:   next.ID,
			Action:     auditdomain.ActionStatusChange,
			Changes: map[string]any{
				"status": auditdomain.Change{From: string(current.Status), To: string(next.Status)},
			},
		}); err != nil {
			return err
		}
		entry = next
		return nil
	})
	if err != nil {
		return domain.Entry{}, s.storeErr(err)
	}

	s.log.Info("cost entry status changed",
		zap.String("cost_entry_id", entry.ID.String()),
		zap.String("status", string(entry.Status)),
	)
	return entry, nil
}

func (s *Service) CategoryBreakdown(ctx context.Context, filter domain.ListFilter) ([]domain.CategoryTotal, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.repo.List(ctx, s.db, filter, nil, 0)
	if err != nil {
		return nil, s.storeErr(err)
	}
	entries := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		if item != nil {
			entries = append(entries, *item)
		}
	}
	return domain.Breakdown(entries), nil
}

func (s *Service) storeErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	if db.IsTimeoutErr(err) {
		s.log.Warn("cost ledger store unavailable", zap.Error(err))
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

func validateFilter(filter domain.ListFilter) error {
	if month, ok := filter.Month.Get(); ok {
		if !filter.Year.IsSet() || month < 1 || month > 12 {
			return &domain.FieldError{Fields: []string{"month"}, Err: domain.ErrInvalidPeriod}
		}
	}
	return nil
}

func toDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return metrics.OutcomeConflict
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidContract),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrEntryPaid),
		errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
