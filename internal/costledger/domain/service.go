package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/provisora/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateRequest struct {
	Date          time.Time       `json:"date" validate:"required"`
	Category      Category        `json:"category" validate:"required,cost_category"`
	ContractID    snowflake.ID    `json:"contract_id" validate:"required"`
	Value         decimal.Decimal `json:"value" validate:"gt=0"`
	Status        Status          `json:"status" validate:"omitempty,cost_status"`
	Supplier      string          `json:"supplier" validate:"max=255"`
	CostCenter    string          `json:"cost_center" validate:"max=64"`
	InvoiceNumber string          `json:"invoice_number" validate:"max=64"`
	DueDate       *time.Time      `json:"due_date"`
}

type ListRequest struct {
	pagination.Pagination
	Filter ListFilter
}

type ListResponse struct {
	pagination.PageInfo
	Entries []Entry `json:"entries"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Entry, error)
	Get(ctx context.Context, id snowflake.ID) (Entry, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status Status) (Entry, error)
	CategoryBreakdown(ctx context.Context, filter ListFilter) ([]CategoryTotal, error)
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Entry, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, cursor *Cursor, limit int) ([]*Entry, error)
	// UpdateStatus moves the entry from expected to entry.Status and reports
	// false when the stored status no longer equals expected.
	UpdateStatus(ctx context.Context, db *gorm.DB, entry *Entry, expected Status) (bool, error)
}

var (
	ErrNotFound          = errors.New("cost_entry_not_found")
	ErrInvalidRequest    = errors.New("invalid_request")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidCategory   = errors.New("invalid_category")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidContract   = errors.New("invalid_contract")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrEntryPaid         = errors.New("entry_paid")
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrConcurrentUpdate  = errors.New("concurrent_update")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrStoreUnavailable  = errors.New("store_unavailable")
)

// FieldError names the request fields responsible for a validation failure.
type FieldError struct {
	Fields []string
	Err    error
}

func (e *FieldError) Error() string {
	return e.Err.Error() + ": " + strings.Join(e.Fields, ",")
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
