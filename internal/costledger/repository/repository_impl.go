package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/provisora/internal/costledger/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, e *domain.Entry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO cost_entries (
			id, date, category, contract_id, value, status,
			supplier, cost_center, invoice_number, due_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Date,
		e.Category,
		e.ContractID,
		e.Value,
		e.Status,
		e.Supplier,
		e.CostCenter,
		e.InvoiceNumber,
		e.DueDate,
		e.CreatedAt,
		e.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Entry, error) {
	var e domain.Entry
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, cursor *domain.Cursor, limit int) ([]*domain.Entry, error) {
	var items []*domain.Entry
	stmt := db.WithContext(ctx).Model(&domain.Entry{})

	if contractID, ok := filter.ContractID.Get(); ok {
		stmt = stmt.Where("contract_id = ?", contractID)
	}
	if category, ok := filter.Category.Get(); ok {
		stmt = stmt.Where("category = ?", category)
	}
	if status, ok := filter.Status.Get(); ok {
		stmt = stmt.Where("status = ?", status)
	}
	if from, to, ok := periodRange(filter); ok {
		stmt = stmt.Where("date >= ? AND date < ?", from, to)
	}
	if cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt,
			cursor.CreatedAt,
			cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit + 1)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, e *domain.Entry, expected domain.Status) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE cost_entries SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		e.Status,
		e.UpdatedAt,
		e.ID,
		expected,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// periodRange turns the month/year filter into a half-open date range.
// A month without a year is rejected by the service before it gets here.
func periodRange(filter domain.ListFilter) (time.Time, time.Time, bool) {
	year, ok := filter.Year.Get()
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if month, ok := filter.Month.Get(); ok {
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), true
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0), true
}
