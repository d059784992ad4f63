package repository

import (
	"context"

	"github.com/smallbiznis/provisora/internal/workforce/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, e *domain.Employee) error {
	return db.WithContext(ctx).Create(e).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Employee, error) {
	var items []*domain.Employee
	stmt := db.WithContext(ctx).Model(&domain.Employee{})
	if contractID, ok := filter.ContractID.Get(); ok {
		stmt = stmt.Where("contract_id = ?", contractID)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if err := stmt.Order("name asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
