package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context, filter ListFilter) ([]Employee, error)
	Compensation(employee Employee) Compensation
	FringeSummary(ctx context.Context, contractID snowflake.ID) (FringeSummary, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, employee *Employee) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Employee, error)
}

var ErrInvalidContract = errors.New("invalid_contract")
