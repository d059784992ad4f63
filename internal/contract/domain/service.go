package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	Lookup(ctx context.Context, id snowflake.ID) (Contract, error)
	List(ctx context.Context) ([]Contract, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contract *Contract) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contract, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Contract, error)
	List(ctx context.Context, db *gorm.DB) ([]*Contract, error)
}

var (
	ErrNotFound  = errors.New("contract_not_found")
	ErrInvalidID = errors.New("invalid_contract_id")
)
