package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, provision *Provision) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Provision, error)
	FindByPeriod(ctx context.Context, db *gorm.DB, key PeriodKey) (*Provision, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Provision, error)
	// UpdateRevision writes provision only if the stored revision still equals
	// expected. It reports false when another writer got there first.
	UpdateRevision(ctx context.Context, db *gorm.DB, provision *Provision, expected int64) (bool, error)
}
