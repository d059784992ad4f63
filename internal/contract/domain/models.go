package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive    Status = "ativo"
	StatusSuspended Status = "suspenso"
	StatusClosed    Status = "encerrado"
)

// Contract is owned by the commercial team; this service only reads it.
type Contract struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null;uniqueIndex" json:"name"`
	Client       string          `gorm:"not null" json:"client"`
	Category     string          `gorm:"not null" json:"category"`
	Status       Status          `gorm:"type:varchar(32);not null" json:"status"`
	MonthlyValue decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"monthly_value"`
	TotalValue   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_value"`
	StartDate    *time.Time      `json:"start_date,omitempty"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
}

func (Contract) TableName() string { return "contracts" }
