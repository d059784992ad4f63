package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/provisora/internal/filter"
)

// Employee is read from the HR registry; only compensation inputs are kept.
type Employee struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	ContractID  snowflake.ID    `gorm:"not null;index" json:"contract_id"`
	Name        string          `gorm:"not null" json:"name"`
	Role        string          `gorm:"not null" json:"role"`
	BaseSalary  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"base_salary"`
	FringeRate  decimal.Decimal `gorm:"type:decimal(7,2);not null" json:"fringe_rate"`
	HoursWorked decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"hours_worked"`
	HourlyRate  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"hourly_rate"`
	Active      bool            `gorm:"not null" json:"active"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (Employee) TableName() string { return "employees" }

type Compensation struct {
	EmployeeID        snowflake.ID    `json:"employee_id"`
	BaseSalary        decimal.Decimal `json:"base_salary"`
	FringeRate        decimal.Decimal `json:"fringe_rate"`
	FringeCost        decimal.Decimal `json:"fringe_cost"`
	TotalCompensation decimal.Decimal `json:"total_compensation"`
}

// FringeSummary rolls up the active employees of one contract.
type FringeSummary struct {
	ContractID        snowflake.ID    `json:"contract_id"`
	Headcount         int             `json:"headcount"`
	BaseSalaryTotal   decimal.Decimal `json:"base_salary_total"`
	FringeTotal       decimal.Decimal `json:"fringe_total"`
	TotalCompensation decimal.Decimal `json:"total_compensation"`
	MOECost           decimal.Decimal `json:"moe_cost"`
}

type ListFilter struct {
	ContractID filter.Option[snowflake.ID]
	ActiveOnly bool
}
