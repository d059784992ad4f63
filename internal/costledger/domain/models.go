package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/provisora/internal/filter"
)

type Category string

const (
	CategoryFolhaPagamento     Category = "folha_pagamento"
	CategoryInsumos            Category = "insumos"
	CategoryEPI                Category = "epi"
	CategoryCombustivel        Category = "combustivel"
	CategoryManutencao         Category = "manutencao"
	CategoryHospedagem         Category = "hospedagem"
	CategoryAlimentacao        Category = "alimentacao"
	CategoryFrete              Category = "frete"
	CategoryMaterialEscritorio Category = "material_escritorio"
	CategoryUniformes          Category = "uniformes"
	CategoryDiversos           Category = "diversos"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryFolhaPagamento,
	CategoryInsumos,
	CategoryEPI,
	CategoryCombustivel,
	CategoryManutencao,
	CategoryHospedagem,
	CategoryAlimentacao,
	CategoryFrete,
	CategoryMaterialEscritorio,
	CategoryUniformes,
	CategoryDiversos,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusPendente    Status = "pendente"
	StatusAprovado    Status = "aprovado"
	StatusProcessando Status = "processando"
	StatusPago        Status = "pago"
)

var transitions = map[Status][]Status{
	StatusPendente:    {StatusAprovado, StatusProcessando},
	StatusAprovado:    {StatusProcessando, StatusPago},
	StatusProcessando: {StatusPago},
	StatusPago:        nil,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an entry may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Entry is a direct cost booked against a contract.
type Entry struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	Category      Category        `gorm:"type:varchar(32);not null;index" json:"category"`
	ContractID    snowflake.ID    `gorm:"not null;index" json:"contract_id"`
	Value         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"value"`
	Status        Status          `gorm:"type:varchar(32);not null" json:"status"`
	Supplier      string          `gorm:"not null" json:"supplier,omitempty"`
	CostCenter    string          `gorm:"not null" json:"cost_center,omitempty"`
	InvoiceNumber string          `gorm:"not null" json:"invoice_number,omitempty"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (Entry) TableName() string { return "cost_entries" }

type ListFilter struct {
	ContractID filter.Option[snowflake.ID]
	Category   filter.Option[Category]
	Status     filter.Option[Status]
	Month      filter.Option[int]
	Year       filter.Option[int]
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category Category        `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// Breakdown sums entries per category, emitting every category in report
// order so consumers always receive the same rows.
func Breakdown(entries []Entry) []CategoryTotal {
	index := make(map[Category]int, len(Categories))
	rows := make([]CategoryTotal, len(Categories))
	for i, category := range Categories {
		index[category] = i
		rows[i] = CategoryTotal{Category: category, Total: decimal.Zero}
	}
	for _, entry := range entries {
		i, ok := index[entry.Category]
		if !ok {
			continue
		}
		rows[i].Total = rows[i].Total.Add(entry.Value)
		rows[i].Count++
	}
	return rows
}
