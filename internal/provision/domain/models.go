package domain

import (
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/provisora/internal/filter"
	"gorm.io/gorm"
)

type Status string

const (
	StatusNFEmitida           Status = "nf_emitida"
	StatusAguardandoPO        Status = "aguardando_po"
	StatusAguardandoSLA       Status = "aguardando_sla"
	StatusAguardandoAprovacao Status = "aguardando_aprovacao"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusNFEmitida,
	StatusAguardandoPO,
	StatusAguardandoSLA,
	StatusAguardandoAprovacao,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Provision is the billing provision of one contract in one calendar month.
type Provision struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	ContractID   snowflake.ID `gorm:"not null;uniqueIndex:ux_provisions_period,priority:1" json:"contract_id"`
	ContractName string       `gorm:"not null;index" json:"contract_name"`
	Description  string       `gorm:"not null" json:"description,omitempty"`
	Month        int          `gorm:"not null;uniqueIndex:ux_provisions_period,priority:3" json:"month"`
	Year         int          `gorm:"not null;uniqueIndex:ux_provisions_period,priority:2" json:"year"`

	PredictedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"predicted_amount"`
	BilledAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"billed_amount"`
	ReceivedAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"received_amount"`

	Status  Status     `gorm:"type:varchar(32);not null;index" json:"status"`
	DueDate *time.Time `json:"due_date,omitempty"`

	Glosas      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"glosas"`
	DescontoSLA decimal.Decimal `gorm:"column:desconto_sla;type:decimal(18,2);not null" json:"desconto_sla"`
	VendaMOE    decimal.Decimal `gorm:"column:venda_moe;type:decimal(18,2);not null" json:"venda_moe"`
	Outros      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"outros"`

	Efetivo         int             `gorm:"not null" json:"efetivo"`
	FringePlanejado decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"fringe_planejado"`
	FringeExecutado decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"fringe_executado"`

	// SearchText is the folded contract name and description matched by free-text search.
	SearchText string `gorm:"not null;default:''" json:"-"`

	Revision  int64     `gorm:"not null" json:"revision"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Provision) TableName() string { return "provisions" }

// SearchKey is the value stored in SearchText.
func (p Provision) SearchKey() string {
	return filter.SearchKey(p.ContractName, p.Description)
}

func (p *Provision) BeforeSave(*gorm.DB) error {
	p.SearchText = p.SearchKey()
	return nil
}

// PeriodKey identifies the (contract, month, year) slot a provision occupies.
type PeriodKey struct {
	ContractID snowflake.ID
	Month      int
	Year       int
}

func (p Provision) PeriodKey() PeriodKey {
	return PeriodKey{ContractID: p.ContractID, Month: p.Month, Year: p.Year}
}

func (k PeriodKey) String() string {
	return k.ContractID.String() + ":" + strconv.Itoa(k.Year) + ":" + strconv.Itoa(k.Month)
}

// NamedAmount pairs a monetary field with its wire name.
type NamedAmount struct {
	Field string
	Value decimal.Decimal
}

// Amounts lists every monetary field of the provision.
func (p Provision) Amounts() []NamedAmount {
	return []NamedAmount{
		{Field: "predicted_amount", Value: p.PredictedAmount},
		{Field: "billed_amount", Value: p.BilledAmount},
		{Field: "received_amount", Value: p.ReceivedAmount},
		{Field: "glosas", Value: p.Glosas},
		{Field: "desconto_sla", Value: p.DescontoSLA},
		{Field: "venda_moe", Value: p.VendaMOE},
		{Field: "outros", Value: p.Outros},
		{Field: "fringe_planejado", Value: p.FringePlanejado},
		{Field: "fringe_executado", Value: p.FringeExecutado},
	}
}
