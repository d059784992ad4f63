package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	TargetProvision = "provision"
	TargetCostEntry = "cost_entry"
)

const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionStatusChange = "status_change"
)

// Entry is one immutable record of a change to a tracked entity.
type Entry struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	TargetType string            `gorm:"type:varchar(32);not null;index:idx_audit_target,priority:1" json:"target_type"`
	TargetID   snowflake.ID      `gorm:"not null;index:idx_audit_target,priority:2" json:"target_id"`
	Action     string            `gorm:"type:varchar(32);not null" json:"action"`
	Revision   int64             `gorm:"not null" json:"revision"`
	RequestID  *string           `json:"request_id,omitempty"`
	Changes    datatypes.JSONMap `gorm:"type:json" json:"changes"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (Entry) TableName() string { return "audit_entries" }

// Change is the before/after pair stored per field in Entry.Changes.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	TargetType string
	TargetID   snowflake.ID
	Cursor     *AuditCursor
	Limit      int
}
