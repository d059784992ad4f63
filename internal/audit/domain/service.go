package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/provisora/pkg/db/pagination"
	"gorm.io/gorm"
)

type RecordRequest struct {
	TargetType string
	TargetID   snowflake.ID
	Action     string
	Revision   int64
	Changes    map[string]any
}

type ListRequest struct {
	pagination.Pagination
	TargetType string
	TargetID   snowflake.ID
}

type ListResponse struct {
	pagination.PageInfo
	Entries []Entry `json:"entries"`
}

type Service interface {
	// Record appends an entry using tx when given, so the entry commits with the change it describes.
	Record(ctx context.Context, tx *gorm.DB, req RecordRequest) error
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Entry, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidTarget    = errors.New("invalid_target")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
