package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: provisions.contract_id")))
	assert.True(t, IsDuplicateKeyErr(errors.New("ERROR: duplicate key value violates unique constraint \"ux_provisions_period\"")))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
}

func TestIsTimeoutErr(t *testing.T) {
	assert.True(t, IsTimeoutErr(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.False(t, IsTimeoutErr(errors.New("boom")))
}
