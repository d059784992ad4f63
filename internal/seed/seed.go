package seed

import (
	"context"
	"errors"

	contractdomain "github.com/smallbiznis/provisora/internal/contract/domain"
	costledgerdomain "github.com/smallbiznis/provisora/internal/costledger/domain"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	workforcedomain "github.com/smallbiznis/provisora/internal/workforce/domain"
	"gorm.io/gorm"
)

// EnsureSampleData inserts the demo data set, skipping rows that already exist.
func EnsureSampleData(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range SampleContracts() {
			if err := insertMissing(tx, &contractdomain.Contract{}, "id = ?", &c, c.ID); err != nil {
				return err
			}
		}
		for _, e := range SampleEmployees() {
			if err := insertMissing(tx, &workforcedomain.Employee{}, "id = ?", &e, e.ID); err != nil {
				return err
			}
		}
		for _, p := range SampleProvisions() {
			if err := insertMissing(tx, &provisiondomain.Provision{}, "contract_id = ? AND month = ? AND year = ?", &p, p.ContractID, p.Month, p.Year); err != nil {
				return err
			}
		}
		for _, e := range SampleCostEntries() {
			if err := insertMissing(tx, &costledgerdomain.Entry{}, "id = ?", &e, e.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertMissing(tx *gorm.DB, model any, query string, row any, args ...any) error {
	var count int64
	if err := tx.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Create(row).Error
}
