package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/provisora/internal/filter"
	"github.com/smallbiznis/provisora/internal/provision/domain"
	"gorm.io/gorm"
)

const provisionColumns = `id, contract_id, contract_name, description, month, year,
	predicted_amount, billed_amount, received_amount, status, due_date,
	glosas, desconto_sla, venda_moe, outros,
	efetivo, fringe_planejado, fringe_executado,
	revision, created_at, updated_at`

// likeEscaper escapes LIKE wildcards for use with ESCAPE '!'. A backslash
// escape character would need dialect-specific quoting in MySQL.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *domain.Provision) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO provisions (`+provisionColumns+`, search_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.ContractID,
		p.ContractName,
		p.Description,
		p.Month,
		p.Year,
		p.PredictedAmount,
		p.BilledAmount,
		p.ReceivedAmount,
		p.Status,
		p.DueDate,
		p.Glosas,
		p.DescontoSLA,
		p.VendaMOE,
		p.Outros,
		p.Efetivo,
		p.FringePlanejado,
		p.FringeExecutado,
		p.Revision,
		p.CreatedAt,
		p.UpdatedAt,
		p.SearchKey(),
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Provision, error) {
	var p domain.Provision
	err := db.WithContext(ctx).Raw(
		`SELECT `+provisionColumns+` FROM provisions WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByPeriod(ctx context.Context, db *gorm.DB, key domain.PeriodKey) (*domain.Provision, error) {
	var p domain.Provision
	err := db.WithContext(ctx).Raw(
		`SELECT `+provisionColumns+` FROM provisions
		 WHERE contract_id = ? AND month = ? AND year = ?`,
		key.ContractID,
		key.Month,
		key.Year,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, f domain.ListFilter) ([]*domain.Provision, error) {
	var items []*domain.Provision
	stmt := db.WithContext(ctx).Model(&domain.Provision{})
	if contractID, ok := f.ContractID.Get(); ok {
		stmt = stmt.Where("contract_id = ?", contractID)
	}
	if month, ok := f.Month.Get(); ok {
		stmt = stmt.Where("month = ?", month)
	}
	if year, ok := f.Year.Get(); ok {
		stmt = stmt.Where("year = ?", year)
	}
	if status, ok := f.Status.Get(); ok {
		stmt = stmt.Where("status = ?", status)
	}
	needle := filter.FoldQuery(f.Search)
	if needle != "" {
		stmt = stmt.Where("search_text LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(needle)+"%")
	}

	err := stmt.
		Order("year asc, month asc, contract_name asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if needle == "" {
		return items, nil
	}

	// Collations may fold accents or case further than Go does; keep only
	// the rows the in-memory filter would keep.
	matched := items[:0]
	for _, item := range items {
		if filter.MatchText(needle, item.ContractName, item.Description) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

func (r *repo) UpdateRevision(ctx context.Context, db *gorm.DB, p *domain.Provision, expected int64) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE provisions SET
			description = ?, billed_amount = ?, received_amount = ?, status = ?, due_date = ?,
			glosas = ?, desconto_sla = ?, venda_moe = ?, outros = ?,
			efetivo = ?, fringe_planejado = ?, fringe_executado = ?,
			revision = ?, updated_at = ?, search_text = ?
		 WHERE id = ? AND revision = ?`,
		p.Description,
		p.BilledAmount,
		p.ReceivedAmount,
		p.Status,
		p.DueDate,
		p.Glosas,
		p.DescontoSLA,
		p.VendaMOE,
		p.Outros,
		p.Efetivo,
		p.FringePlanejado,
		p.FringeExecutado,
		p.Revision,
		p.UpdatedAt,
		p.SearchKey(),
		p.ID,
		expected,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
