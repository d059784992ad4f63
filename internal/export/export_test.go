package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/provisora/internal/clock"
	"github.com/smallbiznis/provisora/internal/config"
	"github.com/smallbiznis/provisora/internal/filter"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	"github.com/smallbiznis/provisora/internal/reconciliation"
	"github.com/smallbiznis/provisora/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() *Service {
	holder := config.NewStaticReconciliationConfig(config.DefaultReconciliationConfig())
	return NewService(Params{
		Log:    zap.NewNop(),
		Clock:  clock.NewFakeClock(time.Date(2025, time.August, 1, 9, 30, 0, 0, time.UTC)),
		Source: seed.NewSampleSource(seed.SampleProvisions()),
		Engine: reconciliation.NewEngine(holder),
		Cfg:    holder,
	})
}

func TestMoneyFormatterPtBR(t *testing.T) {
	f := NewMoneyFormatter("pt-BR", "BRL")

	assert.Equal(t, "R$ 145.000,00", f.Money(decimal.NewFromInt(145000)))
	assert.Equal(t, "R$ 0,00", f.Money(decimal.Zero))
	assert.Equal(t, "96,67%", f.Percent(decimal.RequireFromString("96.67")))
	assert.Equal(t, "-1.234,50", f.Number(decimal.RequireFromString("-1234.5")))
	assert.Equal(t, "999,00", f.Number(decimal.RequireFromString("998.999")))
}

func TestMoneyFormatterKeepsCentsOfLargeAmounts(t *testing.T) {
	f := NewMoneyFormatter("pt-BR", "BRL")

	// beyond 2^53 cents a float64 can no longer hold every cent
	assert.Equal(t, "R$ 9.999.999.999.999.999,99", f.Money(decimal.RequireFromString("9999999999999999.99")))
	assert.Equal(t, "R$ 90.071.992.547.409,93", f.Money(decimal.RequireFromString("90071992547409.93")))

	us := NewMoneyFormatter("en-US", "USD")
	assert.Equal(t, "US$ 1,234,567.89", us.Money(decimal.RequireFromString("1234567.89")))
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	format, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)

	_, err = ParseFormat("xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTableColumnsAreStable(t *testing.T) {
	svc := newTestService()
	f := provisiondomain.ListFilter{Year: filter.Some(2025)}

	first, err := svc.Table(context.Background(), f)
	require.NoError(t, err)
	second, err := svc.Table(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, Columns, first.Columns)
	for _, row := range first.Rows {
		assert.Len(t, row, len(Columns))
	}
}

func TestProjectRowValues(t *testing.T) {
	svc := newTestService()

	table, err := svc.Table(context.Background(), provisiondomain.ListFilter{
		ContractID: filter.Some(seed.ContractShoppingNorte),
		Month:      filter.Some(7),
	})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	row := map[string]string{}
	for i, c := range table.Columns {
		row[c.Key] = table.Rows[0][i]
	}
	assert.Equal(t, "Shopping Center Norte", row["contract_name"])
	assert.Equal(t, "07/2025", row["period"])
	assert.Equal(t, "R$ 145.000,00", row["billed_amount"])
	assert.Equal(t, "96,67%", row["utilization_rate"])
	assert.Equal(t, "good", row["utilization_tier"])
	assert.Equal(t, "R$ 7.500,00", row["total_indirect_costs"])
	assert.Equal(t, "10/08/2025", row["due_date"])
}

func TestExportCSV(t *testing.T) {
	svc := newTestService()

	file, err := svc.Export(context.Background(), provisiondomain.ListFilter{}, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "provisoes-20250801-093000.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")

	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(seed.SampleProvisions())+1)
	assert.Equal(t, "ID Contrato", records[0][0])
	assert.Len(t, records[0], len(Columns))
}

func TestExportPDF(t *testing.T) {
	svc := newTestService()

	file, err := svc.Export(context.Background(), provisiondomain.ListFilter{}, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := newTestService().Export(context.Background(), provisiondomain.ListFilter{}, Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
