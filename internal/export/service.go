package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	aggregation "github.com/smallbiznis/provisora/internal/aggregation/service"
	"github.com/smallbiznis/provisora/internal/clock"
	"github.com/smallbiznis/provisora/internal/config"
	"github.com/smallbiznis/provisora/internal/observability/metrics"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	"github.com/smallbiznis/provisora/internal/reconciliation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported_export_format")

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// File is a rendered export ready to be served.
type File struct {
	Filename    string
	ContentType string
	Body        []byte
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Source  provisiondomain.Source
	Engine  *reconciliation.Engine
	Cfg     *config.ReconciliationConfigHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	source  provisiondomain.Source
	engine  *reconciliation.Engine
	cfg     *config.ReconciliationConfigHolder
	metrics *metrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		log:     p.Log.Named("export.service"),
		clock:   p.Clock,
		source:  p.Source,
		engine:  p.Engine,
		cfg:     p.Cfg,
		metrics: p.Metrics,
	}
}

// Table returns the flat projection of every record matching f.
func (s *Service) Table(ctx context.Context, f provisiondomain.ListFilter) (Table, error) {
	records, err := s.source.ListProvisions(ctx, f)
	if err != nil {
		return Table{}, err
	}
	return Project(records, s.engine, s.formatter()), nil
}

func (s *Service) Export(ctx context.Context, f provisiondomain.ListFilter, format Format) (File, error) {
	defer s.metrics.ObserveAggregation("export_"+string(format), time.Now())

	records, err := s.source.ListProvisions(ctx, f)
	if err != nil {
		return File{}, err
	}

	money := s.formatter()
	table := Project(records, s.engine, money)
	now := s.clock.Now().UTC()
	stamp := now.Format("20060102-150405")

	switch format {
	case FormatCSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, table); err != nil {
			return File{}, err
		}
		return File{
			Filename:    "provisoes-" + stamp + ".csv",
			ContentType: "text/csv; charset=utf-8",
			Body:        buf.Bytes(),
		}, nil
	case FormatPDF:
		summary := aggregation.Summarize(records, now.Year())
		body, err := RenderPDF(Document{
			Title:     "Provisões e Conciliação",
			Generated: "Gerado em " + now.Format("02/01/2006 15:04") + " UTC",
			Table:     table,
			Totals: []string{
				fmt.Sprintf("Previsto: %s   Faturado: %s   Recebido: %s",
					money.Money(summary.TotalPredicted), money.Money(summary.TotalBilled), money.Money(summary.TotalReceived)),
				fmt.Sprintf("Eficiência de faturamento: %s   Taxa de recebimento: %s",
					money.Percent(summary.BillingEfficiency), money.Percent(summary.CollectionRate)),
			},
		})
		if err != nil {
			s.log.Error("failed to render export pdf", zap.Error(err))
			return File{}, err
		}
		return File{
			Filename:    "provisoes-" + stamp + ".pdf",
			ContentType: "application/pdf",
			Body:        body,
		}, nil
	default:
		return File{}, ErrUnsupportedFormat
	}
}

func (s *Service) formatter() MoneyFormatter {
	cfg := s.cfg.Get()
	return NewMoneyFormatter(cfg.Locale, cfg.Currency)
}
