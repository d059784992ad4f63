package seed

import (
	"context"

	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
)

// SampleSource serves a fixed in-memory provision set.
type SampleSource struct {
	records []provisiondomain.Provision
}

func NewSampleSource(records []provisiondomain.Provision) *SampleSource {
	copied := make([]provisiondomain.Provision, len(records))
	copy(copied, records)
	return &SampleSource{records: copied}
}

func (s *SampleSource) ListProvisions(_ context.Context, filter provisiondomain.ListFilter) ([]provisiondomain.Provision, error) {
	return provisiondomain.Filter(s.records, filter), nil
}

// EmptySource has no records; every report over it is zeroed.
type EmptySource struct{}

func (EmptySource) ListProvisions(context.Context, provisiondomain.ListFilter) ([]provisiondomain.Provision, error) {
	return []provisiondomain.Provision{}, nil
}
