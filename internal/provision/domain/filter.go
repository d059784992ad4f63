package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/provisora/internal/filter"
)

type ListFilter struct {
	ContractID filter.Option[snowflake.ID]
	Month      filter.Option[int]
	Year       filter.Option[int]
	Status     filter.Option[Status]
	Search     string
}

func (f ListFilter) Predicates() []filter.Predicate[Provision] {
	return []filter.Predicate[Provision]{
		func(p Provision) bool { return f.ContractID.Matches(p.ContractID) },
		func(p Provision) bool { return f.Month.Matches(p.Month) },
		func(p Provision) bool { return f.Year.Matches(p.Year) },
		func(p Provision) bool { return f.Status.Matches(p.Status) },
		func(p Provision) bool { return filter.MatchText(f.Search, p.ContractName, p.Description) },
	}
}

func (f ListFilter) Match(p Provision) bool {
	return filter.All(p, f.Predicates()...)
}

// Filter applies f to an in-memory record set.
func Filter(records []Provision, f ListFilter) []Provision {
	return filter.Apply(records, f.Predicates()...)
}
