// Package source fetches raw opportunity records from upstream government data sources.
package source

import (
	"context"

	"github.com/sells-group/govcon-cli/internal/model"
)

// Source fetches raw opportunities for one partition key (a NAICS code).
// Fetch queries open solicitations; FetchAlternate queries sources-sought
// notices. Both return the same record shape.
type Source interface {
	Name() string
	Fetch(ctx context.Context, partitionKey string) ([]model.RawOpportunity, error)
	FetchAlternate(ctx context.Context, partitionKey string) ([]model.RawOpportunity, error)
}

// Mode selects which upstream query a Source runs.
type Mode string

const (
	ModeSolicitations Mode = "solicitations"
	ModeSourcesSought Mode = "sources_sought"
)

// FetchMode dispatches to Fetch or FetchAlternate.
func FetchMode(ctx context.Context, s Source, mode Mode, partitionKey string) ([]model.RawOpportunity, error) {
	if mode == ModeSourcesSought {
		return s.FetchAlternate(ctx, partitionKey)
	}
	return s.Fetch(ctx, partitionKey)
}
