package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vagov/benefits-portal/internal/domain"
)

// StubReferenceDataGateway serves fixed eligibility reference-data sets for
// local runs.
type StubReferenceDataGateway struct{}

func NewStubReferenceDataGateway() *StubReferenceDataGateway {
	return &StubReferenceDataGateway{}
}

var referenceSets = map[string]any{
	"countries": []string{"USA", "Canada", "Mexico"},
	"states":    []string{"AL", "AK", "AZ", "CA", "FL", "NY", "TX"},
	"intake-sites": []map[string]string{
		{"id": "317", "description": "St. Petersburg"},
		{"id": "330", "description": "Milwaukee"},
	},
}

func (g *StubReferenceDataGateway) Fetch(_ context.Context, set string) ([]byte, error) {
	data, ok := referenceSets[set]
	if !ok {
		return nil, fmt.Errorf("reference data set %q: %w", set, domain.ErrNotFound)
	}
	return json.Marshal(map[string]any{"data": data})
}
