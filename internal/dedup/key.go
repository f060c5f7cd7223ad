package dedup

import (
	"fmt"

	"go-recruit-crawler/internal/filter"
	"go-recruit-crawler/internal/models"
)

// KeyFunc derives the identity key used to match a scraped record against the history.
type KeyFunc func(models.Record) string

const (
	KeyCompanyPosition        = "company_position"
	KeyCompanyPositionUpdated = "company_position_update"
)

// CompanyPosition treats a re-posted listing as the same listing.
func CompanyPosition(r models.Record) string {
	return filter.Normalize(r.Company) + "|" + filter.Normalize(r.Position)
}

// CompanyPositionUpdated treats every new update time as a distinct listing.
func CompanyPositionUpdated(r models.Record) string {
	return CompanyPosition(r) + "|" + filter.Normalize(r.UpdateTime)
}

// KeyFuncByName resolves the key strategy named in the config.
func KeyFuncByName(name string) (KeyFunc, error) {
	switch name {
	case "", KeyCompanyPosition:
		return CompanyPosition, nil
	case KeyCompanyPositionUpdated:
		return CompanyPositionUpdated, nil
	}
	return nil, fmt.Errorf("unknown identity key %q", name)
}
