package services

import (
	"sort"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// GeographyAggregator groups cases by province and municipality with
// online and company-applicant breakdowns.
type GeographyAggregator interface {
	ProvinceRows(cases []models.Case) []models.RegionRow
	MunicipalityRows(cases []models.Case) []models.RegionRow
}

type geographyAggregator struct{}

// NewGeographyAggregator creates a new GeographyAggregator.
func NewGeographyAggregator() GeographyAggregator {
	return &geographyAggregator{}
}

var _ GeographyAggregator = (*geographyAggregator)(nil)

func (a *geographyAggregator) ProvinceRows(cases []models.Case) []models.RegionRow {
	return regionRows(cases, func(c models.Case) (code, name, province string) {
		return c.ProvinceCode, c.Province, c.Province
	})
}

func (a *geographyAggregator) MunicipalityRows(cases []models.Case) []models.RegionRow {
	return regionRows(cases, func(c models.Case) (code, name, province string) {
		return c.MunicipalityCode, c.Municipality, c.Province
	})
}

// regionRows aggregates by whatever region the key function extracts.
// The share-of-total column is national; the online and company shares
// are local to each region.
func regionRows(cases []models.Case, key func(models.Case) (code, name, province string)) []models.RegionRow {
	type regionAcc struct {
		row models.RegionRow
	}
	regions := make(map[string]*regionAcc)

	for _, c := range cases {
		code, name, province := key(c)
		r, ok := regions[code]
		if !ok {
			r = &regionAcc{row: models.RegionRow{Code: code, Name: name, Province: province}}
			regions[code] = r
		}
		r.row.Total++
		if c.IsOnline {
			r.row.Online++
		}
		if c.IsCompany {
			r.row.Companies++
		}
	}

	national := len(cases)
	rows := make([]models.RegionRow, 0, len(regions))
	for _, r := range regions {
		row := r.row
		if national > 0 {
			row.PercentOfTotal = round1(float64(row.Total) / float64(national) * 100)
		}
		if row.Total > 0 {
			row.PercentOnline = round1(float64(row.Online) / float64(row.Total) * 100)
			row.PercentCompany = round1(float64(row.Companies) / float64(row.Total) * 100)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Code < rows[j].Code
	})
	return rows
}
