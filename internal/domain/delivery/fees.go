// Package delivery holds the static region and district reference data and
// the delivery fee lookup computed at claim submission time.
package delivery

import "github.com/turtacn/ClaimBridge/pkg/errors"

// Region groups a set of districts under one base delivery fee.  The fee is
// a function of the region alone; the district is validated for membership
// but does not change the amount.
type Region struct {
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
	BaseFee   int64    `json:"base_fee"`
}

var regions = []Region{
	{Name: "Central", Districts: []string{"Kampala", "Wakiso", "Mukono", "Mpigi"}, BaseFee: 8000},
	{Name: "Eastern", Districts: []string{"Jinja", "Mbale", "Soroti", "Tororo"}, BaseFee: 10000},
	{Name: "Northern", Districts: []string{"Gulu", "Lira", "Kitgum", "Pader"}, BaseFee: 12000},
	{Name: "West Nile", Districts: []string{"Arua", "Nebbi", "Koboko", "Yumbe"}, BaseFee: 13000},
	{Name: "Western", Districts: []string{"Mbarara", "Fort Portal", "Kabale", "Hoima"}, BaseFee: 15000},
}

// Regions returns the full reference table in a stable order.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// Fee returns the base delivery fee for the given region and district.
// The region must be a known region name and the district must belong to
// that region; both comparisons are exact.
func Fee(region, district string) (int64, error) {
	for _, r := range regions {
		if r.Name != region {
			continue
		}
		for _, d := range r.Districts {
			if d == district {
				return r.BaseFee, nil
			}
		}
		return 0, errors.New(errors.ErrCodeInvalidDistrict,
			"district does not belong to region").WithDetail(region + "/" + district)
	}
	return 0, errors.New(errors.ErrCodeInvalidRegion, "unknown delivery region").WithDetail(region)
}
