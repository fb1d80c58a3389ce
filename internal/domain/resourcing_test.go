package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersonnelPlan_Totals(t *testing.T) {
	plan := PersonnelPlan{"2026": {
		{Position: "Engineer", Source: InHouseSource, Cost: 100, Qty: 2, StoryPointsPerMonth: 18},
		{Position: "Contractor", Source: "Contract", Cost: 50, Qty: 3, StoryPointsPerMonth: 10},
	}}
	totals := plan.Totals("2026")
	assert.Equal(t, 350.0, totals.TotalPerYear)
	assert.Equal(t, 2.0, totals.Overall)
	assert.Equal(t, 66.0, totals.PointsPerMonth)
	assert.Equal(t, PersonnelTotals{}, plan.Totals("2030"))
}

func TestDefaultPersonnelPlan_IndependentYears(t *testing.T) {
	plan := DefaultPersonnelPlan("2026", "2027")
	plan["2026"][0].Qty = 99
	assert.NotEqual(t, 99.0, plan["2027"][0].Qty)
	assert.Equal(t, []string{"2026", "2027"}, plan.Years())
}

func TestHardwarePlan_CategoryTotals(t *testing.T) {
	plan := DefaultHardwarePlan()
	order, totals := plan.CategoryTotals("FY28")
	assert.Equal(t, []string{"Devices", "In-Kind"}, order)
	assert.Equal(t, 110000.0, totals["Devices"])
	assert.InDelta(t, 300000.0, totals["In-Kind"], 0.001)
	assert.InDelta(t, 410000.0, plan.GrandTotal("FY28"), 0.001)
	assert.Equal(t, []string{"FY26", "FY27", "FY28"}, plan.Years())
}
