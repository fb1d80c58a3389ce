package domain

import "slices"

// InHouseSource is the staffing source counted towards overall headcount.
const InHouseSource = "Eclipse"

// Position is one line of the personnel resourcing table for a year.
type Position struct {
	Position            string  `json:"position"`
	Source              string  `json:"source"`
	Cost                float64 `json:"cost"`
	Qty                 float64 `json:"qty"`
	StoryPointsPerMonth float64 `json:"storyPointsPerMonth"`
}

// TotalPerYear is cost × quantity.
func (p Position) TotalPerYear() float64 { return p.Cost * p.Qty }

// Overall is the in-house headcount the line contributes.
func (p Position) Overall() float64 {
	if p.Source == InHouseSource {
		return p.Qty
	}
	return 0
}

// PointsPerMonth is the monthly velocity the line contributes.
func (p Position) PointsPerMonth() float64 { return p.StoryPointsPerMonth * p.Qty }

// PersonnelPlan maps a year label (e.g. "2026") to its positions.
type PersonnelPlan map[string][]Position

// PersonnelTotals summarises one year of a PersonnelPlan.
type PersonnelTotals struct {
	TotalPerYear   float64
	Overall        float64
	PointsPerMonth float64
}

// Totals sums the positions for a year.
func (p PersonnelPlan) Totals(year string) PersonnelTotals {
	var t PersonnelTotals
	for _, pos := range p[year] {
		t.TotalPerYear += pos.TotalPerYear()
		t.Overall += pos.Overall()
		t.PointsPerMonth += pos.PointsPerMonth()
	}
	return t
}

// Years returns the plan's year labels in sorted order.
func (p PersonnelPlan) Years() []string { return sortedKeys(p) }

// HardwareItem is one line of the hardware resourcing table.
type HardwareItem struct {
	Category    string  `json:"category"`
	Item        string  `json:"item"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Qty         float64 `json:"qty"`
}

// Total is cost × quantity.
func (h HardwareItem) Total() float64 { return h.Cost * h.Qty }

// HardwarePlan maps a fiscal-year label (e.g. "FY26") to its hardware lines.
type HardwarePlan map[string][]HardwareItem

// Years returns the plan's fiscal-year labels in sorted order.
func (h HardwarePlan) Years() []string { return sortedKeys(h) }

// CategoryTotals sums line totals per category for a fiscal year. The
// returned category order follows first appearance.
func (h HardwarePlan) CategoryTotals(year string) ([]string, map[string]float64) {
	var order []string
	totals := make(map[string]float64)
	for _, it := range h[year] {
		if _, ok := totals[it.Category]; !ok {
			order = append(order, it.Category)
		}
		totals[it.Category] += it.Total()
	}
	return order, totals
}

// GrandTotal sums every line of a fiscal year.
func (h HardwarePlan) GrandTotal(year string) float64 {
	var total float64
	for _, it := range h[year] {
		total += it.Total()
	}
	return total
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var defaultPositions = []Position{
	{Position: "Program Management", Source: InHouseSource, Cost: 120000, Qty: 1, StoryPointsPerMonth: 8},
	{Position: "Tech Lead", Source: InHouseSource, Cost: 150000, Qty: 1, StoryPointsPerMonth: 24},
	{Position: "Project Manager", Source: InHouseSource, Cost: 115000, Qty: 1, StoryPointsPerMonth: 8},
	{Position: "Digital Innovation Architect", Source: InHouseSource, Cost: 115000, Qty: 3, StoryPointsPerMonth: 18},
	{Position: "Full Stack Software Engineer", Source: InHouseSource, Cost: 120000, Qty: 8, StoryPointsPerMonth: 18},
	{Position: "DevOps Engineer", Source: InHouseSource, Cost: 120000, Qty: 1, StoryPointsPerMonth: 18},
	{Position: "Co-op", Source: InHouseSource, Cost: 30000, Qty: 3, StoryPointsPerMonth: 10},
	{Position: "Contract - Low Cost", Source: "Contract", Cost: 20000, Qty: 0, StoryPointsPerMonth: 10},
	{Position: "Contract - Medium Cost", Source: "Contract", Cost: 50000, Qty: 0, StoryPointsPerMonth: 18},
	{Position: "Contract - High Cost", Source: "Contract", Cost: 150000, Qty: 0, StoryPointsPerMonth: 24},
}

// DefaultYears are the years a fresh personnel plan covers.
var DefaultYears = []string{"2026", "2027", "2028"}

// DefaultPersonnelPlan seeds every year in years with the default positions.
func DefaultPersonnelPlan(years ...string) PersonnelPlan {
	plan := make(PersonnelPlan, len(years))
	for _, y := range years {
		plan[y] = slices.Clone(defaultPositions)
	}
	return plan
}

// DefaultHardwarePlan returns the seed hardware plan for FY26–FY28.
func DefaultHardwarePlan() HardwarePlan {
	devices := func(xr, scanners float64) []HardwareItem {
		return []HardwareItem{
			{Category: "Devices", Item: "XR Device", Description: "Apple Vision Pro or Equiv", Cost: 4500, Qty: xr},
			{Category: "Devices", Item: "Handheld Scanner", Description: "PortalCAM or Equiv", Cost: 5500, Qty: scanners},
			{Category: "Devices", Item: "Misc", Description: "Misc R&D Hardware", Cost: 100000, Qty: 1},
			{Category: "In-Kind", Item: "Mirsee Collab Agreement", Description: "Mentorship, Manufacturing, Space, Software, etc.", Cost: 1000000, Qty: 0.3},
		}
	}
	fy26 := []HardwareItem{
		{Category: "NVIDIA Room", Item: "Workstations", Description: "Monitor mounted PCs", Cost: 2000, Qty: 8},
		{Category: "NVIDIA Room", Item: "Command Workstation", Description: "RTX6000 PRO Workstation", Cost: 15000, Qty: 1},
		{Category: "NVIDIA Room", Item: "Furniture", Description: "Custom conference table, command desk, misc furniture", Cost: 50000, Qty: 1},
		{Category: "NVIDIA Room", Item: "RTX Server", Description: "8 GPU RTX Server", Cost: 250000, Qty: 4},
		{Category: "NVIDIA Room", Item: "Networking/Servers", Description: "Switches, Server hardware, UPS, Data Domain License", Cost: 400000, Qty: 1},
		{Category: "NVIDIA Room", Item: "LED Wall", Description: "16' x 9' 4k LED Wall", Cost: 260000, Qty: 1},
		{Category: "NVIDIA Room", Item: "AV & Controls", Description: "AV Installation & Crestron Control Room or Equiv", Cost: 120000, Qty: 1},
	}
	fy26 = append(fy26, devices(6, 5)...)
	fy26 = append(fy26,
		HardwareItem{Category: "Investment", Item: "Interaptix Strategic Investment", Description: "Interaptix Strategic Investment & Partnership", Cost: 0, Qty: 1},
		HardwareItem{Category: "Office Equipment", Item: "Developer Workstation", Description: "RTX6000 PRO Workstation", Cost: 13000, Qty: 8},
	)
	return HardwarePlan{
		"FY26": fy26,
		"FY27": devices(10, 5),
		"FY28": devices(1, 1),
	}
}
