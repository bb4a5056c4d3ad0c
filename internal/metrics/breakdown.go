package metrics

// JobCost returns the total cost for a job.
func (q *Query) JobCost(jobID string) float64 {
	return q.TotalCost(Filter{JobID: jobID})
}

// JobTokens returns the total tokens consumed by a job.
func (q *Query) JobTokens(jobID string) int {
	return q.TotalTokens(Filter{JobID: jobID})
}

// UnitCost returns the total cost for a program unit (across all jobs).
func (q *Query) UnitCost(unit string) float64 {
	return q.TotalCost(Filter{Unit: unit})
}

// JobUnitCost returns the total cost for a specific job and program unit.
func (q *Query) JobUnitCost(jobID, unit string) float64 {
	return q.TotalCost(Filter{JobID: jobID, Unit: unit})
}

// JobUnitBreakdown returns cost breakdown by program unit for a job.
func (q *Query) JobUnitBreakdown(jobID string) map[string]float64 {
	breakdown := make(map[string]float64)
	for _, m := range q.List(Filter{JobID: jobID}, 0) {
		breakdown[m.Unit] += m.CostUSD
	}
	return breakdown
}

// TokensByUnit returns token totals grouped by program unit.
func (q *Query) TokensByUnit(f Filter) map[string]int {
	breakdown := make(map[string]int)
	for _, m := range q.List(f, 0) {
		breakdown[m.Unit] += m.TotalTokens
	}
	return breakdown
}

// CostByModel returns cost breakdown by model.
func (q *Query) CostByModel(f Filter) map[string]float64 {
	breakdown := make(map[string]float64)
	for _, m := range q.List(f, 0) {
		breakdown[m.Model] += m.CostUSD
	}
	return breakdown
}

// CostByProvider returns cost breakdown by provider.
func (q *Query) CostByProvider(f Filter) map[string]float64 {
	breakdown := make(map[string]float64)
	for _, m := range q.List(f, 0) {
		breakdown[m.Provider] += m.CostUSD
	}
	return breakdown
}

// CostByStage returns cost breakdown by pipeline stage (unitgen, draft,
// refine, review).
func (q *Query) CostByStage(f Filter) map[string]float64 {
	breakdown := make(map[string]float64)
	for _, m := range q.List(f, 0) {
		breakdown[m.Stage] += m.CostUSD
	}
	return breakdown
}
