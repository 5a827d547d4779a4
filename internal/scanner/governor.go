package scanner

// Governor caps consumption of the metered upstream within a single run. The
// unit of account is the per-bookmaker price snapshot: one sport batch costs
// the sum over its eligible matches of the number of contributing
// bookmakers. The upstream offers no real-time cost callback, so the
// orchestrator computes each batch's cost itself and asks the governor
// before processing.
//
// A Governor is created fresh for every run and is not safe for concurrent
// use; the run loop is strictly sequential.
type Governor struct {
	budget int
	spent  int
}

// NewGovernor creates a Governor with the given snapshot budget.
func NewGovernor(budget int) *Governor {
	return &Governor{budget: budget}
}

// CanAfford reports whether a batch of the given cost fits in the remaining
// budget. It never charges.
func (g *Governor) CanAfford(cost int) bool {
	return g.spent+cost <= g.budget
}

// Charge records consumption. The caller is expected to have checked
// CanAfford first; charging past the budget is not prevented here because a
// batch is processed whole or not at all.
func (g *Governor) Charge(cost int) {
	g.spent += cost
}

// Spent returns the total charged so far this run.
func (g *Governor) Spent() int {
	return g.spent
}

// Remaining returns the unspent budget.
func (g *Governor) Remaining() int {
	if g.spent >= g.budget {
		return 0
	}
	return g.budget - g.spent
}
