package deck

import "fmt"

// Milestone identifies a progress checkpoint within one generation run.
type Milestone string

const (
	MilestoneAdmitted     Milestone = "admitted"
	MilestoneOutlineReady Milestone = "outline_ready"
	MilestoneUnitRendered Milestone = "unit_rendered"
)

// ProgressFunc receives best-effort progress notifications. The orchestrator
// ignores anything the callback does wrong, including panics.
type ProgressFunc func(milestone Milestone, detail string)

// notify invokes the callback, swallowing panics so a broken notifier can
// never fail a job.
func notify(fn ProgressFunc, milestone Milestone, detail string) {
	if fn == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	fn(milestone, detail)
}

func unitDetail(index, total int) string {
	return fmt.Sprintf("%d/%d", index+1, total)
}
