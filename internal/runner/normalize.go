package runner

import (
	"github.com/alexanderjulianmartinez/dq-watch/internal/expect"
	"github.com/alexanderjulianmartinez/dq-watch/pkg/types"
)

// Normalize converts an engine outcome into a CheckResult. A passing outcome
// always yields zero failed rows and an empty reason; a failing one carries
// the unexpected sample, or the observed value when there is no sample.
func Normalize(database, table, check string, total int64, out expect.Outcome) types.CheckResult {
	res := types.CheckResult{
		DatabaseName: database,
		TableName:    table,
		CheckName:    check,
		Status:       types.StatusPassed,
		TotalRows:    total,
	}
	if out.Success {
		return res
	}

	res.Status = types.StatusFailed
	res.FailedRows = out.UnexpectedCount
	if res.FailedRows < 0 {
		res.FailedRows = 0
	}
	if res.FailedRows > total {
		res.FailedRows = total
	}

	switch {
	case len(out.UnexpectedList) > 0:
		res.FailureReason = expect.FormatValues(out.UnexpectedList)
	case out.Observed != "":
		res.FailureReason = out.Observed
	default:
		res.FailureReason = "expectation not met"
	}
	return res
}
