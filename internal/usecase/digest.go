package usecase

import (
	"fmt"
	"strings"
	"time"
)

// FormatDigest renders the per-topic reports of one day as a Markdown message.
// It returns an empty string when there is nothing to report.
func FormatDigest(day time.Time, reports []Report) string {
	if len(reports) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*News sentiment for %s*\n", day.Format(time.DateOnly))
	for _, r := range reports {
		fmt.Fprintf(&b, "\n*%s*: %d fetched, %d stored", r.Topic, r.Fetched, r.Stored)
		if r.Unknown > 0 {
			fmt.Fprintf(&b, ", %d unknown", r.Unknown)
		}
		if r.Invalid > 0 {
			fmt.Fprintf(&b, ", %d invalid", r.Invalid)
		}
		if r.Failed > 0 {
			fmt.Fprintf(&b, ", %d failed", r.Failed)
		}
	}
	return b.String()
}
