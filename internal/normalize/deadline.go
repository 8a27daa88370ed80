package normalize

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

var (
	deadlineRe = regexp.MustCompile(`(?i)deadline\s*:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
	daysLeftRe = regexp.MustCompile(`(?i)<?\s*(\d+)\s*days?\s*left`)
)

// Deadline is the parsed deadline state of a card.
type Deadline struct {
	Date     *time.Time
	DaysLeft *int
	// Warning is set when the explicit days-left phrase disagrees with the
	// count derived from the deadline date. The date wins: it is
	// re-derivable on every run, the phrase is a point-in-time snapshot.
	Warning string
}

// ParseDeadline extracts the deadline date and days-left count from card
// text, relative to runDate. DaysLeft derived from a date is
// max(0, ceil(date - runDate)) in days.
func ParseDeadline(text string, runDate time.Time) Deadline {
	var out Deadline

	if m := deadlineRe.FindStringSubmatch(text); m != nil {
		if t, err := parseSlashDate(m[1]); err == nil {
			out.Date = &t
			days := daysUntil(t, runDate)
			out.DaysLeft = &days
		}
	}

	if m := daysLeftRe.FindStringSubmatch(text); m != nil {
		var explicit int
		fmt.Sscanf(m[1], "%d", &explicit)
		if out.DaysLeft == nil {
			out.DaysLeft = &explicit
		} else if explicit != *out.DaysLeft {
			out.Warning = fmt.Sprintf("days-left text says %d, deadline %s implies %d; using deadline",
				explicit, out.Date.Format("2006-01-02"), *out.DaysLeft)
		}
	}

	return out
}

func parseSlashDate(s string) (time.Time, error) {
	for _, layout := range []string{"1/2/2006", "1/2/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func daysUntil(deadline, runDate time.Time) int {
	d := deadline.Sub(truncateToDay(runDate)).Hours() / 24
	days := int(math.Ceil(d))
	if days < 0 {
		return 0
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
