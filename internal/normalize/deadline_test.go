package normalize

import (
	"strings"
	"testing"
	"time"
)

var runDate = time.Date(2025, 11, 1, 9, 30, 0, 0, time.UTC)

func TestParseDeadline_FromDate(t *testing.T) {
	d := ParseDeadline("Payout Varies Deadline 11/15/25", runDate)
	if d.Date == nil {
		t.Fatal("expected a deadline date")
	}
	if got := d.Date.Format("2006-01-02"); got != "2025-11-15" {
		t.Errorf("date: got %s", got)
	}
	if d.DaysLeft == nil || *d.DaysLeft != 14 {
		t.Errorf("days left: got %v, want 14", d.DaysLeft)
	}
	if d.Warning != "" {
		t.Errorf("unexpected warning: %s", d.Warning)
	}
}

func TestParseDeadline_FourDigitYear(t *testing.T) {
	d := ParseDeadline("Deadline 1/5/2026", runDate)
	if d.Date == nil {
		t.Fatal("expected a deadline date")
	}
	if got := d.Date.Format("2006-01-02"); got != "2026-01-05" {
		t.Errorf("date: got %s", got)
	}
}

func TestParseDeadline_PastDateClampsToZero(t *testing.T) {
	d := ParseDeadline("Deadline 10/1/25", runDate)
	if d.DaysLeft == nil || *d.DaysLeft != 0 {
		t.Errorf("days left: got %v, want 0", d.DaysLeft)
	}
}

func TestParseDeadline_DaysLeftPhraseOnly(t *testing.T) {
	d := ParseDeadline("Only 9 Days Left to file", runDate)
	if d.Date != nil {
		t.Error("expected no date")
	}
	if d.DaysLeft == nil || *d.DaysLeft != 9 {
		t.Errorf("days left: got %v, want 9", d.DaysLeft)
	}
}

func TestParseDeadline_DateWinsOverPhrase(t *testing.T) {
	// 11/15 implies 14 days from the run date; the stale phrase says 3.
	d := ParseDeadline("Deadline 11/15/25 3 Days Left", runDate)
	if d.DaysLeft == nil || *d.DaysLeft != 14 {
		t.Errorf("days left: got %v, want 14 (deadline wins)", d.DaysLeft)
	}
	if d.Warning == "" {
		t.Error("expected a consistency warning")
	}
	if !strings.Contains(d.Warning, "using deadline") {
		t.Errorf("warning should say the deadline wins: %s", d.Warning)
	}
}

func TestParseDeadline_AgreementNoWarning(t *testing.T) {
	d := ParseDeadline("Deadline 11/15/25 14 Days Left", runDate)
	if d.Warning != "" {
		t.Errorf("unexpected warning: %s", d.Warning)
	}
}

func TestParseDeadline_Nothing(t *testing.T) {
	d := ParseDeadline("Payout Varies Proof Required? No", runDate)
	if d.Date != nil || d.DaysLeft != nil {
		t.Errorf("expected empty deadline, got %+v", d)
	}
}
