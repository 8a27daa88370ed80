package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Payout is the parsed form of a listing's payout text.
// Min=0 with Max=nil means "varies"; Max=nil with Min>0 means uncapped.
type Payout struct {
	Min *float64
	Max *float64
}

var (
	payoutRangeRe  = regexp.MustCompile(`\$\s*([\d,]+)\s*[-\x{2013}]\s*\$\s*([\d,]+)`)
	payoutUpToRe   = regexp.MustCompile(`(?i)up\s+to\s+\$\s*([\d,]+)`)
	payoutSingleRe = regexp.MustCompile(`(?i)payout\s*\$\s*([\d,]+)\s*(\+)?`)
	payoutAmountRe = regexp.MustCompile(`\$\s*([\d,]+)\s*(\+)?`)
)

// ParsePayout inverts the "$min-$max" / "$min+" / "Up to $max" / "Varies"
// display grammar. Thousands separators are ignored. Unparseable text means
// "varies": min 0, no max.
func ParsePayout(text string) Payout {
	if m := payoutRangeRe.FindStringSubmatch(text); m != nil {
		lo := parseAmount(m[1])
		hi := parseAmount(m[2])
		return Payout{Min: &lo, Max: &hi}
	}
	if m := payoutUpToRe.FindStringSubmatch(text); m != nil {
		zero := 0.0
		hi := parseAmount(m[1])
		return Payout{Min: &zero, Max: &hi}
	}
	// Prefer the amount labeled "Payout" then any bare dollar amount.
	m := payoutSingleRe.FindStringSubmatch(text)
	if m == nil {
		m = payoutAmountRe.FindStringSubmatch(text)
	}
	if m != nil {
		val := parseAmount(m[1])
		if m[2] == "+" {
			return Payout{Min: &val}
		}
		hi := val
		return Payout{Min: &val, Max: &hi}
	}
	zero := 0.0
	return Payout{Min: &zero}
}

// FormatPayout renders a Payout back into display form.
func FormatPayout(p Payout) string {
	switch {
	case p.Min == nil || (*p.Min == 0 && p.Max == nil):
		return "Varies"
	case p.Max == nil:
		return "$" + formatAmount(*p.Min) + "+"
	case *p.Min == 0:
		return "Up to $" + formatAmount(*p.Max)
	case *p.Min == *p.Max:
		return "$" + formatAmount(*p.Min)
	default:
		return "$" + formatAmount(*p.Min) + " - $" + formatAmount(*p.Max)
	}
}

// Clamp enforces Min <= Max, returning the corrected payout and whether a
// correction was applied. The invalid upper bound is dropped, not the record.
func (p Payout) Clamp() (Payout, bool) {
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		return Payout{Min: p.Min}, true
	}
	return p, false
}

func parseAmount(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func formatAmount(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	// Insert thousands separators into the integer part.
	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + frac
}
