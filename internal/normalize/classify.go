package normalize

import (
	"regexp"
	"strings"

	"github.com/settlewatch/settlewatch/internal/model"
)

// categoryKeywords maps each category to the phrases that select it.
// First category whose keyword appears wins; order matters because privacy
// phrasing ("data breach") often co-occurs with finance words.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{model.CategoryPrivacy, []string{
		"data breach", "privacy", "biometric", "personal information",
		"tcpa", "robocall", "wiretap", "tracking",
	}},
	{model.CategoryFinance, []string{
		"bank", "overdraft", "interest rate", "credit", "loan", "fee",
		"insurance", "investment", "securities",
	}},
	{model.CategoryAuto, []string{
		"vehicle", "car ", "truck", "airbag", "engine", "transmission",
		"recall",
	}},
	{model.CategoryHealth, []string{
		"drug", "medical", "health", "pharmaceutical", "device", "implant",
	}},
}

// ClassifyCategory assigns a category from the closed set using keyword
// matching over the card's name and text, defaulting to consumer.
func ClassifyCategory(name, text string) string {
	haystack := strings.ToLower(name + " " + text)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(haystack, kw) {
				return entry.category
			}
		}
	}
	return model.CategoryConsumer
}

var (
	proofNoRe  = regexp.MustCompile(`(?i)proof\s*required\s*\??\s*no\b`)
	proofYesRe = regexp.MustCompile(`(?i)proof\s*required\s*\??\s*yes\b|documentation\s+required`)
)

// InferProof derives the proof-requirement flag from card text. Undetermined
// means proof required: claiming without documentation is the exception, not
// the default.
func InferProof(text string) bool {
	if proofNoRe.MatchString(text) {
		return false
	}
	if proofYesRe.MatchString(text) {
		return true
	}
	return true
}

// ProofStated reports whether the card text states the requirement at all,
// so callers can distinguish an inferred default from an explicit answer.
func ProofStated(text string) bool {
	return proofNoRe.MatchString(text) || proofYesRe.MatchString(text)
}

var eligibilityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(you may be (?:included|covered|eligible|able)[^.]+\.)`),
	regexp.MustCompile(`(?i)(this settlement covers[^.]+\.)`),
	regexp.MustCompile(`(?i)(if you [^.]+(?:you may|this settlement)[^.]+\.)`),
	regexp.MustCompile(`(?i)(class members are[^.]+\.)`),
}

// ExtractEligibility pulls the eligibility sentence out of card text, if one
// of the known phrasings is present.
func ExtractEligibility(text string) string {
	for _, re := range eligibilityPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// majorBrands are companies surfaced with editorial prominence.
var majorBrands = map[string]struct{}{
	"23andme": {}, "amazon": {}, "google": {}, "facebook": {}, "meta": {},
	"apple": {}, "microsoft": {}, "capital one": {}, "wells fargo": {},
	"robinhood": {}, "doordash": {}, "uber": {}, "lyft": {}, "target": {},
	"walmart": {}, "nissan": {}, "toyota": {}, "ford": {}, "hyundai": {},
	"kia": {}, "kaiser": {}, "theranos": {}, "peloton": {},
}

// IsMajorBrand reports whether the company name matches a known major brand.
func IsMajorBrand(company string) bool {
	_, ok := majorBrands[strings.ToLower(strings.TrimSpace(company))]
	return ok
}

// CompanyName derives the short company name from a listing title: the text
// before the first " - " separator, or the whole title.
func CompanyName(title string) string {
	if before, _, found := strings.Cut(title, " - "); found {
		return strings.TrimSpace(before)
	}
	return strings.TrimSpace(title)
}

// FullName ensures the listing title reads as a settlement name.
func FullName(title string) string {
	title = strings.TrimSpace(title)
	if strings.Contains(title, "Settlement") {
		return title
	}
	return title + " Class Action Settlement"
}
