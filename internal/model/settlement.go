package model

import "time"

// Settlement is the canonical record for one class-action settlement listing.
// SourceID is the natural key: it is stable across runs for the same listing,
// while name and company text may drift without creating a new record.
type Settlement struct {
	SourceID    string `json:"source_id"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`

	PayoutMin *float64 `json:"payout_min,omitempty"` // nil+nil or 0+nil means "varies"
	PayoutMax *float64 `json:"payout_max,omitempty"` // nil with PayoutMin set means uncapped

	Deadline *time.Time `json:"deadline,omitempty"` // calendar date, time part ignored
	DaysLeft *int       `json:"days_left,omitempty"`

	CaseType      string `json:"case_type,omitempty"`
	Category      string `json:"category,omitempty"`
	RequiresProof *bool  `json:"requires_proof,omitempty"`

	AboutText       string `json:"about_text,omitempty"`
	EligibilityText string `json:"eligibility_text,omitempty"`

	ClaimURL  string `json:"claim_url,omitempty"` // preferred over SourceURL when present
	SourceURL string `json:"source_url,omitempty"`
	LogoURL   string `json:"logo_url,omitempty"`

	IsFeatured   *bool `json:"is_featured,omitempty"`
	IsMajorBrand *bool `json:"is_major_brand,omitempty"`
}

// Category values form a closed set; the classifier falls back to
// CategoryConsumer when no keyword matches.
const (
	CategoryPrivacy  = "privacy"
	CategoryFinance  = "finance"
	CategoryAuto     = "auto"
	CategoryHealth   = "health"
	CategoryConsumer = "consumer"
)

// Categories lists every valid category, fallback last.
func Categories() []string {
	return []string{CategoryPrivacy, CategoryFinance, CategoryAuto, CategoryHealth, CategoryConsumer}
}

// ValidCategory reports whether s is a member of the closed category set.
func ValidCategory(s string) bool {
	for _, c := range Categories() {
		if s == c {
			return true
		}
	}
	return false
}
