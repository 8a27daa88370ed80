// Package extract scans listings HTML and emits one raw candidate record per
// settlement card. Extraction is best-effort: a malformed card is skipped
// with a ParseError, never fatal to the run.
package extract

import (
	"regexp"
	"strings"

	"github.com/settlewatch/settlewatch/internal/model"
	"golang.org/x/net/html"
)

// Card container heuristics: the right ancestor holds one card's worth of
// text, identifiable by length and the presence of the payout/deadline
// labels. Shorter is just the title, longer spans multiple cards.
const (
	cardTextMin   = 150
	cardTextMax   = 800
	maxWalkUp     = 8
	fallbackLevel = 5
)

// RawCard is one settlement card before normalization. Only Name is
// required; every other field may be empty.
type RawCard struct {
	Name     string
	Slug     string
	ClaimURL string
	LogoURL  string // direct image URL when the markup carries one
	CardText string
}

// CardExtractor extracts raw settlement cards from listings HTML.
type CardExtractor struct{}

// NewCardExtractor creates a card extractor.
func NewCardExtractor() *CardExtractor {
	return &CardExtractor{}
}

// Extract returns the cards found in document order plus per-card parse
// errors for the cards that were dropped. A parse failure on one card never
// affects the others.
func (e *CardExtractor) Extract(htmlContent string) ([]RawCard, []error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, []error{&model.ParseError{Reason: "parse document: " + err.Error()}}
	}

	var (
		cards     []RawCard
		errs      []error
		seenSlugs = make(map[string]bool)
	)

	anchors := findAll(doc, func(n *html.Node) bool { return hasAttr(n, "data-name") })
	for _, el := range anchors {
		name := strings.TrimSpace(attr(el, "data-name"))
		if name == "" {
			errs = append(errs, &model.ParseError{
				Card:   attr(el, "data-slug"),
				Reason: "missing name",
			})
			continue
		}

		slug := strings.ToLower(strings.TrimSpace(attr(el, "data-slug")))
		if slug == "" {
			slug = slugify(name)
		}
		if seenSlugs[slug] {
			continue
		}
		seenSlugs[slug] = true

		cards = append(cards, RawCard{
			Name:     name,
			Slug:     slug,
			ClaimURL: strings.TrimSpace(attr(el, "href")),
			LogoURL:  strings.TrimSpace(attr(el, "data-logo")),
			CardText: cardText(el),
		})
	}

	return cards, errs
}

// cardText walks up from the title anchor to the ancestor that contains
// exactly this card's content.
func cardText(el *html.Node) string {
	node := el
	for level := 0; level < maxWalkUp; level++ {
		node = node.Parent
		if node == nil {
			break
		}
		text := nodeText(node)
		if len(text) > cardTextMin && len(text) < cardTextMax {
			if strings.Contains(text, "Payout") && strings.Contains(text, "Deadline") {
				return text
			}
		} else if len(text) >= cardTextMax {
			// Walked past the card into a shared container.
			break
		}
	}

	// Fallback: a fixed number of levels up, whatever text is there.
	node = el
	for i := 0; i < fallbackLevel && node.Parent != nil; i++ {
		node = node.Parent
	}
	return nodeText(node)
}

var slugifyRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	return strings.Trim(slugifyRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
