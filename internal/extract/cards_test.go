package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/settlewatch/settlewatch/internal/model"
)

const twoCardHTML = `
<html><body>
<div class="listings">
	<div class="card">
		<div class="title">
			<a data-name="Alpha Corp - Overdraft Fees" data-slug="alpha-fees" href="/settlements/alpha-fees">Alpha Corp</a>
		</div>
		<div class="details">
			Payout $100 - $10,000 Deadline 12/1/25 Proof Required? No
			You may be included if you paid overdraft fees to Alpha Corp between
			January 2019 and December 2023 and did not receive a refund from the bank.
		</div>
	</div>
	<div class="card">
		<div class="title">
			<a data-name="Beta Inc - Data Breach" data-slug="beta-breach" href="https://example.com/beta">Beta Inc</a>
		</div>
		<div class="details">
			Payout $500+ Deadline 1/15/26 Proof Required? Yes
			You may be covered if your personal information was exposed in the Beta Inc
			data breach announced in March 2024 and you received a notice letter.
		</div>
	</div>
</div>
</body></html>`

func TestExtract_TwoCards(t *testing.T) {
	cards, errs := NewCardExtractor().Extract(twoCardHTML)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}

	// Document order preserved.
	if cards[0].Slug != "alpha-fees" || cards[1].Slug != "beta-breach" {
		t.Errorf("unexpected order: %s, %s", cards[0].Slug, cards[1].Slug)
	}

	alpha := cards[0]
	if alpha.Name != "Alpha Corp - Overdraft Fees" {
		t.Errorf("name: got %q", alpha.Name)
	}
	if alpha.ClaimURL != "/settlements/alpha-fees" {
		t.Errorf("claim url: got %q", alpha.ClaimURL)
	}
	if !strings.Contains(alpha.CardText, "Payout $100 - $10,000") {
		t.Errorf("card text should contain the payout line: %q", alpha.CardText)
	}
	if !strings.Contains(alpha.CardText, "Deadline 12/1/25") {
		t.Errorf("card text should contain the deadline: %q", alpha.CardText)
	}
	// The walk-up must stop at this card's container, not swallow the
	// neighboring card.
	if strings.Contains(alpha.CardText, "Beta Inc") {
		t.Errorf("card text leaked into the next card: %q", alpha.CardText)
	}
}

func TestExtract_MissingNameIsParseError(t *testing.T) {
	html := `<html><body>
	<a data-name="" data-slug="ghost" href="/x">Ghost</a>
	<a data-name="Real Co - Fees" data-slug="real-co" href="/y">Real</a>
	</body></html>`

	cards, errs := NewCardExtractor().Extract(html)
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 parse error, got %d", len(errs))
	}
	var perr *model.ParseError
	if !errors.As(errs[0], &perr) {
		t.Fatalf("expected *model.ParseError, got %T", errs[0])
	}
}

func TestExtract_DuplicateSlugSkipped(t *testing.T) {
	html := `<html><body>
	<a data-name="Alpha - First" data-slug="alpha" href="/a">A</a>
	<a data-name="Alpha - Second" data-slug="alpha" href="/b">B</a>
	</body></html>`

	cards, _ := NewCardExtractor().Extract(html)
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	if cards[0].Name != "Alpha - First" {
		t.Errorf("first occurrence should win, got %q", cards[0].Name)
	}
}

func TestExtract_SlugDerivedFromName(t *testing.T) {
	html := `<html><body>
	<a data-name="Gamma Corp - TCPA Robocalls" href="/g">G</a>
	</body></html>`

	cards, _ := NewCardExtractor().Extract(html)
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	if cards[0].Slug != "gamma-corp-tcpa-robocalls" {
		t.Errorf("derived slug: got %q", cards[0].Slug)
	}
}

func TestExtract_DirectLogoAttribute(t *testing.T) {
	html := `<html><body>
	<a data-name="Delta - Fees" data-slug="delta" data-logo="https://cdn.example.com/delta.png" href="/d">D</a>
	</body></html>`

	cards, _ := NewCardExtractor().Extract(html)
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	if cards[0].LogoURL != "https://cdn.example.com/delta.png" {
		t.Errorf("logo url: got %q", cards[0].LogoURL)
	}
}

func TestExtract_MalformedDocumentStillBestEffort(t *testing.T) {
	// html.Parse repairs broken markup; extraction should still find the card.
	html := `<div><a data-name="Epsilon - Fees" data-slug="epsilon" href="/e">E</a><div>unclosed`

	cards, errs := NewCardExtractor().Extract(html)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
}
