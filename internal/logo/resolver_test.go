package logo

import (
	"testing"

	"go.uber.org/zap"
)

const base = "https://www.classaction.org"

func newTestResolver() *Resolver {
	return NewResolver(base, zap.NewNop())
}

func TestBuild_NearestPrecedingPairing(t *testing.T) {
	// Each image must pair with the metadata immediately before it, never
	// with the next card's.
	html := `
	<div>
		<a data-name="Alpha Corp - Fee Settlement" data-slug="alpha-fees" href="/x"></a>
		<img src="/media/alpha.png">
	</div>
	<div>
		<a data-name="Beta Inc - Breach Settlement" data-slug="beta-breach" href="/y"></a>
		<img src="/media/beta.png">
	</div>`

	maps := newTestResolver().Build(html)

	if got := maps.Slugs["alpha-fees"]; got != base+"/media/alpha.png" {
		t.Errorf("alpha-fees: got %q", got)
	}
	if got := maps.Slugs["beta-breach"]; got != base+"/media/beta.png" {
		t.Errorf("beta-breach: got %q", got)
	}
}

func TestBuild_ImageBeforeAnyMetadataIgnored(t *testing.T) {
	html := `<img src="/media/banner.png">
	<a data-name="Alpha" data-slug="alpha"></a>
	<img src="/media/alpha.png">`

	maps := newTestResolver().Build(html)

	if len(maps.Slugs) != 1 {
		t.Fatalf("expected 1 slug entry, got %d", len(maps.Slugs))
	}
	if got := maps.Slugs["alpha"]; got != base+"/media/alpha.png" {
		t.Errorf("alpha: got %q", got)
	}
}

func TestBuild_LastWriterWins(t *testing.T) {
	html := `
	<a data-name="Alpha" data-slug="alpha"></a><img src="/media/old.png">
	<a data-name="Alpha" data-slug="alpha"></a><img src="/media/new.png">`

	maps := newTestResolver().Build(html)

	if got := maps.Slugs["alpha"]; got != base+"/media/new.png" {
		t.Errorf("expected the later URL to win, got %q", got)
	}
}

func TestBuild_NonImageSourcesIgnored(t *testing.T) {
	html := `<a data-name="Alpha" data-slug="alpha"></a>
	<script src="/js/app.js"></script>
	<img src="/media/alpha.webp?v=2">`

	maps := newTestResolver().Build(html)

	if got := maps.Slugs["alpha"]; got != base+"/media/alpha.webp" {
		t.Errorf("got %q", got)
	}
}

func TestBuild_AbsoluteAndProtocolRelativeURLs(t *testing.T) {
	html := `<a data-name="Alpha" data-slug="alpha"></a><img src="https://cdn.example.com/a.png">
	<a data-name="Beta" data-slug="beta"></a><img src="//cdn.example.com/b.png">`

	maps := newTestResolver().Build(html)

	if got := maps.Slugs["alpha"]; got != "https://cdn.example.com/a.png" {
		t.Errorf("absolute: got %q", got)
	}
	if got := maps.Slugs["beta"]; got != "https://cdn.example.com/b.png" {
		t.Errorf("protocol-relative: got %q", got)
	}
}

func TestResolve_Tiers(t *testing.T) {
	maps := Maps{
		Slugs: map[string]string{
			"data-breach-23andme": "https://x/slug.png",
			"alpha-corp-fees":     "https://x/derived.png",
		},
		Names: map[string]string{
			"beta inc": "https://x/name.png",
		},
	}

	// Tier 1: exact slug.
	if url, ok := maps.Resolve("Data-Breach-23andMe", "whatever"); !ok || url != "https://x/slug.png" {
		t.Errorf("tier 1: got %q ok=%v", url, ok)
	}

	// Tier 2: normalized name, even with no slug entry at all.
	if url, ok := maps.Resolve("missing-slug", "Beta Inc Class Action Settlement"); !ok || url != "https://x/name.png" {
		t.Errorf("tier 2: got %q ok=%v", url, ok)
	}

	// Tier 3: slug derived from the name.
	if url, ok := maps.Resolve("missing-slug", "Alpha Corp Fees"); !ok || url != "https://x/derived.png" {
		t.Errorf("tier 3: got %q ok=%v", url, ok)
	}

	// No tier matches.
	if _, ok := maps.Resolve("nope", "Nope Industries"); ok {
		t.Error("expected no match")
	}
}

func TestResolve_EndToEnd(t *testing.T) {
	html := `<div class="card">
		<a data-name="23andMe - Data Breach Class Action Settlement" data-slug="data-breach-23andme" href="/settlements/data-breach-23andme"></a>
		<img data-src="/media/logo.png">
	</div>`

	maps := newTestResolver().Build(html)

	url, ok := maps.Resolve("data-breach-23andme", "23andMe - Data Breach Class Action Settlement")
	if !ok {
		t.Fatal("expected a match")
	}
	if url != "https://www.classaction.org/media/logo.png" {
		t.Errorf("got %q", url)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"23andMe - Data Breach Class Action Settlement", "23andme - data breach"},
		{"  Alpha   Corp  ", "alpha corp"},
		{"Beta Inc Class Action Settlement", "beta inc"},
		{"Gamma - Class Action Settlement", "gamma"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"23andMe - Data Breach Class Action Settlement",
		"  A   B  Class Action Settlement",
		"X Class Action Settlement Class Action Settlement",
		"",
		"   ",
		"ALREADY normal",
	}
	for _, s := range inputs {
		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}

func TestDeriveSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alpha Corp Fees", "alpha-corp-fees"},
		{"23andMe - Data Breach Class Action Settlement", "23andme-data-breach"},
		{"Johnson & Johnson", "johnson-and-johnson"},
		{"Acme, Inc. Overdraft", "acme-inc-overdraft"},
	}

	for _, tt := range tests {
		if got := DeriveSlug(tt.in); got != tt.want {
			t.Errorf("DeriveSlug(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
