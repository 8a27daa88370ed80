// Package logo pairs settlement listings with their logo images.
//
// The source markup emits a card's name/slug metadata immediately before the
// card's logo image, so each image is paired with the nearest name and slug
// tokens that precede it in document order. Scanning forward instead would
// risk stealing the next card's metadata, which is exactly the
// misattribution this package must never produce.
package logo

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var (
	imageTokenRe = regexp.MustCompile(`(?i)(?:src|data-src)\s*=\s*["']([^"']+?\.(?:png|jpe?g|webp|svg|gif))(?:\?[^"']*)?["']`)
	nameTokenRe  = regexp.MustCompile(`data-name\s*=\s*["']([^"']+)["']`)
	slugTokenRe  = regexp.MustCompile(`data-slug\s*=\s*["']([^"']+)["']`)
	wsRe         = regexp.MustCompile(`\s+`)
)

// Maps are the per-run lookup tables from slug and normalized name to logo
// URL. They are rebuilt on every resolution pass and never persisted.
type Maps struct {
	Slugs map[string]string
	Names map[string]string
}

// Resolver builds logo maps from raw listings HTML.
type Resolver struct {
	baseURL string
	logger  *zap.Logger
}

// NewResolver creates a resolver that absolutizes relative image paths
// against baseURL.
func NewResolver(baseURL string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type tokenKind int

const (
	tokenImage tokenKind = iota
	tokenName
	tokenSlug
)

type token struct {
	pos   int
	kind  tokenKind
	value string
}

// Build scans the document once, left to right, tracking the most recent
// name and slug seen; every image token is paired with those running values.
// Later pairs overwrite earlier ones sharing a key (last writer wins).
func (r *Resolver) Build(html string) Maps {
	tokens := scanTokens(html)

	maps := Maps{
		Slugs: make(map[string]string),
		Names: make(map[string]string),
	}

	var lastName, lastSlug string
	for _, tok := range tokens {
		switch tok.kind {
		case tokenName:
			lastName = tok.value
		case tokenSlug:
			lastSlug = tok.value
		case tokenImage:
			url := r.absolutize(tok.value)
			if lastSlug != "" {
				key := strings.ToLower(lastSlug)
				if prev, ok := maps.Slugs[key]; ok && prev != url {
					r.logger.Debug("duplicate slug in source, overwriting",
						zap.String("slug", key), zap.String("old", prev), zap.String("new", url))
				}
				maps.Slugs[key] = url
			}
			if lastName != "" {
				key := Normalize(lastName)
				if prev, ok := maps.Names[key]; ok && prev != url {
					r.logger.Debug("duplicate name in source, overwriting",
						zap.String("name", key), zap.String("old", prev), zap.String("new", url))
				}
				maps.Names[key] = url
			}
		}
	}

	return maps
}

// Resolve tries the matching tiers in order, first hit wins:
// exact slug, normalized name, slug derived from the name.
// ok=false means the caller keeps whatever fallback it has.
func (m Maps) Resolve(sourceID, name string) (url string, ok bool) {
	if u, ok := m.Slugs[strings.ToLower(sourceID)]; ok {
		return u, true
	}
	if u, ok := m.Names[Normalize(name)]; ok {
		return u, true
	}
	if u, ok := m.Slugs[DeriveSlug(name)]; ok {
		return u, true
	}
	return "", false
}

func scanTokens(html string) []token {
	var tokens []token
	appendMatches := func(re *regexp.Regexp, kind tokenKind) {
		for _, m := range re.FindAllStringSubmatchIndex(html, -1) {
			tokens = append(tokens, token{
				pos:   m[0],
				kind:  kind,
				value: html[m[2]:m[3]],
			})
		}
	}
	appendMatches(imageTokenRe, tokenImage)
	appendMatches(nameTokenRe, tokenName)
	appendMatches(slugTokenRe, tokenSlug)

	sort.Slice(tokens, func(i, j int) bool { return tokens[i].pos < tokens[j].pos })
	return tokens
}

func (r *Resolver) absolutize(path string) string {
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "//"):
		return "https:" + path
	case strings.HasPrefix(path, "/"):
		return r.baseURL + path
	default:
		return r.baseURL + "/" + path
	}
}

// trailing phrases stripped during normalization, longest first
var nameSuffixes = []string{
	" - class action settlement",
	" class action settlement",
}

// Normalize lowercases, trims, collapses internal whitespace, and strips the
// known trailing suffix phrases. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = wsRe.ReplaceAllString(s, " ")
	for {
		trimmed := s
		for _, suffix := range nameSuffixes {
			trimmed = strings.TrimSuffix(trimmed, suffix)
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// DeriveSlug turns a listing name into a slug: normalize, hyphenate the
// " - " separator and spaces, spell out "&", drop everything that is not
// alphanumeric or a hyphen.
func DeriveSlug(name string) string {
	s := Normalize(name)
	s = strings.ReplaceAll(s, " - ", "-")
	s = strings.ReplaceAll(s, "&", "and")
	s = strings.ReplaceAll(s, " ", "-")

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
