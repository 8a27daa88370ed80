// Package llm provides an optional category classifier for listings the
// keyword classifier could not place. It refines the fallback category only;
// a classifier failure never blocks or alters an upsert.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/settlewatch/settlewatch/internal/model"
)

// Provider is a chat-completion backend able to pick one category label.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// ClassifyCategory returns one label from the closed category set for
	// the given listing.
	ClassifyCategory(ctx context.Context, req ClassifyRequest) (string, error)
}

// ClassifyRequest carries the listing text the provider may consider.
type ClassifyRequest struct {
	Name     string
	CardText string
}

// BuildPrompt renders the classification prompt. The closed label set is the
// contract: any answer outside it is rejected by ParseLabel.
func BuildPrompt(req ClassifyRequest) string {
	return fmt.Sprintf(`Classify this class-action settlement listing into exactly one category.

Listing: %s
Details: %s

Answer with a single word from this set, nothing else: %s`,
		req.Name, req.CardText, strings.Join(model.Categories(), ", "))
}

// ParseLabel extracts a valid category from a model response, or an error
// when the response strays outside the closed set.
func ParseLabel(response string) (string, error) {
	label := strings.ToLower(strings.TrimSpace(response))
	label = strings.Trim(label, `."'`)
	if !model.ValidCategory(label) {
		return "", fmt.Errorf("response %q is not a known category", response)
	}
	return label, nil
}
