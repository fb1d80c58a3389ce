package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/roadmap/internal/domain"
)

// resolveItemID accepts a full id, a unique id prefix, or a unique item name
// (case-insensitive).
func resolveItemID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("item ID is required")
	}
	items := app.Roadmap.List(ctx)

	for _, it := range items {
		if it.ID == input {
			return it.ID, nil
		}
	}

	var matches []string
	for _, it := range items {
		if strings.HasPrefix(it.ID, input) {
			matches = append(matches, it.ID)
		}
	}
	if len(matches) == 0 {
		for _, it := range items {
			if strings.EqualFold(it.Name(), input) {
				matches = append(matches, it.ID)
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("work item %q: %w", input, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q is ambiguous (%d matches); use a longer ID", input, len(matches))
	}
}
