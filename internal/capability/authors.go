package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// RosterAuthorRegistry matches an author from the configured roster by
// overlap between the item's keywords and the author's expertise. The
// health score is the covered fraction of the item's keywords.
type RosterAuthorRegistry struct {
	roster []config.AuthorConfig
}

// NewRosterAuthorRegistry creates a registry over the configured roster
func NewRosterAuthorRegistry(cfg *config.Config) *RosterAuthorRegistry {
	return &RosterAuthorRegistry{roster: cfg.Authors}
}

// Match selects the best-covering author
func (r *RosterAuthorRegistry) Match(ctx context.Context, campaign *models.Campaign, item models.SourceItem) (*models.AuthorMatch, error) {
	if len(r.roster) == 0 {
		return nil, fmt.Errorf("author roster is empty")
	}

	best := r.roster[0]
	bestScore := 0.0

	for _, author := range r.roster {
		score := coverage(item.Keywords, author.Expertise)
		if score > bestScore {
			best = author
			bestScore = score
		}
	}

	return &models.AuthorMatch{
		AuthorID:    best.ID,
		DisplayName: best.DisplayName,
		HealthScore: bestScore,
	}, nil
}

// coverage returns the fraction of keywords covered by the expertise list
func coverage(keywords, expertise []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	expert := make(map[string]bool, len(expertise))
	for _, e := range expertise {
		expert[strings.ToLower(strings.TrimSpace(e))] = true
	}
	covered := 0
	for _, kw := range keywords {
		if expert[strings.ToLower(strings.TrimSpace(kw))] {
			covered++
		}
	}
	return float64(covered) / float64(len(keywords))
}
