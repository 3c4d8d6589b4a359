package matching

import (
	"context"
	"sort"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Engine clusters a scope's customers into duplicate groups. The scan is a
// single greedy pass over an already-fetched in-memory list: O(n^2) pairwise
// comparisons in local compute, no remote calls. That is acceptable while
// scopes stay in the hundreds-to-low-thousands range; larger datasets need
// blocking (bucket by email domain or phonetic name key) before the pairwise
// pass.
type Engine struct {
	logger  ectologger.Logger
	matcher *Matcher
}

// NewEngine creates a new clustering engine
func NewEngine(logger ectologger.Logger, matcher *Matcher) *Engine {
	return &Engine{
		logger:  logger,
		matcher: matcher,
	}
}

// Cluster groups probable duplicates. Clustering is greedy and
// non-transitive: records are visited in list order, each unprocessed record
// is compared against every other unprocessed record, and a group is emitted
// only when at least one pair meets the candidate threshold. A customer id
// never appears in more than one group, and re-running over the same input
// in the same order yields identical groups.
func (e *Engine) Cluster(ctx context.Context, customers []models.Customer) []models.DuplicateGroup {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Cluster")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"customer_count": len(customers),
	})

	processed := make(map[string]bool, len(customers))
	groups := make([]models.DuplicateGroup, 0)

	for i := range customers {
		primary := &customers[i]
		if processed[primary.ID] {
			continue
		}

		var candidates []models.DuplicateCandidate
		for j := range customers {
			if i == j {
				continue
			}
			other := &customers[j]
			if processed[other.ID] {
				continue
			}

			match := e.matcher.Score(primary, other)
			if !e.matcher.IsCandidate(match.Score) {
				continue
			}

			candidates = append(candidates, models.DuplicateCandidate{
				CustomerID:    other.ID,
				Email:         other.Email,
				FirstName:     other.FirstName,
				LastName:      other.LastName,
				Phone:         other.Phone,
				TotalBookings: other.TotalBookings,
				TotalSpent:    other.TotalSpent,
				CreatedAt:     other.CreatedAt,
				Score:         match.Score,
				Reasons:       match.Reasons,
			})
		}

		// A record with no candidates starts no group and stays available
		// as a candidate for later records.
		if len(candidates) == 0 {
			continue
		}

		// Stable sort keeps scan order for equal scores.
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].Score > candidates[b].Score
		})

		processed[primary.ID] = true
		for _, c := range candidates {
			processed[c.CustomerID] = true
		}

		groups = append(groups, models.DuplicateGroup{
			PrimaryCustomerID: primary.ID,
			Primary:           *primary,
			Candidates:        candidates,
			MatchedOn:         inferCategories(candidates),
		})
	}

	log.WithFields(map[string]any{"group_count": len(groups)}).Debug("Clustered duplicate groups")

	return groups
}

// inferCategories derives the matched-on summary for a group from its
// candidates' reason text. Display aggregate only; nothing downstream
// depends on it.
func inferCategories(candidates []models.DuplicateCandidate) []string {
	var email, phone, name bool
	for _, c := range candidates {
		for _, reason := range c.Reasons {
			switch {
			case strings.Contains(reason, "email"):
				email = true
			case strings.Contains(reason, "phone"):
				phone = true
			case strings.Contains(reason, "name"):
				name = true
			}
		}
	}

	categories := make([]string, 0, 3)
	if email {
		categories = append(categories, models.MatchCategoryEmail)
	}
	if phone {
		categories = append(categories, models.MatchCategoryPhone)
	}
	if name {
		categories = append(categories, models.MatchCategoryName)
	}
	return categories
}
