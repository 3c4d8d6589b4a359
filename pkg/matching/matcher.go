// Package matching implements customer duplicate detection: pairwise
// scoring over normalized contact signals and greedy clustering of the
// resulting candidate matches.
package matching

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Match reason strings surfaced to operators. The clustering engine infers
// the email/phone/name category buckets from these by substring.
const (
	ReasonSameEmail   = "same email address"
	ReasonSamePhone   = "same phone number"
	ReasonSameName    = "same full name"
	ReasonSimilarName = "similar name"
)

// Scoring policy. The bonuses are additive and the total is capped at
// MaxScore. CandidateThreshold is the policy constant that decides the
// false-positive/false-negative tradeoff: an email or phone match alone
// qualifies, name signals alone never do.
const (
	EmailMatchBonus    = 100
	PhoneMatchBonus    = 80
	ExactNameBonus     = 60
	SimilarNameBonus   = 40
	MaxScore           = 100
	CandidateThreshold = 70
)

// MatcherConfig contains the tunable knobs of the pairwise matcher.
type MatcherConfig struct {
	Threshold           int     // Minimum score to consider a pair a candidate match
	MinPhoneDigits      int     // Minimum digits for a phone comparison to count
	NameSimilarityFloor float64 // Ratio above which names are "similar"
	MinExactNameLength  int     // Full names must be longer than this for the exact bonus
}

// DefaultMatcherConfig returns the default matcher policy.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Threshold:           CandidateThreshold,
		MinPhoneDigits:      10,
		NameSimilarityFloor: 0.8,
		MinExactNameLength:  3,
	}
}

// Matcher scores customer pairs. It is pure compute: missing fields degrade
// to "no bonus" for that signal, never to an error.
type Matcher struct {
	scorer *Scorer
	cfg    MatcherConfig
}

// NewMatcher creates a new Matcher
func NewMatcher(cfg MatcherConfig) *Matcher {
	return &Matcher{
		scorer: NewScorer(),
		cfg:    cfg,
	}
}

// Score computes the 0-100 match score and reasons for a customer pair.
// The score is symmetric: Score(a, b) equals Score(b, a).
func (m *Matcher) Score(a, b *models.Customer) models.MatchResult {
	result := models.MatchResult{
		SourceCustomerID:    a.ID,
		CandidateCustomerID: b.ID,
	}

	score := 0

	emailA := normalizers.NormalizeEmail(a.Email)
	emailB := normalizers.NormalizeEmail(b.Email)
	if emailA != "" && emailA == emailB {
		score += EmailMatchBonus
		result.Reasons = append(result.Reasons, ReasonSameEmail)
	}

	phoneA := normalizers.NormalizePhone(a.PhoneValue())
	phoneB := normalizers.NormalizePhone(b.PhoneValue())
	if len(phoneA) >= m.cfg.MinPhoneDigits && phoneA == phoneB {
		score += PhoneMatchBonus
		result.Reasons = append(result.Reasons, ReasonSamePhone)
	}

	// Only one name bonus ever applies per pair.
	nameA := strings.ToLower(a.FullName())
	nameB := strings.ToLower(b.FullName())
	if nameA != "" && nameA == nameB && len(nameA) > m.cfg.MinExactNameLength {
		score += ExactNameBonus
		result.Reasons = append(result.Reasons, ReasonSameName)
	} else if nameA != "" && nameB != "" && m.scorer.NameSimilarity(nameA, nameB) > m.cfg.NameSimilarityFloor {
		score += SimilarNameBonus
		result.Reasons = append(result.Reasons, ReasonSimilarName)
	}

	if score > MaxScore {
		score = MaxScore
	}
	result.Score = score

	return result
}

// IsCandidate reports whether a pair score meets the candidate threshold.
func (m *Matcher) IsCandidate(score int) bool {
	return score >= m.cfg.Threshold
}
