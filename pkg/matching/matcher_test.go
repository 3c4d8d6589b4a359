package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func strPtr(s string) *string { return &s }

func newTestMatcher() *Matcher {
	return NewMatcher(DefaultMatcherConfig())
}

func TestScore_SameEmailDifferentNames(t *testing.T) {
	m := newTestMatcher()

	a := &models.Customer{ID: "a", Email: "alice@example.com", FirstName: "Alice", LastName: "Smith"}
	b := &models.Customer{ID: "b", Email: "ALICE@example.com ", FirstName: "Allie", LastName: "Jones"}

	result := m.Score(a, b)

	assert.Equal(t, EmailMatchBonus, result.Score)
	assert.Contains(t, result.Reasons, ReasonSameEmail)
	assert.True(t, m.IsCandidate(result.Score))
}

func TestScore_SamePhoneSimilarNameCapsAtMax(t *testing.T) {
	m := newTestMatcher()

	a := &models.Customer{ID: "a", Email: "a@example.com", FirstName: "Jon", LastName: "Smithson", Phone: strPtr("(555) 123-4567 x1")}
	b := &models.Customer{ID: "b", Email: "b@example.com", FirstName: "John", LastName: "Smithson", Phone: strPtr("555-123-4567 1")}

	result := m.Score(a, b)

	// 80 for phone plus 40 for a similar name, capped at 100.
	assert.Equal(t, MaxScore, result.Score)
	assert.Contains(t, result.Reasons, ReasonSamePhone)
	assert.Contains(t, result.Reasons, ReasonSimilarName)
	assert.True(t, m.IsCandidate(result.Score))
}

func TestScore_SamePhoneAloneQualifies(t *testing.T) {
	m := newTestMatcher()

	a := &models.Customer{ID: "a", Email: "a@example.com", FirstName: "Alice", LastName: "Smith", Phone: strPtr("5551234567")}
	b := &models.Customer{ID: "b", Email: "b@example.com", FirstName: "Robert", LastName: "Jones", Phone: strPtr("555 123 4567")}

	result := m.Score(a, b)

	assert.Equal(t, PhoneMatchBonus, result.Score)
	assert.True(t, m.IsCandidate(result.Score))
}

func TestScore_SimilarNameAloneBelowThreshold(t *testing.T) {
	m := newTestMatcher()

	a := &models.Customer{ID: "a", Email: "a@example.com", FirstName: "Jon", LastName: "Smithson"}
	b := &models.Customer{ID: "b", Email: "b@example.com", FirstName: "John", LastName: "Smithson"}

	result := m.Score(a, b)

	assert.Equal(t, SimilarNameBonus, result.Score)
	assert.Contains(t, result.Reasons, ReasonSimilarName)
	assert.False(t, m.IsCandidate(result.Score))
}

func TestScore_ExactNameAloneBelowThreshold(t *testing.T) {
	m := newTestMatcher()

	a := &models.Customer{ID: "a", Email: "a@example.com", FirstName: "Maria", LastName: "Garcia"}
	b := &models.Customer{ID: "b", Email: "b@example.com", FirstName: "Maria", LastName: "Garcia"}

	result := m.Score(a, b)

	assert.Equal(t, ExactNameBonus, result.Score)
	assert.Contains(t, result.Reasons, ReasonSameName)
	assert.False(t, m.IsCandidate(result.Score))
}

func TestScore_NameBonusesMutuallyExclusive(t *testing.T) {
	m := newTestMatcher()

	a := &models.Customer{ID: "a", Email: "a@example.com", FirstName: "Maria", LastName: "Garcia"}
	b := &models.Customer{ID: "b", Email: "b@example.com", FirstName: "Maria", LastName: "Garcia"}

	result := m.Score(a, b)

	// An exact name never also earns the similar-name bonus.
	assert.NotContains(t, result.Reasons, ReasonSimilarName)
	assert.Equal(t, ExactNameBonus, result.Score)
}

func TestScore_ShortNamesGetNoExactBonus(t *testing.T) {
	m := newTestMatcher()

	a := &models.Customer{ID: "a", Email: "a@example.com", FirstName: "Bo", LastName: ""}
	b := &models.Customer{ID: "b", Email: "b@example.com", FirstName: "Bo", LastName: ""}

	result := m.Score(a, b)

	assert.NotContains(t, result.Reasons, ReasonSameName)
}

func TestScore_ShortPhonesIgnored(t *testing.T) {
	m := newTestMatcher()

	a := &models.Customer{ID: "a", Email: "a@example.com", FirstName: "Alice", LastName: "Smith", Phone: strPtr("12345")}
	b := &models.Customer{ID: "b", Email: "b@example.com", FirstName: "Robert", LastName: "Jones", Phone: strPtr("12345")}

	result := m.Score(a, b)

	assert.NotContains(t, result.Reasons, ReasonSamePhone)
}

func TestScore_MissingFieldsScoreZero(t *testing.T) {
	m := newTestMatcher()

	a := &models.Customer{ID: "a"}
	b := &models.Customer{ID: "b"}

	result := m.Score(a, b)

	assert.Equal(t, 0, result.Score)
	assert.Empty(t, result.Reasons)
	assert.False(t, m.IsCandidate(result.Score))
}

func TestScore_Symmetric(t *testing.T) {
	m := newTestMatcher()

	a := &models.Customer{ID: "a", Email: "alice@example.com", FirstName: "Alice", LastName: "Smith", Phone: strPtr("5551234567")}
	b := &models.Customer{ID: "b", Email: "alice@example.com", FirstName: "Allie", LastName: "Smith", Phone: strPtr("555-123-4567")}

	ab := m.Score(a, b)
	ba := m.Score(b, a)

	assert.Equal(t, ab.Score, ba.Score)
	assert.ElementsMatch(t, ab.Reasons, ba.Reasons)
}

func TestScore_ConfigurableThreshold(t *testing.T) {
	cfg := DefaultMatcherConfig()
	cfg.Threshold = 40
	m := NewMatcher(cfg)

	a := &models.Customer{ID: "a", Email: "a@example.com", FirstName: "Jon", LastName: "Smithson"}
	b := &models.Customer{ID: "b", Email: "b@example.com", FirstName: "John", LastName: "Smithson"}

	result := m.Score(a, b)

	assert.True(t, m.IsCandidate(result.Score))
}
