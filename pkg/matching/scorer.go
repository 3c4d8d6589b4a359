package matching

// Scorer provides the string comparison primitives used by the matcher
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// LevenshteinDistance calculates the edit distance between two strings:
// the minimum number of single-character insert/delete/substitute
// operations transforming one into the other. No case-folding or trimming
// is performed; callers normalize first.
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Full (len(a)+1) x (len(b)+1) dynamic programming table
	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
		table[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		table[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			table[i][j] = min(min(table[i][j-1]+1, table[i-1][j]+1), table[i-1][j-1]+cost)
		}
	}

	return table[len(a)][len(b)]
}

// NameSimilarity returns 1 - distance/max(len(a), len(b)) as a similarity
// ratio in [0, 1]. Identical strings (including two empty strings) are
// maximally similar; the zero-length case never reaches the division.
func (s *Scorer) NameSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(s.LevenshteinDistance(a, b))/float64(maxLen)
}
