package matching

import (
	"math"
	"strings"
	"time"
)

// WeightedScore is one entry in a scoring pool.
type WeightedScore struct {
	Score  float64
	Weight float64
}

// StringSimilarity returns an edit-distance based similarity in [0,1].
// Empty input scores 0; case/whitespace-normalized equality scores 1.
func StringSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	na := whitespaceRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(a)), " ")
	nb := whitespaceRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(b)), " ")
	if na == nb {
		return 1
	}
	ra, rb := []rune(na), []rune(nb)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// ExactMatch returns 1 iff both values are non-empty and equal. Callers
// pass already-normalized forms.
func ExactMatch(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return 0
}

// NameSimilarity compares two names word-wise: every word is matched to
// its best counterpart in the other name, the per-word maxima are
// averaged in both directions, and a penalty of 0.1 per word-count
// difference is subtracted. The two-way average keeps the score
// symmetric.
func NameSimilarity(name1, name2 string) float64 {
	words1 := strings.Fields(NormalizeName(name1))
	words2 := strings.Fields(NormalizeName(name2))
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}

	sim := (directionalWordSimilarity(words1, words2) + directionalWordSimilarity(words2, words1)) / 2
	penalty := 0.1 * math.Abs(float64(len(words1)-len(words2)))

	sim -= penalty
	if sim < 0 {
		return 0
	}
	return sim
}

func directionalWordSimilarity(from, to []string) float64 {
	var total float64
	for _, w := range from {
		best := 0.0
		for _, o := range to {
			if s := StringSimilarity(w, o); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(from))
}

// IndianNameSimilarity decomposes each name positionally into first,
// middle and last components and blends component similarities. Middle
// names are common but unreliable, so they carry less weight.
func IndianNameSimilarity(name1, name2 string) float64 {
	f1, m1, l1 := splitNameParts(name1)
	f2, m2, l2 := splitNameParts(name2)
	if f1 == "" || f2 == "" {
		return 0
	}

	firstSim := StringSimilarity(f1, f2)
	lastSim := StringSimilarity(l1, l2)

	if m1 != "" && m2 != "" {
		return 0.4*firstSim + 0.2*StringSimilarity(m1, m2) + 0.4*lastSim
	}
	return 0.5*firstSim + 0.5*lastSim
}

// splitNameParts maps tokens to (first, middle, last) by position:
// one token is a bare first name, two are first+last, three or more
// join the interior tokens into the middle component.
func splitNameParts(name string) (first, middle, last string) {
	tokens := strings.Fields(NormalizeName(name))
	switch len(tokens) {
	case 0:
		return "", "", ""
	case 1:
		return tokens[0], "", ""
	case 2:
		return tokens[0], "", tokens[1]
	default:
		return tokens[0], strings.Join(tokens[1:len(tokens)-1], " "), tokens[len(tokens)-1]
	}
}

// DateSimilarity scores two dates by proximity: identical instants are
// 1, then the score decays by absolute day difference.
func DateSimilarity(d1, d2 time.Time) float64 {
	if d1.Equal(d2) {
		return 1
	}
	days := math.Abs(d1.Sub(d2).Hours()) / 24
	switch {
	case days <= 1:
		return 0.9
	case days <= 7:
		return 0.7
	case days <= 30:
		return 0.5
	case days <= 365:
		return 0.3
	default:
		return 0
	}
}

// AddressSimilarity blends token overlap with whole-string similarity.
// Single-character tokens (house number separators and the like) are
// dropped before comparing.
func AddressSimilarity(a1, a2 string) float64 {
	n1 := normalizeAddressText(a1)
	n2 := normalizeAddressText(a2)

	t1 := addressTokens(n1)
	t2 := addressTokens(n2)
	if len(t1) == 0 || len(t2) == 0 {
		return 0
	}

	common := 0
	for tok := range t1 {
		if _, ok := t2[tok]; ok {
			common++
		}
	}
	overlapRatio := 2 * float64(common) / float64(len(t1)+len(t2))

	return 0.6*overlapRatio + 0.4*StringSimilarity(n1, n2)
}

func addressTokens(normalized string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		if len(tok) < 2 {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// WeightedAggregate computes the weighted average of a scoring pool.
// An empty pool or an all-zero weight sum aggregates to 0.
func WeightedAggregate(scores []WeightedScore) float64 {
	var sum, weightSum float64
	for _, ws := range scores {
		sum += ws.Score * ws.Weight
		weightSum += ws.Weight
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// levenshtein computes the edit distance between two rune slices with
// the classic two-row dynamic program.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
