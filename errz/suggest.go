package errz

import (
	"fmt"
	"sort"
	"strings"
)

// MaxSuggestions is the maximum number of names Suggest returns.
const MaxSuggestions = 3

// Suggest returns up to MaxSuggestions candidates within a small edit
// distance of target, closest first. Short names tolerate fewer edits.
func Suggest(target string, candidates []string) []string {
	if target == "" || len(candidates) == 0 {
		return nil
	}
	threshold := 3
	switch {
	case len(target) <= 3:
		threshold = 1
	case len(target) <= 5:
		threshold = 2
	}
	type match struct {
		name     string
		distance int
	}
	lower := strings.ToLower(target)
	var matches []match
	for _, c := range candidates {
		if c == "" || c == target {
			continue
		}
		if d := editDistance(lower, strings.ToLower(c)); d <= threshold {
			matches = append(matches, match{name: c, distance: d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].name < matches[j].name
	})
	if len(matches) > MaxSuggestions {
		matches = matches[:MaxSuggestions]
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.name
	}
	return names
}

// didYouMean formats suggestions as a hint, or returns "" when there are
// none.
func didYouMean(suggestions []string) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf(" (did you mean %q?)", suggestions[0])
	}
	quoted := make([]string, len(suggestions))
	for i, s := range suggestions {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf(" (did you mean one of %s?)", strings.Join(quoted, ", "))
}

// editDistance is the Levenshtein distance between a and b, computed with
// two rows.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}
