package ir

import "github.com/agnivade/levenshtein"

// maxSuggestionDistance bounds how far a name may be from a candidate for
// the candidate to be offered as a "did you mean" suggestion.
const maxSuggestionDistance = 3

// closestName returns the candidate closest to name, or an empty string when
// nothing is close enough.
func closestName(name string, candidates []string) string {
	closestDist, closest := -1, ""
	for _, candidate := range candidates {
		distance := levenshtein.ComputeDistance(name, candidate)
		if distance <= maxSuggestionDistance && (closestDist < 0 || distance < closestDist) {
			closestDist = distance
			closest = candidate
		}
	}
	return closest
}
