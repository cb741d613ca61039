// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

package catalog

import "strings"

// FuzzyScore rates the similarity of two strings on a 0-100 scale.
// Exact matches (case-insensitive) score 100; substring containment
// scores by length ratio; otherwise the score is the normalized
// Levenshtein similarity. Both inputs are compared case-insensitively.
func FuzzyScore(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	// Containment: "wonderwall" vs "wonderwall - remastered" should score
	// by how much of the longer string the shorter one covers.
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		return 100 * len(shorter) / len(longer)
	}

	dist := levenshtein(a, b)
	maxLen := len(longer)
	score := 100 * (maxLen - dist) / maxLen
	if score < 0 {
		score = 0
	}
	return score
}

// levenshtein computes edit distance with a two-row dynamic program.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost

			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
