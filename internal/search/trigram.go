package search

import (
	"regexp"
	"slices"
	"strings"
)

var nonWord = regexp.MustCompile(`\W+`)

// TrigramSorensenDiceSimilarity compares the unique trigrams of a and b, ignoring case
// and word order. The result lies in [0, 1]; it is 0 when either side has no trigrams.
func TrigramSorensenDiceSimilarity(a, b string) float64 {
	aTrigrams := TransformToUniqueTrigrams(a)
	bTrigrams := TransformToUniqueTrigrams(b)

	aCount, bCount := len(aTrigrams), len(bTrigrams)
	if aCount == 0 || bCount == 0 {
		return 0
	}

	aTrigramsByTrigram := make(map[string]struct{}, aCount)
	for _, v := range aTrigrams {
		aTrigramsByTrigram[v] = struct{}{}
	}

	var intersectionCount int
	for _, bT := range bTrigrams {
		if _, ok := aTrigramsByTrigram[bT]; !ok {
			continue
		}
		intersectionCount++
	}

	// Sorensen-Dice coefficient
	//   SDC = 2 * |A ∩ B| / (|A| + |B|)
	return 2 * float64(intersectionCount) / float64(aCount+bCount)
}

// TransformToUniqueTrigrams splits a into words and returns the sorted set of their
// lower-cased trigrams. Every word is padded with two leading blanks and one trailing blank.
func TransformToUniqueTrigrams(a string) []string {
	if len(a) == 0 {
		return []string{}
	}

	words := nonWord.Split(a, -1)

	var trigramCount int
	for _, word := range words {
		// one padded trigram plus one per shift
		trigramCount += 1 + len(word)
	}

	uniqueTrigrams := make(map[string]struct{}, trigramCount)

	for _, word := range words {
		if len(word) == 0 {
			continue
		}

		word = strings.ToLower(word)
		padded := "  " + word + " "

		for i := 0; i < 1+len(word); i++ {
			uniqueTrigrams[padded[:3]] = struct{}{}
			padded = padded[1:]
		}
	}

	trigrams := make([]string, 0, len(uniqueTrigrams))
	for t := range uniqueTrigrams {
		trigrams = append(trigrams, t)
	}

	slices.Sort(trigrams)

	return trigrams
}
