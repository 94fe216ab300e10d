package phonetic

import "strings"

// ipaNoise lists symbols that carry no segmental information and are
// stripped before comparison: stress marks, length marks, ties, spaces
const ipaNoise = "ˈˌːˑ͡‿ \t\n()"

// Similarity scores how closely a spoken transcription matches a
// reference transcription. The result is always within [0, 1], where 1
// means the normalized transcriptions are identical.
func Similarity(reference, spoken string) float64 {
	ref := normalizeIPA(reference)
	spk := normalizeIPA(spoken)

	if ref == "" && spk == "" {
		return 1.0
	}
	if ref == "" || spk == "" {
		return 0.0
	}

	refRunes := []rune(ref)
	spkRunes := []rune(spk)

	maxLen := len(refRunes)
	if len(spkRunes) > maxLen {
		maxLen = len(spkRunes)
	}

	distance := levenshtein(refRunes, spkRunes)
	score := 1.0 - float64(distance)/float64(maxLen)

	if score < 0 {
		return 0.0
	}
	if score > 1 {
		return 1.0
	}
	return score
}

// normalizeIPA strips prosodic markers so only phoneme segments compare
func normalizeIPA(ipa string) string {
	var b strings.Builder
	for _, r := range ipa {
		if strings.ContainsRune(ipaNoise, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// levenshtein computes the edit distance between two rune slices
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

			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost

			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
