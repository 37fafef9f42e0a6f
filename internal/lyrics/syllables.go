package lyrics

import "strings"

const vowels = "aeiouy"

// CountSyllables estimates the syllable count of a phrase by summing the
// per-word estimates. Every word contributes at least one syllable.
func CountSyllables(text string) int {
	total := 0
	for _, word := range Words(text) {
		total += countWordSyllables(word)
	}
	return total
}

// countWordSyllables counts vowel groups in one word, discounting a trailing
// silent 'e' and crediting consonant+"le" endings ("ta-ble").
func countWordSyllables(word string) int {
	word = strings.ReplaceAll(word, "'", "")
	if word == "" {
		return 0
	}

	count := 0
	previousWasVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune(vowels, r)
		if isVowel && !previousWasVowel {
			count++
		}
		previousWasVowel = isVowel
	}

	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if len(word) >= 3 && strings.HasSuffix(word, "le") &&
		!strings.ContainsRune(vowels, rune(word[len(word)-3])) {
		count++
	}

	if count < 1 {
		count = 1
	}
	return count
}
