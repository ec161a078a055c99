package truncate

import "strings"

func (t *Truncator) truncateEnd(text string, maxTokens int) string {
	targetTokens := maxTokens - t.counter.Count(t.suffix)
	if targetTokens <= 0 {
		return t.suffix
	}

	// Binary search for the longest prefix that fits.
	runes := []rune(text)
	low, high := 0, len(runes)
	for low < high {
		mid := (low + high + 1) / 2
		if t.counter.FitsInLimit(string(runes[:mid]), targetTokens) {
			low = mid
		} else {
			high = mid - 1
		}
	}
	if low == 0 {
		return t.suffix
	}
	return string(runes[:low]) + t.suffix
}

func (t *Truncator) truncateMiddle(text string, maxTokens int) string {
	targetTokens := maxTokens - t.counter.Count(t.suffix)
	if targetTokens <= 0 {
		return t.suffix
	}

	halfTokens := targetTokens / 2
	runes := []rune(text)

	startRunes := t.fitFromStart(runes, halfTokens)
	endStart := len(runes) - startRunes
	if endStart < startRunes {
		endStart = startRunes
	}

	var sb strings.Builder
	sb.WriteString(string(runes[:startRunes]))
	sb.WriteString(t.suffix)
	if endStart < len(runes) {
		sb.WriteString(string(runes[endStart:]))
	}
	return sb.String()
}

func (t *Truncator) truncateStart(text string, maxTokens int) string {
	targetTokens := maxTokens - t.counter.Count(t.suffix)
	if targetTokens <= 0 {
		return t.suffix
	}

	// Binary search for the longest suffix that fits.
	runes := []rune(text)
	low, high := 0, len(runes)
	for low < high {
		mid := (low + high) / 2
		if t.counter.FitsInLimit(string(runes[mid:]), targetTokens) {
			high = mid
		} else {
			low = mid + 1
		}
	}
	if low >= len(runes) {
		return t.suffix
	}
	return t.suffix + string(runes[low:])
}

// fitFromStart returns how many leading runes fit in maxTokens.
func (t *Truncator) fitFromStart(runes []rune, maxTokens int) int {
	low, high := 0, len(runes)
	for low < high {
		mid := (low + high + 1) / 2
		if t.counter.FitsInLimit(string(runes[:mid]), maxTokens) {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return low
}
