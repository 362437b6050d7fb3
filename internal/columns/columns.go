// Package columns extracts named fields from fixed-width dump lines.
package columns

import "strings"

// SplitByPosition walks pattern and subject in lockstep by column and collects
// the subject characters whose pattern column carries a marker named in names.
// A run of equal marker characters denotes one field spanning those columns;
// the runs do not need to be contiguous. Subjects shorter than the pattern are
// safe: absent columns contribute nothing, so unreachable fields come back as
// empty strings. No field-level validation happens here.
func SplitByPosition(subject, pattern string, names map[rune]string, trim bool) map[string]string {
	subj := []rune(subject)
	acc := make(map[rune][]rune)

	for i, marker := range []rune(pattern) {
		if i < len(subj) {
			acc[marker] = append(acc[marker], subj[i])
		}
	}

	result := make(map[string]string, len(names))
	for marker, name := range names {
		value := string(acc[marker])
		if trim {
			value = strings.TrimSpace(value)
		}
		result[name] = value
	}

	return result
}
