// Package normalize contains the pure reshaping helpers shared by the LMS adapters.
package normalize

import (
	"math"
	"strings"
)

// StripHTML removes every <tag> from text and trims the surrounding whitespace.
//
// A '<' without a closing '>' is not a tag: the rest of the text is kept as is.
// Entities such as &amp; are not decoded.
func StripHTML(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		if text[i] != '<' {
			next := strings.IndexByte(text[i:], '<')
			if next < 0 {
				b.WriteString(text[i:])
				break
			}

			b.WriteString(text[i : i+next])
			i += next
			continue
		}

		end := strings.IndexByte(text[i+1:], '>')
		if end < 0 {
			b.WriteString(text[i:])
			break
		}

		i += end + 2
	}

	return strings.TrimSpace(b.String())
}

// questionTypeLabels maps the Moodle question type to its display label.
var questionTypeLabels = map[string]string{
	"multichoice": "Multiple Choice",
	"truefalse":   "True/False",
	"shortanswer": "Short Answer",
	"numerical":   "Numerical",
	"essay":       "Essay",
	"match":       "Matching",
	"cloze":       "Cloze",
}

// ClassifyQuestionType returns the display label of a raw question type.
//
// Unknown types are returned unchanged and an empty type becomes "Unknown".
func ClassifyQuestionType(rawType string) string {
	if rawType == "" {
		return "Unknown"
	}

	if label, ok := questionTypeLabels[rawType]; ok {
		return label
	}

	return rawType
}

// Round2 rounds x to 2 decimal places, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// FormatScore returns achieved as a percentage of maximum, rounded to 2 decimal places.
//
// It returns 0 when maximum is not positive.
func FormatScore(achieved, maximum float64) float64 {
	if maximum <= 0 {
		return 0
	}

	return Round2(achieved / maximum * 100)
}

// ClampPercent clamps x into [0, 100].
func ClampPercent(x float64) float64 {
	return math.Min(100, math.Max(0, x))
}

// FullName joins the first and last name of a user.
func FullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// Mean returns the arithmetic mean of values, or 0 when there are none.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
