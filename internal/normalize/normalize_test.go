package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple tags", "<b>Hi</b> <i>there</i>", "Hi there"},
		{"empty", "", ""},
		{"unterminated tag", "<b>unterminated", "unterminated"},
		{"dangling open bracket", "a < b", "a < b"},
		{"trailing open bracket", "text <", "text <"},
		{"surrounding whitespace", "  <p>What is 2 + 2?</p>\n", "What is 2 + 2?"},
		{"attributes", `<p class="qtext"><span style="color:red">Red</span></p>`, "Red"},
		{"nested open bracket", "<a<b>c", "c"},
		{"entities untouched", "<p>Tom &amp; Jerry</p>", "Tom &amp; Jerry"},
		{"script is just text", "<script>alert(1)</script>", "alert(1)"},
		{"no markup", "plain", "plain"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripHTML(tc.input))
		})
	}
}

func TestClassifyQuestionType(t *testing.T) {
	assert.Equal(t, "Multiple Choice", ClassifyQuestionType("multichoice"))
	assert.Equal(t, "True/False", ClassifyQuestionType("truefalse"))
	assert.Equal(t, "Short Answer", ClassifyQuestionType("shortanswer"))
	assert.Equal(t, "Numerical", ClassifyQuestionType("numerical"))
	assert.Equal(t, "Essay", ClassifyQuestionType("essay"))
	assert.Equal(t, "Matching", ClassifyQuestionType("match"))
	assert.Equal(t, "Cloze", ClassifyQuestionType("cloze"))

	t.Run("unmapped passes through", func(t *testing.T) {
		assert.Equal(t, "ddwtos", ClassifyQuestionType("ddwtos"))
		assert.Equal(t, "MultiChoice", ClassifyQuestionType("MultiChoice"))
	})

	t.Run("empty is unknown", func(t *testing.T) {
		assert.Equal(t, "Unknown", ClassifyQuestionType(""))
	})
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, 0.0, FormatScore(0, 100))
	assert.Equal(t, 100.0, FormatScore(100, 100))
	assert.Equal(t, 0.0, FormatScore(42, 0))
	assert.Equal(t, 0.0, FormatScore(42, -1))
	assert.Equal(t, 66.67, FormatScore(2, 3))
	assert.Equal(t, 33.33, FormatScore(1, 3))
	assert.Equal(t, 80.0, FormatScore(8, 10))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 77.5, Round2(77.5))
	assert.Equal(t, 1.24, Round2(1.2351))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, -1.24, Round2(-1.2351))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, ClampPercent(-5))
	assert.Equal(t, 100.0, ClampPercent(120))
	assert.Equal(t, 55.5, ClampPercent(55.5))
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", FullName("Ada", "Lovelace"))
	assert.Equal(t, "Ada", FullName("Ada", ""))
	assert.Equal(t, "Lovelace", FullName(" ", "Lovelace"))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 77.5, Mean([]float64{80, 75}))
}
