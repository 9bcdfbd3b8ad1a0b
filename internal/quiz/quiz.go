package quiz

import "fmt"

// QuestionsPerQuiz is the fixed size of every generated question set.
const QuestionsPerQuiz = 10

// OptionLabels are the fixed choice labels every question uses, in order.
var OptionLabels = [4]string{"A", "B", "C", "D"}

// Option is one labeled answer choice.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is a single multiple-choice question. Immutable once generated.
type Question struct {
	Text         string   `json:"question"`
	Options      []Option `json:"options"`
	CorrectLabel string   `json:"correct"`
}

// Theme identifies one of the fixed quiz themes.
type Theme string

const (
	ThemeUmum    Theme = "umum"
	ThemeSains   Theme = "sains"
	ThemeSejarah Theme = "sejarah"
	ThemeFilm    Theme = "film"
)

var themeLabels = map[Theme]string{
	ThemeUmum:    "Pengetahuan Umum",
	ThemeSains:   "Sains & Teknologi",
	ThemeSejarah: "Sejarah",
	ThemeFilm:    "Film & Hiburan",
}

// Valid reports whether t is one of the known theme identifiers.
func (t Theme) Valid() bool {
	_, ok := themeLabels[t]
	return ok
}

// Label returns the display label for the theme, or the raw identifier
// if the theme is unknown.
func (t Theme) Label() string {
	if label, ok := themeLabels[t]; ok {
		return label
	}
	return string(t)
}

// ValidateSet checks that a generated question set is well formed: exactly
// QuestionsPerQuiz questions, each with the four fixed option labels in order
// and a correct label that is one of them.
func ValidateSet(questions []Question) error {
	if len(questions) != QuestionsPerQuiz {
		return fmt.Errorf("expected %d questions, got %d", QuestionsPerQuiz, len(questions))
	}
	for i, q := range questions {
		if q.Text == "" {
			return fmt.Errorf("question %d has empty text", i+1)
		}
		if len(q.Options) != len(OptionLabels) {
			return fmt.Errorf("question %d has %d options, expected %d", i+1, len(q.Options), len(OptionLabels))
		}
		correctSeen := false
		for j, opt := range q.Options {
			if opt.Label != OptionLabels[j] {
				return fmt.Errorf("question %d option %d has label %q, expected %q", i+1, j+1, opt.Label, OptionLabels[j])
			}
			if opt.Text == "" {
				return fmt.Errorf("question %d option %s has empty text", i+1, opt.Label)
			}
			if opt.Label == q.CorrectLabel {
				correctSeen = true
			}
		}
		if !correctSeen {
			return fmt.Errorf("question %d correct label %q is not one of its options", i+1, q.CorrectLabel)
		}
	}
	return nil
}
