package assessment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// Assemble turns raw answers into one description per axis. It is pure:
// identical answers always give byte-identical text.
func Assemble(q *Questionnaire, answers domain.Answers) domain.AxisTexts {
	var out domain.AxisTexts
	for _, axis := range domain.Axes {
		var sentences []string
		for _, item := range q.ForAxis(axis) {
			answer, ok := answers[item.ID]
			if !ok || answer.IsZero() {
				continue
			}
			if s, ok := sentenceFor(item, answer); ok {
				sentences = append(sentences, s)
			}
		}
		out[axis] = strings.Join(sentences, ". ") + "."
	}
	return out
}

func sentenceFor(item Question, answer domain.AnswerValue) (string, bool) {
	switch item.Kind {
	case KindScale:
		if answer.Scale != nil {
			return optionAt(item.Options, *answer.Scale)
		}
		text := strings.TrimSpace(*answer.Text)
		for _, opt := range item.Options {
			if opt == text {
				return opt, true
			}
		}
		if v, err := strconv.Atoi(text); err == nil {
			return optionAt(item.Options, v)
		}
		return "", false
	case KindOpen:
		if answer.Text == nil {
			return "", false
		}
		text := strings.TrimRight(strings.TrimSpace(*answer.Text), ". ")
		if text == "" {
			return "", false
		}
		return strings.Replace(item.Template, AnswerPlaceholder, text, 1), true
	}
	return "", false
}

// optionAt maps a 1-based scale value onto options, clamping out-of-range
// values to the nearest end.
func optionAt(options []string, value int) (string, bool) {
	if len(options) == 0 {
		return "", false
	}
	switch {
	case value < 1:
		return options[0], true
	case value > len(options):
		return options[len(options)-1], true
	}
	return options[value-1], true
}

// ValidateAnswers rejects empty submissions and unknown question IDs.
func ValidateAnswers(q *Questionnaire, answers domain.Answers) error {
	if len(answers) == 0 {
		return fmt.Errorf("%w: no answers provided", domain.ErrInvalidAnswers)
	}
	for id := range answers {
		if _, ok := q.Lookup(id); !ok {
			return fmt.Errorf("%w: unknown question %q", domain.ErrInvalidAnswers, id)
		}
	}
	return nil
}
