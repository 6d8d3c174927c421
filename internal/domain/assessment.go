package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// QuestionID identifies a questionnaire item.
type QuestionID string

// AnswerValue is either a closed-scale integer or free text.
type AnswerValue struct {
	Scale *int
	Text  *string
}

func ScaleAnswer(v int) AnswerValue {
	return AnswerValue{Scale: &v}
}

func TextAnswer(s string) AnswerValue {
	return AnswerValue{Text: &s}
}

func (v AnswerValue) IsZero() bool {
	return v.Scale == nil && v.Text == nil
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Scale != nil:
		return json.Marshal(*v.Scale)
	case v.Text != nil:
		return json.Marshal(*v.Text)
	}
	return []byte("null"), nil
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = AnswerValue{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextAnswer(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("answer must be a number or a string: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("answer must be finite")
	}
	*v = ScaleAnswer(int(math.Round(max(-maxScaleMagnitude, min(f, maxScaleMagnitude)))))
	return nil
}

// maxScaleMagnitude bounds numeric answers before integer conversion.
const maxScaleMagnitude = 1e6

// Answers is the raw answer set keyed by question.
type Answers map[QuestionID]AnswerValue

// AssessmentAnswers is the stored submission a profile was assembled from.
type AssessmentAnswers struct {
	UserID      string    `json:"user_id"`
	Answers     Answers   `json:"answers"`
	Version     float64   `json:"version"`
	SubmittedAt time.Time `json:"submitted_at"`
}
