package rag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuizQuestion is one multiple-choice question recovered from model output.
// Answer is the index into Choices.
type QuizQuestion struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   int      `json:"answer"`
}

// MalformedQuizError reports model output that did not contain a usable quiz.
// Raw keeps the full output for diagnostics.
type MalformedQuizError struct {
	Reason string
	Raw    string
}

func (e *MalformedQuizError) Error() string {
	return "malformed quiz output: " + e.Reason
}

// ParseQuiz recovers the question array from raw model output. Models routinely
// wrap the JSON in prose despite being told not to, so the payload is taken as
// the span between the first '[' and the last ']'. Field-level validation is a
// separate step (ValidateQuestions); this only requires a parseable non-empty array.
func ParseQuiz(raw string) ([]QuizQuestion, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, &MalformedQuizError{Reason: "no JSON array found", Raw: raw}
	}

	var questions []QuizQuestion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &questions); err != nil {
		return nil, &MalformedQuizError{Reason: "invalid JSON: " + err.Error(), Raw: raw}
	}
	if len(questions) == 0 {
		return nil, &MalformedQuizError{Reason: "empty question array", Raw: raw}
	}
	return questions, nil
}

// ValidateQuestions enforces the quiz schema on parsed questions: non-empty
// question text, at least two choices, answer index in range.
func ValidateQuestions(raw string, questions []QuizQuestion) error {
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return &MalformedQuizError{
				Reason: fmt.Sprintf("question %d: %v", i, err),
				Raw:    raw,
			}
		}
	}
	return nil
}

func validateQuestion(q QuizQuestion) error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("empty question text")
	}
	if len(q.Choices) < 2 {
		return fmt.Errorf("need at least 2 choices, got %d", len(q.Choices))
	}
	if q.Answer < 0 || q.Answer >= len(q.Choices) {
		return fmt.Errorf("answer index %d out of range [0, %d)", q.Answer, len(q.Choices))
	}
	return nil
}
