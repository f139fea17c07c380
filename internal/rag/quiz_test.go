package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuizStripsSurroundingProse(t *testing.T) {
	raw := "Here is your quiz:\n[{\"q\":\"a\"}]\nEnjoy!"

	questions, err := ParseQuiz(raw)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestParseQuizFullSchema(t *testing.T) {
	raw := "Sure! " + `[
		{"question": "What is Go?", "choices": ["A language", "A board game", "A fish", "A planet"], "answer": 0},
		{"question": "Who made it?", "choices": ["Google", "Microsoft"], "answer": 0}
	]` + " Hope that helps."

	questions, err := ParseQuiz(raw)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "What is Go?", questions[0].Question)
	assert.Len(t, questions[0].Choices, 4)
	assert.Equal(t, 0, questions[0].Answer)
	assert.NoError(t, ValidateQuestions(raw, questions))
}

func TestParseQuizNoBrackets(t *testing.T) {
	_, err := ParseQuiz("I could not generate a quiz, sorry.")

	var malformed *MalformedQuizError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "I could not generate a quiz, sorry.", malformed.Raw)
}

func TestParseQuizInvalidJSON(t *testing.T) {
	_, err := ParseQuiz("quiz: [{broken json]")

	var malformed *MalformedQuizError
	require.ErrorAs(t, err, &malformed)
}

func TestParseQuizReversedBrackets(t *testing.T) {
	_, err := ParseQuiz("] nothing here [")

	var malformed *MalformedQuizError
	require.ErrorAs(t, err, &malformed)
}

func TestParseQuizEmptyArray(t *testing.T) {
	_, err := ParseQuiz("here you go: []")

	var malformed *MalformedQuizError
	require.ErrorAs(t, err, &malformed)
}

func TestValidateQuestions(t *testing.T) {
	cases := []struct {
		name string
		q    QuizQuestion
		ok   bool
	}{
		{"valid", QuizQuestion{Question: "Q?", Choices: []string{"a", "b", "c"}, Answer: 2}, true},
		{"empty question", QuizQuestion{Question: "  ", Choices: []string{"a", "b"}, Answer: 0}, false},
		{"one choice", QuizQuestion{Question: "Q?", Choices: []string{"a"}, Answer: 0}, false},
		{"answer out of range", QuizQuestion{Question: "Q?", Choices: []string{"a", "b"}, Answer: 2}, false},
		{"negative answer", QuizQuestion{Question: "Q?", Choices: []string{"a", "b"}, Answer: -1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQuestions("raw", []QuizQuestion{tc.q})
			if tc.ok {
				assert.NoError(t, err)
			} else {
				var malformed *MalformedQuizError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, "raw", malformed.Raw)
			}
		})
	}
}
