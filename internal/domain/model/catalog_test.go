package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSubject_Pricing(t *testing.T) {
	paid := Subject{Price: decimal.RequireFromString("499.99")}
	assert.False(t, paid.IsFree())
	assert.Equal(t, int64(49999), paid.AmountMinor())

	discounted := Subject{
		Price:         decimal.RequireFromString("999.00"),
		DiscountPrice: decimal.NewNullDecimal(decimal.RequireFromString("199.50")),
	}
	assert.Equal(t, "199.5", discounted.EffectivePrice().String())
	assert.Equal(t, int64(19950), discounted.AmountMinor())

	free := Subject{Price: decimal.Zero}
	assert.True(t, free.IsFree())

	freeByDiscount := Subject{Price: decimal.NewFromInt(100), DiscountPrice: decimal.NewNullDecimal(decimal.Zero)}
	assert.True(t, freeByDiscount.IsFree())
}

func TestExtractVideoID(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":          "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?t=42":                    "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":            "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?list=PL1&v=dQw4w9WgXcQ": "dQw4w9WgXcQ",
		"  dQw4w9WgXcQ ":                                       "dQw4w9WgXcQ",
		"":                                                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractVideoID(in), in)
	}
}

func TestGradeQuiz(t *testing.T) {
	questions := []QuizQuestion{
		{ID: "q1", Choices: []QuizChoice{{ID: "c1", IsCorrect: true}, {ID: "c2"}}},
		{ID: "q2", Choices: []QuizChoice{{ID: "c3"}, {ID: "c4", IsCorrect: true}}},
		{ID: "q3", Choices: []QuizChoice{{ID: "c5", IsCorrect: true}}},
	}

	res := GradeQuiz(questions, map[string]string{"q1": "c1", "q2": "c3", "q3": "c1"})
	assert.Equal(t, QuizResult{Score: 1, Total: 3, Percentage: 33}, res)

	assert.Equal(t, QuizResult{}, GradeQuiz(nil, map[string]string{"q1": "c1"}))

	hidden := HideAnswers(questions)
	for _, q := range hidden {
		for _, c := range q.Choices {
			assert.False(t, c.IsCorrect)
		}
	}
	assert.True(t, questions[0].Choices[0].IsCorrect, "original slice must be untouched")
}
