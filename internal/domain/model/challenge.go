package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type QuestionType string

const (
	QuestionMCQ  QuestionType = "MCQ"
	QuestionCode QuestionType = "CODE"

	// MCQAward is the score for a correct multiple-choice answer.
	MCQAward = 5

	// Column widths of challenge_questions.
	MaxTitleLen  = 255
	MaxOptionLen = 200
)

var validOptions = map[string]bool{"A": true, "B": true, "C": true, "D": true}

// NormalizeOption is the comparison form of an option letter: trimmed and
// upper-cased, so "b" and " B" both mean option B.
func NormalizeOption(letter string) string {
	return strings.ToUpper(strings.TrimSpace(letter))
}

func IsValidOption(letter string) bool {
	return validOptions[letter]
}

type ChallengeQuestion struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"question_type"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	ReleaseDate   time.Time    `json:"release_date"`
	OptionA       string       `json:"option_a,omitempty"`
	OptionB       string       `json:"option_b,omitempty"`
	OptionC       string       `json:"option_c,omitempty"`
	OptionD       string       `json:"option_d,omitempty"`
	CorrectOption string       `json:"correct_option,omitempty"`
	StarterCode   string       `json:"starter_code,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	TestCases     []TestCase   `json:"test_cases,omitempty"`
}

// TestCase is owned by one CODE question and deleted with it.
type TestCase struct {
	ID             string `json:"id"`
	QuestionID     string `json:"question_id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	SortOrder      int    `json:"sort_order"`
}

// Validate checks the type/correct-option pairing that the store also enforces.
func (q *ChallengeQuestion) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if n := utf8.RuneCountInString(q.Title); n > MaxTitleLen {
		return fmt.Errorf("title is %d characters, at most %d allowed", n, MaxTitleLen)
	}
	for _, opt := range []struct{ name, text string }{
		{"option_a", q.OptionA}, {"option_b", q.OptionB}, {"option_c", q.OptionC}, {"option_d", q.OptionD},
	} {
		if n := utf8.RuneCountInString(opt.text); n > MaxOptionLen {
			return fmt.Errorf("%s is %d characters, at most %d allowed", opt.name, n, MaxOptionLen)
		}
	}
	switch q.Type {
	case QuestionMCQ:
		if !IsValidOption(q.CorrectOption) {
			return fmt.Errorf("MCQ questions need a correct option in A-D, got %q", q.CorrectOption)
		}
	case QuestionCode:
		if q.CorrectOption != "" {
			return fmt.Errorf("CODE questions must not have a correct option")
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}

// Public strips the answer key and hidden test data.
func (q ChallengeQuestion) Public() ChallengeQuestion {
	q.CorrectOption = ""
	q.TestCases = nil
	return q
}

// ScoreMCQ returns MCQAward when the normalized option matches the correct
// option, else 0.
func ScoreMCQ(q *ChallengeQuestion, option string) int {
	option = NormalizeOption(option)
	if q.Type == QuestionMCQ && option != "" && option == q.CorrectOption {
		return MCQAward
	}
	return 0
}

// NormalizeOutput is the comparison form of program output.
func NormalizeOutput(s string) string {
	return strings.TrimSpace(s)
}

func OutputMatches(actual, expected string) bool {
	return NormalizeOutput(actual) == NormalizeOutput(expected)
}
