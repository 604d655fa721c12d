package model

type QuizQuestion struct {
	ID        string       `json:"id"`
	SubjectID string       `json:"subject_id"`
	Text      string       `json:"text"`
	Choices   []QuizChoice `json:"choices"`
}

type QuizChoice struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct,omitempty"`
}

type QuizResult struct {
	Score      int `json:"score"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// GradeQuiz counts questions whose chosen choice id is a correct choice of
// that question. answers maps question id to choice id.
func GradeQuiz(questions []QuizQuestion, answers map[string]string) QuizResult {
	res := QuizResult{Total: len(questions)}
	for _, q := range questions {
		chosen, ok := answers[q.ID]
		if !ok {
			continue
		}
		for _, c := range q.Choices {
			if c.ID == chosen && c.IsCorrect {
				res.Score++
				break
			}
		}
	}
	res.Percentage = CompletionPercent(res.Score, res.Total)
	return res
}

// HideAnswers clears the correctness flags before questions go to a taker.
func HideAnswers(questions []QuizQuestion) []QuizQuestion {
	out := make([]QuizQuestion, len(questions))
	for i, q := range questions {
		choices := make([]QuizChoice, len(q.Choices))
		for j, c := range q.Choices {
			c.IsCorrect = false
			choices[j] = c
		}
		q.Choices = choices
		out[i] = q
	}
	return out
}
