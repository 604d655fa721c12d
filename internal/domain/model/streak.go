package model

import "time"

// UserStreakRecord holds a user's running challenge totals. It is mutated only
// through Advance.
type UserStreakRecord struct {
	ID             int64      `json:"-"`
	UserID         string     `json:"user_id"`
	CurrentStreak  int        `json:"current_streak"`
	MaxStreak      int        `json:"max_streak"`
	TotalScore     int        `json:"total_score"`
	LastSolvedDate *time.Time `json:"last_solved_date"`
}

// Advance applies one accepted submission recorded on the calendar day today.
// today must be a date at midnight UTC (see common.DateOf).
func (r *UserStreakRecord) Advance(today time.Time, score int) {
	r.TotalScore += score

	switch {
	case r.LastSolvedDate != nil && sameDay(*r.LastSolvedDate, today.AddDate(0, 0, -1)):
		r.CurrentStreak++
	case r.LastSolvedDate != nil && sameDay(*r.LastSolvedDate, today):
		// already counted today
	default:
		r.CurrentStreak = 1
	}

	if r.CurrentStreak > r.MaxStreak {
		r.MaxStreak = r.CurrentStreak
	}
	d := today
	r.LastSolvedDate = &d
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// LedgerEntry is a user's first, authoritative scored submission for a question.
type LedgerEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	QuestionID  string    `json:"question_id"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// LedgerResult is what recording a submission reports back.
type LedgerResult struct {
	Accepted bool             `json:"accepted"`
	Streak   UserStreakRecord `json:"streak"`
}
