// Package importer turns a tabular challenge schedule into questions.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"codeapt/internal/domain/model"

	"github.com/google/uuid"
)

// MaxTestCases is the number of inputN/outputN column pairs read per row.
const MaxTestCases = 5

// artifactToken is the carriage-return escape some spreadsheet exports leave in cells.
const artifactToken = "_x000D_"

// Row is one schedule line. Columns missing from the sheet read as "".
type Row struct {
	Line   int
	fields map[string]string
}

// Get returns the cleaned value of column, or "" when the column is absent.
func (r Row) Get(column string) string {
	return r.fields[column]
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, artifactToken, ""))
}

// ReadRows parses a CSV schedule with a header line. Header names are matched
// case-insensitively. Blank lines are skipped.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("schedule is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.ToLower(clean(strings.TrimPrefix(h, "\ufeff")))
	}
	if !contains(columns, "type") || !contains(columns, "title") {
		return nil, fmt.Errorf("header must include type and title columns")
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read schedule: %w", err)
		}
		line, _ := cr.FieldPos(0)
		row := Row{Line: line, fields: make(map[string]string, len(columns))}
		blank := true
		for i, col := range columns {
			if i < len(record) {
				v := clean(record[i])
				row.fields[col] = v
				if v != "" {
					blank = false
				}
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Question builds the question scheduled for release from row.
func (r Row) Question(release time.Time) (*model.ChallengeQuestion, error) {
	q := &model.ChallengeQuestion{
		ID:          uuid.NewString(),
		Type:        model.QuestionType(strings.ToUpper(r.Get("type"))),
		Title:       r.Get("title"),
		Description: r.Get("description"),
		ReleaseDate: release,
		OptionA:     r.Get("option_a"),
		OptionB:     r.Get("option_b"),
		OptionC:     r.Get("option_c"),
		OptionD:     r.Get("option_d"),
		StarterCode: r.Get("starter_code"),
	}

	if q.Type == model.QuestionMCQ {
		correct := r.Get("correct_option")
		if len(correct) > 10 {
			correct = correct[:10]
		}
		q.CorrectOption = model.NormalizeOption(correct)
	}

	if q.Type == model.QuestionCode {
		for i := 1; i <= MaxTestCases; i++ {
			in := r.Get("input" + strconv.Itoa(i))
			out := r.Get("output" + strconv.Itoa(i))
			if in == "" || out == "" {
				continue
			}
			q.TestCases = append(q.TestCases, model.TestCase{
				ID:             uuid.NewString(),
				Input:          in,
				ExpectedOutput: out,
				SortOrder:      i,
			})
		}
	}

	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("line %d: %w", r.Line, err)
	}
	return q, nil
}

// Schedule assigns consecutive release dates starting at start.
func Schedule(rows []Row, start time.Time) ([]*model.ChallengeQuestion, error) {
	questions := make([]*model.ChallengeQuestion, 0, len(rows))
	for i, row := range rows {
		q, err := row.Question(start.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}
