package service

import (
	"context"
	"fmt"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
	"codeapt/internal/platform/executor"
	"codeapt/internal/platform/logger"
	"codeapt/internal/platform/metrics"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CodeRunner executes one program in the remote sandbox.
type CodeRunner interface {
	Run(ctx context.Context, req executor.RunRequest) (*executor.RunResult, error)
}

// CaseResult is the outcome of one test case.
type CaseResult struct {
	Index  int    `json:"index"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

// Verdict aggregates per-case results. Score is the number of passed cases.
type Verdict struct {
	Results []CaseResult `json:"results"`
	Score   int          `json:"score"`
	Total   int          `json:"total"`
}

type JudgeService struct {
	runner      CodeRunner
	concurrency int
}

// NewJudgeService runs at most concurrency test cases at once.
func NewJudgeService(runner CodeRunner, concurrency int) *JudgeService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &JudgeService{runner: runner, concurrency: concurrency}
}

// Evaluate runs source once per test case and compares trimmed stdout with
// the trimmed expected output. A failed run fails only its own case.
func (s *JudgeService) Evaluate(ctx context.Context, source, language string, cases []model.TestCase) (*Verdict, error) {
	rt, ok := model.RuntimeFor(language)
	if !ok {
		return nil, fmt.Errorf("unsupported language %q: %w", language, common.ErrValidation)
	}

	results := make([]CaseResult, len(cases))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, tc := range cases {
		g.Go(func() error {
			results[i] = s.runCase(ctx, rt, source, i, tc)
			return nil
		})
	}
	_ = g.Wait()

	v := &Verdict{Results: results, Total: len(cases)}
	for _, r := range results {
		if r.Passed {
			v.Score++
		}
	}
	return v, nil
}

func (s *JudgeService) runCase(ctx context.Context, rt model.Runtime, source string, i int, tc model.TestCase) CaseResult {
	res := CaseResult{Index: i}
	out, err := s.runner.Run(ctx, executor.RunRequest{Runtime: rt, Source: source, Stdin: tc.Input})
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"test_case_id": tc.ID, "language": rt.Language}).
			WithError(err).Warn("test case run failed")
		metrics.JudgeTestCases.WithLabelValues("error").Inc()
		res.Error = "execution failed"
		return res
	}
	res.Passed = model.OutputMatches(out.Stdout, tc.ExpectedOutput)
	if res.Passed {
		metrics.JudgeTestCases.WithLabelValues("pass").Inc()
	} else {
		metrics.JudgeTestCases.WithLabelValues("fail").Inc()
	}
	return res
}
