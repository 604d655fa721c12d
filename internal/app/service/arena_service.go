package service

import (
	"context"
	"fmt"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
	"codeapt/internal/platform/executor"
	"codeapt/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

// ArenaService runs free-form code with no grading.
type ArenaService struct {
	runner CodeRunner
}

func NewArenaService(runner CodeRunner) *ArenaService {
	return &ArenaService{runner: runner}
}

type RunCodeRequest struct {
	Code     string `json:"code" validate:"notblank"`
	Language string `json:"language" validate:"required"`
	Stdin    string `json:"stdin"`
}

type RunCodeResponse struct {
	Output string `json:"output"`
}

// Run returns stdout followed by stderr. Sandbox failures are reported in
// Output rather than as an error.
func (s *ArenaService) Run(ctx context.Context, req RunCodeRequest) (*RunCodeResponse, error) {
	rt, ok := model.RuntimeFor(req.Language)
	if !ok {
		return nil, fmt.Errorf("unsupported language %q: %w", req.Language, common.ErrValidation)
	}

	res, err := s.runner.Run(ctx, executor.RunRequest{Runtime: rt, Source: req.Code, Stdin: req.Stdin})
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"language": rt.Language}).WithError(err).Warn("arena run failed")
		return &RunCodeResponse{Output: "Error: Could not execute code."}, nil
	}
	return &RunCodeResponse{Output: res.Combined()}, nil
}
