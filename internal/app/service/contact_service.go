package service

import (
	"context"

	"codeapt/internal/platform/logger"

	"github.com/sirupsen/logrus"
)

type ContactService struct{}

func NewContactService() *ContactService {
	return &ContactService{}
}

type ContactRequest struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"notblank,max=200"`
	Message string `json:"message" validate:"notblank"`
}

type ContactResponse struct {
	Message string `json:"message"`
}

// Submit records a contact message in the log.
func (s *ContactService) Submit(ctx context.Context, req ContactRequest) *ContactResponse {
	logger.Log.WithContext(ctx).WithFields(logrus.Fields{
		"name":    req.Name,
		"email":   req.Email,
		"subject": req.Subject,
	}).Info("contact message received: " + req.Message)
	return &ContactResponse{Message: "Thanks for reaching out, " + req.Name + ". We will get back to you soon."}
}
