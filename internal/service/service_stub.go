//go:build !windows

// Package service is a pass-through on platforms without an SCM; the
// collector runs in the foreground under systemd, cron or a terminal.
package service

import (
	"context"

	"go.uber.org/zap"
)

// CollectorService runs the job directly.
type CollectorService struct {
	logger *zap.Logger
	run    func(ctx context.Context) error
}

// New wraps run.
func New(logger *zap.Logger, run func(ctx context.Context) error) *CollectorService {
	return &CollectorService{
		logger: logger,
		run:    run,
	}
}

// IsWindowsService always returns false off Windows.
func IsWindowsService() bool {
	return false
}

// Run executes the job with a background context.
func (s *CollectorService) Run() error {
	return s.run(context.Background())
}
