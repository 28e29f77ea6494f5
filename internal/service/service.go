//go:build windows

// Package service lets the scheduled collector run under the Windows
// Service Control Manager. From a terminal it runs in the foreground.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
)

// Name is the service name registered with the SCM.
const Name = "HostNetCollector"

// stopGrace bounds how long Stop waits for the running job to close its
// controller session.
const stopGrace = 15 * time.Second

// CollectorService implements svc.Handler.
type CollectorService struct {
	logger *zap.Logger
	run    func(ctx context.Context) error
	err    error
}

// New wraps run. run receives a context cancelled on Stop or Shutdown.
func New(logger *zap.Logger, run func(ctx context.Context) error) *CollectorService {
	return &CollectorService{
		logger: logger,
		run:    run,
	}
}

// IsWindowsService reports whether the process was started by the SCM.
func IsWindowsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// Run enters the SCM control loop and returns the job's error.
func (s *CollectorService) Run() error {
	if err := svc.Run(Name, s); err != nil {
		return err
	}
	return s.err
}

// Execute implements svc.Handler.
func (s *CollectorService) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, errno uint32) {
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.run(ctx) }()

	changes <- svc.Status{
		State:   svc.Running,
		Accepts: svc.AcceptStop | svc.AcceptShutdown,
	}
	s.logger.Info("Windows service started", zap.String("service", Name))

	for {
		select {
		case err := <-done:
			s.err = err
			if err != nil {
				s.logger.Error("Collector exited", zap.Error(err))
				return true, 1
			}
			return false, 0
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				s.logger.Info("Windows service stopping")
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				select {
				case s.err = <-done:
				case <-time.After(stopGrace):
					s.logger.Warn("Collector did not stop in time", zap.Duration("grace", stopGrace))
				}
				return false, 0
			default:
				s.logger.Warn("Unexpected service control request",
					zap.Uint32("cmd", uint32(c.Cmd)))
			}
		}
	}
}
