// Package vsphere adapts a vCenter (or standalone ESXi) endpoint to the
// pipeline's interfaces: inventory.Source, the counter list, and the batched
// performance query service.
package vsphere

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/performance"
	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/soap"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/hostnet/internal/config"
)

// Session is an authenticated controller session. Close must be called on
// every exit path; it is safe to call more than once.
type Session struct {
	vim    *vim25.Client
	pc     *property.Collector
	perf   *performance.Manager
	logger *zap.Logger

	closeOnce sync.Once
	logout    func(context.Context) error
}

// Connect logs in to the controller described by cfg using secret as the
// password.
func Connect(ctx context.Context, cfg config.ControllerConfig, secret string, logger *zap.Logger) (*Session, error) {
	u, err := sdkURL(cfg)
	if err != nil {
		return nil, err
	}
	u.User = url.UserPassword(cfg.Username, secret)

	c, err := govmomi.NewClient(ctx, u, cfg.InsecureSkipVerify)
	if err != nil {
		return nil, fmt.Errorf("login to %s: %w", u.Host, err)
	}

	logger.Info("Connected to controller",
		zap.String("host", u.Host),
		zap.String("user", cfg.Username),
		zap.Bool("insecure", cfg.InsecureSkipVerify))

	s := NewSession(c.Client, logger)
	s.logout = c.Logout
	return s, nil
}

// NewSession wraps an already authenticated client. Close on such a session
// does not log out.
func NewSession(c *vim25.Client, logger *zap.Logger) *Session {
	return &Session{
		vim:    c,
		pc:     property.DefaultCollector(c),
		perf:   performance.NewManager(c),
		logger: logger,
	}
}

// Close ends the session.
func (s *Session) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		if s.logout == nil {
			return
		}
		if err = s.logout(ctx); err != nil {
			err = fmt.Errorf("logout: %w", err)
			return
		}
		s.logger.Debug("Controller session closed")
	})
	return err
}

// sdkURL builds https://address:port/sdk. An address that already carries a
// port or a scheme is used as given.
func sdkURL(cfg config.ControllerConfig) (*url.URL, error) {
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		return nil, fmt.Errorf("controller address is empty")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil && cfg.Port > 0 && !strings.Contains(addr, "://") {
		addr = net.JoinHostPort(addr, strconv.Itoa(cfg.Port))
	}
	u, err := soap.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse controller address %q: %w", cfg.Address, err)
	}
	return u, nil
}
