package auth

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// TokenCleanupService periodically hard-deletes refresh tokens that are past
// the retention window.
type TokenCleanupService struct {
	tokens   *TokenService
	interval time.Duration
	stopChan chan bool
}

func NewTokenCleanupService(tokens *TokenService) *TokenCleanupService {
	return &TokenCleanupService{
		tokens:   tokens,
		interval: 24 * time.Hour, // Cleanup every 24 hours
		stopChan: make(chan bool),
	}
}

// Start starts the token cleanup service
func (s *TokenCleanupService) Start() {
	go s.run()
	logrus.Info("Token cleanup service started")
}

// Stop stops the token cleanup service
func (s *TokenCleanupService) Stop() {
	s.stopChan <- true
	logrus.Info("Token cleanup service stopped")
}

// run runs the cleanup loop
func (s *TokenCleanupService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run initial cleanup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

// cleanup performs one retention sweep
func (s *TokenCleanupService) cleanup() {
	removed, err := s.tokens.Cleanup(context.Background())
	if err != nil {
		logrus.Errorf("Failed to cleanup tokens: %v", err)
		return
	}
	logrus.Infof("Token cleanup completed, removed %d stale tokens", removed)
}

// SetInterval sets the cleanup interval
func (s *TokenCleanupService) SetInterval(interval time.Duration) {
	s.interval = interval
}
