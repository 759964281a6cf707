package netlink

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// startReconnect launches the reconnection supervisor unless one is
// already running. The supervisor retries with exponential backoff until
// a connect succeeds, an authentication failure makes retrying pointless,
// or Disconnect cancels it.
func (s *Socket) startReconnect() {
	s.mu.Lock()
	if s.reconnectCancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.reconnectCancel = cancel
	s.reconnectDone = done
	s.mu.Unlock()

	go s.reconnectLoop(ctx, done)
}

func (s *Socket) reconnectLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		s.mu.Lock()
		if s.reconnectDone == done {
			s.reconnectCancel = nil
			s.reconnectDone = nil
		}
		s.mu.Unlock()
	}()

	for attempt := 1; ; attempt++ {
		s.mu.Lock()
		delay := s.currentDelay
		s.mu.Unlock()

		s.logger.Info("reconnecting",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		err := s.Connect(ctx)
		if err == nil {
			// Connect already reset the delay to its initial value.
			s.logger.Info("reconnected", zap.Int("attempt", attempt))
			return
		}
		if ctx.Err() != nil {
			return
		}
		if IsAuthenticationError(err) {
			// The token is bad; retrying cannot help.
			s.logger.Error("reconnect abandoned: authentication rejected", zap.Error(err))
			s.mu.Lock()
			s.shouldReconnect = false
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		next := s.currentDelay * 2
		if next > s.maxDelay {
			next = s.maxDelay
		}
		s.currentDelay = next
		s.mu.Unlock()
	}
}
