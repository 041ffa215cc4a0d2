// Package push handles push registration tokens and inbound messages.
package push

import (
	"context"
	"sync"
	"time"

	"github.com/luma-mobile/companion-service/internal/app/domain/push"
	"github.com/luma-mobile/companion-service/internal/app/state"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

// Service records the registration token and inbound messages.
type Service struct {
	state *state.Service
	log   *logger.Logger

	mu       sync.RWMutex
	messages []push.Message
}

// New constructs the push service.
func New(st *state.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("push")
	}
	return &Service{state: st, log: log}
}

// Register stores the device token and forwards it as the push identifier.
// Tokens arrive once per install or refresh.
func (s *Service) Register(ctx context.Context, token string) error {
	if err := s.state.SetDeviceToken(ctx, token); err != nil {
		return err
	}
	s.log.Info("push token registered")
	return nil
}

// Receive records an inbound push message.
func (s *Service) Receive(msg push.Message) push.Message {
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.log.WithField("title", msg.Title).Info("push message received")
	return msg
}

// Messages returns the received messages, oldest first.
func (s *Service) Messages() []push.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]push.Message(nil), s.messages...)
}

// SendTest sends the configured test push event type for an application id.
func (s *Service) SendTest(ctx context.Context, applicationID string) error {
	eventType := s.state.Configuration().TestPushEventType
	return s.state.SendTestPush(ctx, applicationID, eventType)
}
