package system

import "context"

// Service represents a lifecycle-managed component. All application modules
// must implement this interface so the system manager can start and stop them
// deterministically.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// NoopService satisfies Service without doing any work. Used to register
// purely passive modules so they appear in the lifecycle accounting.
type NoopService struct {
	ServiceName string
}

func (n NoopService) Name() string                  { return n.ServiceName }
func (n NoopService) Start(_ context.Context) error { return nil }
func (n NoopService) Stop(_ context.Context) error  { return nil }
