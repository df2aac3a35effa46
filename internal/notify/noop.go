package notify

import "log"

func init() {
	_ = Register("noop", func(_ *log.Logger) Backend { return &NoopBackend{} })
}

// NoopBackend swallows deliveries. Used when no delivery surface is
// configured, and as the permission-denied stand-in.
type NoopBackend struct{}

func (n *NoopBackend) Name() string { return "noop" }

func (n *NoopBackend) IsEnabled() bool { return false }

func (n *NoopBackend) Deliver(Content) error { return nil }
