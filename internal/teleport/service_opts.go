package teleport

import "time"

type ServiceOpt func(*Service)

// WithNotifier sets where player messages are delivered
func WithNotifier(n Notifier) ServiceOpt {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithAuditor sets the audit log
func WithAuditor(a Auditor) ServiceOpt {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithClock replaces time.Now for cooldowns and request expiry
func WithClock(now func() time.Time) ServiceOpt {
	return func(s *Service) {
		s.now = now
	}
}
