package worker

import (
	"context"

	"github.com/socialsieve/backend/internal/service"
)

// sessionCleanup deletes expired sessions on each worker run.
type sessionCleanup struct {
	users service.UserService
}

// NewSessionCleanup creates the expired session cleanup task.
func NewSessionCleanup(users service.UserService) Task {
	return &sessionCleanup{users: users}
}

func (t *sessionCleanup) Name() string {
	return "session_cleanup"
}

func (t *sessionCleanup) Run(ctx context.Context) error {
	return t.users.DeleteExpiredSessions(ctx)
}
