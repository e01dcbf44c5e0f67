package pipeline

import (
	"context"
	"time"

	"github.com/gofrs/flock"

	"spritebridge/internal/services"
)

const lockRetryDelay = 100 * time.Millisecond

// ProjectLockPath is the lock file guarding commits into yypPath.
func ProjectLockPath(yypPath string) string {
	return yypPath + ".lock"
}

// LockProject blocks until the project lock is held or ctx is done. The
// returned func releases it.
func LockProject(ctx context.Context, yypPath string) (func() error, error) {
	lock := flock.New(ProjectLockPath(yypPath))
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, component, "lock project", lock.Path(), err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrIO, component, "lock project", lock.Path()+": not acquired", nil)
	}
	return lock.Unlock, nil
}
