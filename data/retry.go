package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luteorg/lute-api/tools"
	"github.com/mattn/go-sqlite3"
)

// Write retry backoff. The wait doubles from minLockWait up to maxLockWait.
var (
	minLockWait     = 25 * time.Millisecond
	maxLockWait     = time.Second
	maxLockAttempts = 10
)

// IsLockError reports whether err means another connection holds the lock
// the statement needed. SQLite reports this as SQLITE_BUSY or SQLITE_LOCKED;
// the libsql client only exposes the message text.
func IsLockError(err error) bool {
	if err == nil {
		return false
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked")
}

// LockErr marks lock errors with tools.ErrDatabaseBusy so they surface as a
// retryable 503. Other errors are returned unchanged.
func LockErr(err error) error {
	if IsLockError(err) {
		return fmt.Errorf("%w: %w", tools.ErrDatabaseBusy, err)
	}
	return err
}

// lockWait is the pause before retry number attempt (0 based).
func lockWait(attempt int) time.Duration {
	d := minLockWait << attempt
	if d <= 0 || d > maxLockWait {
		return maxLockWait
	}
	return d
}

// retryLocked calls fn until it succeeds, fails with a non-lock error, runs
// out of attempts or ctx ends.
func retryLocked(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		if err = fn(); !IsLockError(err) {
			return err
		}

		timer := time.NewTimer(lockWait(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ctx.Err(), LockErr(err))
		case <-timer.C:
		}
	}
	return LockErr(err)
}

// ExecContextWithRetry runs a write, retrying while the database is locked.
// Reads never go through here.
func ExecContextWithRetry(ctx context.Context, exec Executor, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := retryLocked(ctx, func() error {
		var err error
		result, err = exec.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
