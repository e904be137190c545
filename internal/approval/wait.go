package approval

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultPollInterval bounds how often a waiting stage re-reads an
// approval. Kept in whole seconds so a suspended pipeline does not peg a
// core while a human thinks.
const DefaultPollInterval = 2 * time.Second

// Outcome is the sum-type result of waiting on an approval: either the
// reviewer resolved it, or the deadline passed and the waiter expired it.
type Outcome struct {
	Approval *Approval
	Expired  bool
}

// Wait polls the approval's status at the given interval until it leaves
// PENDING or its deadline passes. Expiry is detected lazily by the
// waiter itself: on deadline the waiter writes EXPIRED through the store
// (no background sweeper exists). If a reviewer wins the race on that
// final write, the reviewer's resolution is returned instead.
func Wait(ctx context.Context, store *Store, id string, interval time.Duration) (Outcome, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	a, err := store.Get(id)
	if err != nil {
		return Outcome{}, err
	}
	if a.Status.Terminal() {
		return Outcome{Approval: a, Expired: a.Status == StatusExpired}, nil
	}
	deadline := a.Deadline()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if time.Now().After(deadline) {
			return expire(store, id)
		}

		select {
		case <-ctx.Done():
			return Outcome{}, fmt.Errorf("wait for approval %s: %w", id, ctx.Err())
		case <-ticker.C:
		}

		a, err = store.Get(id)
		if err != nil {
			return Outcome{}, err
		}
		if a.Status.Terminal() {
			return Outcome{Approval: a, Expired: a.Status == StatusExpired}, nil
		}
	}
}

func expire(store *Store, id string) (Outcome, error) {
	a, err := store.Resolve(id, StatusExpired, "system", "approval deadline passed without a decision", nil)
	if errors.Is(err, ErrAlreadyResolved) {
		// A reviewer resolved it between our last poll and the deadline.
		return Outcome{Approval: a, Expired: a.Status == StatusExpired}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Approval: a, Expired: true}, nil
}
