package tree

import (
	"context"
	"fmt"
	"sync"

	"github.com/pbanos/copse/feature"
)

/*
RuleStore is an interface to manage a store
where the root rules of the trees of a session
can be kept between runs.

All it methods take a context that may allow
cancelling the operation (thus forcing the return
of an error) if the implementation allows it.
*/
type RuleStore interface {
	// Get takes a session and a tree id and returns
	// the rule stored for them (or nil if there is none)
	// or an error if the store cannot be queried
	Get(ctx context.Context, session, treeID string) (*feature.Rule, error)
	// Store takes a session, a tree id and a rule and
	// stores the rule for them, replacing any previous one.
	// It returns an error if the rule cannot be stored.
	Store(ctx context.Context, session, treeID string, r feature.Rule) error
	// Delete takes a session and a tree id and removes
	// any rule stored for them. It returns an error if
	// the deletion cannot be performed.
	Delete(ctx context.Context, session, treeID string) error
	// Close closes the store, implementations should
	// free any resources in use before returning
	// (unless the context expires). It returns an error
	// if the Close cannot be completed.
	Close(ctx context.Context) error
}

type memoryRuleStore struct {
	rules map[string]feature.Rule
	lock  *sync.RWMutex
}

// NewMemoryRuleStore returns an implementation
// of RuleStore with the process memory space
// as underlying backend
func NewMemoryRuleStore() RuleStore {
	return &memoryRuleStore{
		rules: make(map[string]feature.Rule),
		lock:  &sync.RWMutex{},
	}
}

func (mrs *memoryRuleStore) Get(ctx context.Context, session, treeID string) (*feature.Rule, error) {
	var r *feature.Rule
	err := mrs.withRLock(ctx, func(ctx context.Context) error {
		if stored, ok := mrs.rules[key(session, treeID)]; ok {
			r = &stored
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (mrs *memoryRuleStore) Store(ctx context.Context, session, treeID string, r feature.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return mrs.withLock(ctx, func(ctx context.Context) error {
		mrs.rules[key(session, treeID)] = r
		return nil
	})
}

func (mrs *memoryRuleStore) Delete(ctx context.Context, session, treeID string) error {
	return mrs.withLock(ctx, func(ctx context.Context) error {
		delete(mrs.rules, key(session, treeID))
		return nil
	})
}

func (mrs *memoryRuleStore) Close(ctx context.Context) error {
	return nil
}

func key(session, treeID string) string {
	return fmt.Sprintf("%s:%s", session, treeID)
}

func (mrs *memoryRuleStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gotLock := make(chan struct{})
	go func() {
		mrs.lock.Lock()
		select {
		case <-ctx.Done():
			mrs.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mrs.lock.Unlock()
	}
	return f(ctx)
}

func (mrs *memoryRuleStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gotLock := make(chan struct{})
	go func() {
		mrs.lock.RLock()
		select {
		case <-ctx.Done():
			mrs.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mrs.lock.RUnlock()
	}
	return f(ctx)
}
