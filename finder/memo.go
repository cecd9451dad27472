package finder

import (
	"context"
	"sync"
)

type memoKey struct{}

// memo holds values computed once per lookup, shared by the source calls
// of that lookup.
type memo struct {
	mu     sync.Mutex
	values map[any]any
}

// withMemo attaches a memo to ctx unless the lookup already has one, so
// nested lookups share the memo of the outermost one.
func withMemo(ctx context.Context) context.Context {
	if _, ok := ctx.Value(memoKey{}).(*memo); ok {
		return ctx
	}
	return context.WithValue(ctx, memoKey{}, &memo{values: map[any]any{}})
}

// Memoize returns the value stored under key by an earlier call in the same
// lookup, or computes and stores it. key must be comparable. Errors are not
// stored, and outside a lookup compute always runs.
func Memoize[V any](ctx context.Context, key any, compute func() (V, error)) (V, error) {
	m, ok := ctx.Value(memoKey{}).(*memo)
	if !ok {
		return compute()
	}

	m.mu.Lock()
	v, found := m.values[key]
	m.mu.Unlock()
	if found {
		return v.(V), nil
	}

	value, err := compute()
	if err != nil {
		return value, err
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return value, nil
}
