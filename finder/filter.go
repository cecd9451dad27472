package finder

// Filter decides whether a candidate matches a locator.
type Filter[T any] interface {
	Accept(item T) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc[T any] func(item T) bool

// Accept implements Filter.
func (f FilterFunc[T]) Accept(item T) bool {
	return f(item)
}

// MultiCheckerFilter accepts an item only if every checker accepts it.
// Checkers run in insertion order and evaluation stops at the first rejection,
// so cheap checkers should be added first.
type MultiCheckerFilter[T any] struct {
	checkers []Filter[T]
}

var _ Filter[int] = (*MultiCheckerFilter[int])(nil)

// NewMultiCheckerFilter returns an empty filter that accepts everything.
func NewMultiCheckerFilter[T any]() *MultiCheckerFilter[T] {
	return &MultiCheckerFilter[T]{}
}

// Add appends a checker. Nil filters are ignored.
func (m *MultiCheckerFilter[T]) Add(f Filter[T]) *MultiCheckerFilter[T] {
	if f != nil {
		m.checkers = append(m.checkers, f)
	}
	return m
}

// AddFunc appends a checker function.
func (m *MultiCheckerFilter[T]) AddFunc(f func(item T) bool) *MultiCheckerFilter[T] {
	return m.Add(FilterFunc[T](f))
}

// Len returns the number of checkers.
func (m *MultiCheckerFilter[T]) Len() int {
	return len(m.checkers)
}

// Accept implements Filter.
func (m *MultiCheckerFilter[T]) Accept(item T) bool {
	for _, c := range m.checkers {
		if !c.Accept(item) {
			return false
		}
	}
	return true
}

// AnyOf accepts an item if at least one filter accepts it.
func AnyOf[T any](filters ...Filter[T]) Filter[T] {
	return FilterFunc[T](func(item T) bool {
		for _, f := range filters {
			if f.Accept(item) {
				return true
			}
		}
		return false
	})
}

// Not inverts a filter.
func Not[T any](f Filter[T]) Filter[T] {
	return FilterFunc[T](func(item T) bool {
		return !f.Accept(item)
	})
}
