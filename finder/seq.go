package finder

import "iter"

// FromSlice returns a candidate sequence over a slice.
func FromSlice[T any](items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Concat chains candidate sequences. Iteration stops at the first error.
func Concat[T any](seqs ...iter.Seq2[T, error]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, seq := range seqs {
			for item, err := range seq {
				if !yield(item, err) || err != nil {
					return
				}
			}
		}
	}
}

// Lazy defers building a sequence until it is iterated.
func Lazy[T any](build func() (iter.Seq2[T, error], error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		seq, err := build()
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for item, err := range seq {
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}
