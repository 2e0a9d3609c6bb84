package stream

import (
	"context"
	"slices"
)

// Channel combinators for pipeline plumbing.
// Slice, et al., after:
// https://betterprogramming.pub/writing-a-stream-api-in-go-afbc3c4350e2

func Slice[T any](ctx context.Context, in []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Filter[T any](ctx context.Context, predicate func(T) bool, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for element := range in {
			if predicate(element) {
				select {
				case <-ctx.Done():
					return
				case out <- element:
				}
			}
		}
	}()
	return out
}

func Transform[I any, O any](ctx context.Context, transformer func(I) O, in <-chan I) <-chan O {
	out := make(chan O)
	go func() {
		defer close(out)
		for element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- transformer(element):
			}
		}
	}()
	return out
}

func Collect[T any](ctx context.Context, in <-chan T) []T {
	out := make([]T, 0)
	for element := range in {
		select {
		case <-ctx.Done():
			return out
		default:
			out = append(out, element)
		}
	}
	return out
}

// Sink drains the channel through fn, blocking until in closes.
func Sink[T any](ctx context.Context, fn func(T), in <-chan T) {
	for element := range in {
		select {
		case <-ctx.Done():
			return
		default:
			fn(element)
		}
	}
}

// Tee fans one channel out to two. Both outputs must be consumed;
// a send blocks both until the slower reader catches up.
func Tee[T any](ctx context.Context, in <-chan T) (<-chan T, <-chan T) {
	out1, out2 := make(chan T), make(chan T)
	go func() {
		defer close(out1)
		defer close(out2)
		for element := range in {
			var o1, o2 chan T = out1, out2
			for i := 0; i < 2; i++ {
				select {
				case <-ctx.Done():
					return
				case o1 <- element:
					o1 = nil
				case o2 <- element:
					o2 = nil
				}
			}
		}
	}()
	return out1, out2
}

// BatchSort buffers up to size elements, sorts them with cmp (stable),
// and flushes the batch downstream. A nil cmp passes batches through
// unsorted. Useful for mostly-ordered input where riffles stay within
// one batch of their proper place.
func BatchSort[T any](ctx context.Context, size int, cmp func(a, b T) int, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		batch := make([]T, 0, size)
		flush := func() {
			if cmp != nil {
				slices.SortStableFunc(batch, cmp)
			}
			for _, element := range batch {
				select {
				case <-ctx.Done():
					return
				case out <- element:
				}
			}
			batch = batch[:0]
		}
		for element := range in {
			batch = append(batch, element)
			if len(batch) >= size {
				flush()
			}
		}
		flush()
	}()
	return out
}
