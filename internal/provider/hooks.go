package provider

import (
	"context"

	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// startHook is the composed on-start operation of all surviving processors.
type startHook func(ctx context.Context, span wefttrace.Span) wefttrace.Span

// endHook is the composed on-end operation of all surviving processors.
type endHook func(span wefttrace.Span) bool

// composeStartHook folds the surviving processors' OnStart callbacks, in list
// order, into one operation. The entry slice is copied so the composed chain
// is fixed for the lifetime of the template: nothing a processor does mid-fold
// can change the set of processors or their order.
func composeStartHook(entries []Entry) startHook {
	bound := append([]Entry(nil), entries...)
	return func(ctx context.Context, span wefttrace.Span) wefttrace.Span {
		for _, e := range bound {
			span = guardedOnStart(ctx, e, span)
		}
		return span
	}
}

// composeEndHook folds the surviving processors' OnEnd callbacks into one
// operation returning the conjunction of all results. Every callback is
// invoked even when an earlier one returned false: processors are independent
// observers with side effects (such as exporting), so none may be skipped on
// account of another's result.
func composeEndHook(entries []Entry) endHook {
	bound := append([]Entry(nil), entries...)
	return func(span wefttrace.Span) bool {
		ok := true
		for _, e := range bound {
			// The callback is the left operand so it always runs.
			ok = guardedOnEnd(e, span) && ok
		}
		return ok
	}
}

// guardedOnStart contains a panicking OnStart: the span passes through that
// processor unchanged and the chain continues.
func guardedOnStart(ctx context.Context, e Entry, span wefttrace.Span) (out wefttrace.Span) {
	defer func() {
		if recover() != nil {
			out = span
		}
	}()
	return e.Processor.OnStart(ctx, span, e.Config)
}

// guardedOnEnd contains a panicking OnEnd, which counts as a false result.
func guardedOnEnd(e Entry, span wefttrace.Span) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return e.Processor.OnEnd(span, e.Config)
}
