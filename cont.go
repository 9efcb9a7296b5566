// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

// Never marks a channel that is, by convention, never populated: a Cont
// whose success or error type is Never is documented as never emitting on
// that channel. Go has no bottom type, so this is an ordinary empty struct;
// ThenAbsurd and ElseAbsurd widen it to any concrete type at the type level.
type Never struct{}

// Cont represents a cold computation: given a runtime and an observer, it
// eventually delivers exactly one outcome to the observer (or none, if
// cancelled first). Constructing a Cont has no observable effect; all work
// happens when it is run.
type Cont[E, F, A any] struct {
	run func(rt *Runtime[E], obs Observer[F, A])
}

// FromRun builds a Cont from a raw run procedure, installing the guarantees
// every computation in this package relies on: a cancellation check at
// entry, a safe observer that enforces single emission and routes a
// misbehaving callback to the runtime's panic sink, and a trap that converts
// any exception escaping fn into a Crash outcome instead of propagating.
func FromRun[E, F, A any](fn func(rt *Runtime[E], obs Observer[F, A])) Cont[E, F, A] {
	return Cont[E, F, A]{
		run: func(rt *Runtime[E], obs Observer[F, A]) {
			if rt.IsCancelled() {
				return
			}
			safe := wrapSafe(rt, obs)
			defer func() {
				if r := recover(); r != nil {
					safe.OnCrash(fromPanic(r))
				}
			}()
			fn(rt, safe)
		},
	}
}

// safeInvoke runs fn, converting a panic into a crash instead of letting it
// escape. Operators use this to trap exceptions from user-supplied
// transformation functions (the k in ThenDo, the f in ThenMap, ...) so the
// resulting crash is routed through the operator's own outer observer rather
// than being caught one layer too deep by the callee's own FromRun wrapper.
func safeInvoke[T any](fn func() T) (result T, crash ContCrash, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			crash = fromPanic(r)
		}
	}()
	result = fn()
	return
}
