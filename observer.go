// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

import "sync/atomic"

// Observer is the sink a computation reports its single outcome to: exactly
// one of OnThen, OnElse, OnCrash fires, at most once. Callers assembling an
// Observer literal should always set all three fields; operators in this
// package never construct a partial one.
type Observer[F, A any] struct {
	OnThen  func(A)
	OnElse  func(F)
	OnCrash func(ContCrash)
}

// WithOnThen returns a copy of o with OnThen replaced, preserving OnElse and
// OnCrash.
func (o Observer[F, A]) WithOnThen(f func(A)) Observer[F, A] {
	o.OnThen = f
	return o
}

// WithOnElse returns a copy of o with OnElse replaced, preserving the rest.
func (o Observer[F, A]) WithOnElse(f func(F)) Observer[F, A] {
	o.OnElse = f
	return o
}

// WithOnCrash returns a copy of o with OnCrash replaced, preserving the rest.
func (o Observer[F, A]) WithOnCrash(f func(ContCrash)) Observer[F, A] {
	o.OnCrash = f
	return o
}

// wrapSafe wraps obs so that at most one of its callbacks ever fires, late
// or cancelled emissions are silently dropped, and a callback that panics
// has that panic routed to rt's panic sink instead of propagating.
func wrapSafe[E, F, A any](rt *Runtime[E], obs Observer[F, A]) Observer[F, A] {
	var done atomic.Bool
	emit := func(deliver func()) {
		if rt.IsCancelled() {
			return
		}
		if !done.CompareAndSwap(false, true) {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				rt.Panic(fromPanic(r))
			}
		}()
		deliver()
	}
	return Observer[F, A]{
		OnThen:  func(a A) { emit(func() { obs.OnThen(a) }) },
		OnElse:  func(f F) { emit(func() { obs.OnElse(f) }) },
		OnCrash: func(c ContCrash) { emit(func() { obs.OnCrash(c) }) },
	}
}
