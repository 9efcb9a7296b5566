// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

// driveLoop is the stack-safe trampoline every *While/*Until/*Forever
// operator and the Sequence policy of All/Any build on. runOnce performs one
// iteration; calling next schedules another. If next is called synchronously
// (before runOnce returns), the driver unrolls the next iteration into its
// own for-loop instead of recursing, so a long synchronous chain never grows
// the call stack. If next is called later — after runOnce has already
// returned, typically because some asynchronous primitive resumed it — the
// driver simply re-enters directly, which costs one stack frame per
// asynchronous hop rather than per iteration. runOnce that never calls next
// is assumed to have already delivered a terminal outcome on its own
// observer; the driver then simply stops.
func driveLoop(isCancelled func() bool, runOnce func(next func())) {
	var step func()
	var running bool
	var wantNext bool

	step = func() {
		for {
			if isCancelled() {
				return
			}
			running = true
			wantNext = false
			runOnce(func() {
				if running {
					wantNext = true
					return
				}
				step()
			})
			running = false
			if !wantNext {
				return
			}
		}
	}
	step()
}

// ThenWhile repeatedly runs c; after each Then(a), pred(a) is evaluated (a
// panic becomes Crash); true continues the loop, false emits Then(a). Else
// and Crash exit the loop, propagating the outcome.
func ThenWhile[E, F, A any](c Cont[E, F, A], pred func(A) bool) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		driveLoop(rt.IsCancelled, func(next func()) {
			c.run(rt, Observer[F, A]{
				OnElse:  obs.OnElse,
				OnCrash: obs.OnCrash,
				OnThen: func(a A) {
					if rt.IsCancelled() {
						return
					}
					cont, crash, panicked := safeInvoke(func() bool { return pred(a) })
					if panicked {
						obs.OnCrash(crash)
						return
					}
					if cont {
						next()
					} else {
						obs.OnThen(a)
					}
				},
			})
		})
	})
}

// ThenUntil is ThenWhile with the predicate inverted: it loops until pred
// becomes true.
func ThenUntil[E, F, A any](c Cont[E, F, A], pred func(A) bool) Cont[E, F, A] {
	return ThenWhile(c, func(a A) bool { return !pred(a) })
}

// ThenForever loops c indefinitely on Then; its success type is Never since
// it can never emit Then. Else and Crash still exit, propagating.
func ThenForever[E, F, A any](c Cont[E, F, A]) Cont[E, F, Never] {
	looped := ThenUntil(c, func(A) bool { return false })
	return FromRun(func(rt *Runtime[E], obs Observer[F, Never]) {
		looped.run(rt, Observer[F, A]{
			OnElse:  obs.OnElse,
			OnCrash: obs.OnCrash,
			OnThen:  func(A) {},
		})
	})
}

// ElseWhile is ThenWhile's mirror on the else channel.
func ElseWhile[E, F, A any](c Cont[E, F, A], pred func(F) bool) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		driveLoop(rt.IsCancelled, func(next func()) {
			c.run(rt, Observer[F, A]{
				OnThen:  obs.OnThen,
				OnCrash: obs.OnCrash,
				OnElse: func(f F) {
					if rt.IsCancelled() {
						return
					}
					cont, crash, panicked := safeInvoke(func() bool { return pred(f) })
					if panicked {
						obs.OnCrash(crash)
						return
					}
					if cont {
						next()
					} else {
						obs.OnElse(f)
					}
				},
			})
		})
	})
}

// ElseUntil is ElseWhile with the predicate inverted.
func ElseUntil[E, F, A any](c Cont[E, F, A], pred func(F) bool) Cont[E, F, A] {
	return ElseWhile(c, func(f F) bool { return !pred(f) })
}

// ElseForever loops c indefinitely on Else; its error type is Never since it
// can never emit Else. Then and Crash still exit, propagating.
func ElseForever[E, F, A any](c Cont[E, F, A]) Cont[E, Never, A] {
	looped := ElseUntil(c, func(F) bool { return false })
	return FromRun(func(rt *Runtime[E], obs Observer[Never, A]) {
		looped.run(rt, Observer[F, A]{
			OnThen:  obs.OnThen,
			OnCrash: obs.OnCrash,
			OnElse:  func(F) {},
		})
	})
}

// CrashWhile is ThenWhile's mirror on the crash channel: it loops while pred
// accepts the crash, retrying c, and otherwise propagates the crash.
func CrashWhile[E, F, A any](c Cont[E, F, A], pred func(ContCrash) bool) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		driveLoop(rt.IsCancelled, func(next func()) {
			c.run(rt, Observer[F, A]{
				OnThen: obs.OnThen,
				OnElse: obs.OnElse,
				OnCrash: func(cr ContCrash) {
					if rt.IsCancelled() {
						return
					}
					cont, crash, panicked := safeInvoke(func() bool { return pred(cr) })
					if panicked {
						obs.OnCrash(crash)
						return
					}
					if cont {
						next()
					} else {
						obs.OnCrash(cr)
					}
				},
			})
		})
	})
}

// CrashUntil is CrashWhile with the predicate inverted.
func CrashUntil[E, F, A any](c Cont[E, F, A], pred func(ContCrash) bool) Cont[E, F, A] {
	return CrashWhile(c, func(cr ContCrash) bool { return !pred(cr) })
}

// CrashForever retries c indefinitely whenever it crashes. Then and Else
// still exit normally, so unlike ThenForever/ElseForever this does not need
// to widen to Never: the crash channel's type is always ContCrash regardless
// of whether it practically ever fires.
func CrashForever[E, F, A any](c Cont[E, F, A]) Cont[E, F, A] {
	return CrashUntil(c, func(ContCrash) bool { return false })
}
