// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

// Of builds a computation that immediately emits Then(a).
func Of[E, F, A any](a A) Cont[E, F, A] {
	return FromRun(func(_ *Runtime[E], obs Observer[F, A]) {
		obs.OnThen(a)
	})
}

// ErrorC builds a computation that immediately emits Else(f).
func ErrorC[E, F, A any](f F) Cont[E, F, A] {
	return FromRun(func(_ *Runtime[E], obs Observer[F, A]) {
		obs.OnElse(f)
	})
}

// CrashC builds a computation that immediately emits Crash(c).
func CrashC[E, F, A any](c ContCrash) Cont[E, F, A] {
	return FromRun(func(_ *Runtime[E], obs Observer[F, A]) {
		obs.OnCrash(c)
	})
}

// AskThen builds a computation that emits the runtime's environment on the
// then channel.
func AskThen[E, F any]() Cont[E, F, E] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, E]) {
		obs.OnThen(rt.Env())
	})
}

// AskElse builds a computation that emits the runtime's environment on the
// else channel.
func AskElse[E, A any]() Cont[E, E, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[E, A]) {
		obs.OnElse(rt.Env())
	})
}

// FromDeferred defers construction of the inner computation until run,
// trapping a panic from thunk itself into a Crash the same way any other
// user-supplied closure in this package is trapped.
func FromDeferred[E, F, A any](thunk func() Cont[E, F, A]) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		c := thunk()
		c.run(rt, obs)
	})
}

// ThenDo runs c; on Then(a) it invokes k(a) (a panic becomes a Crash) and
// runs the resulting computation with the same observer. Else and Crash pass
// through unchanged. k is not invoked if cancellation is observed first.
func ThenDo[E, F, A, B any](c Cont[E, F, A], k func(A) Cont[E, F, B]) Cont[E, F, B] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, B]) {
		c.run(rt, Observer[F, A]{
			OnElse:  obs.OnElse,
			OnCrash: obs.OnCrash,
			OnThen: func(a A) {
				if rt.IsCancelled() {
					return
				}
				next, crash, panicked := safeInvoke(func() Cont[E, F, B] { return k(a) })
				if panicked {
					obs.OnCrash(crash)
					return
				}
				next.run(rt, obs)
			},
		})
	})
}

// ElseDo is ThenDo's mirror on the else channel; the recovering computation
// may change the error type from F to F2.
func ElseDo[E, F, F2, A any](c Cont[E, F, A], k func(F) Cont[E, F2, A]) Cont[E, F2, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F2, A]) {
		c.run(rt, Observer[F, A]{
			OnThen:  obs.OnThen,
			OnCrash: obs.OnCrash,
			OnElse: func(f F) {
				if rt.IsCancelled() {
					return
				}
				next, crash, panicked := safeInvoke(func() Cont[E, F2, A] { return k(f) })
				if panicked {
					obs.OnCrash(crash)
					return
				}
				next.run(rt, obs)
			},
		})
	})
}

// CrashDo is ThenDo's mirror on the crash channel: k may recover a crash
// back into the same computation shape.
func CrashDo[E, F, A any](c Cont[E, F, A], k func(ContCrash) Cont[E, F, A]) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		c.run(rt, Observer[F, A]{
			OnThen: obs.OnThen,
			OnElse: obs.OnElse,
			OnCrash: func(cr ContCrash) {
				if rt.IsCancelled() {
					return
				}
				next, crash, panicked := safeInvoke(func() Cont[E, F, A] { return k(cr) })
				if panicked {
					obs.OnCrash(crash)
					return
				}
				next.run(rt, obs)
			},
		})
	})
}

// ThenMap transforms a Then(a) into Then(f(a)); a panicking f becomes Crash.
func ThenMap[E, F, A, B any](c Cont[E, F, A], f func(A) B) Cont[E, F, B] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, B]) {
		c.run(rt, Observer[F, A]{
			OnElse:  obs.OnElse,
			OnCrash: obs.OnCrash,
			OnThen: func(a A) {
				if rt.IsCancelled() {
					return
				}
				b, crash, panicked := safeInvoke(func() B { return f(a) })
				if panicked {
					obs.OnCrash(crash)
					return
				}
				obs.OnThen(b)
			},
		})
	})
}

// ElseMap transforms an Else(e) into Else(f(e)), changing the error type
// from F to F2.
func ElseMap[E, F, F2, A any](c Cont[E, F, A], f func(F) F2) Cont[E, F2, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F2, A]) {
		c.run(rt, Observer[F, A]{
			OnThen:  obs.OnThen,
			OnCrash: obs.OnCrash,
			OnElse: func(e F) {
				if rt.IsCancelled() {
					return
				}
				e2, crash, panicked := safeInvoke(func() F2 { return f(e) })
				if panicked {
					obs.OnCrash(crash)
					return
				}
				obs.OnElse(e2)
			},
		})
	})
}

// Local runs c with the runtime's environment replaced by g(outerEnv).
func Local[E2, E, F, A any](c Cont[E, F, A], g func(E2) E) Cont[E2, F, A] {
	return FromRun(func(rt *Runtime[E2], obs Observer[F, A]) {
		inner, crash, panicked := safeInvoke(func() E { return g(rt.Env()) })
		if panicked {
			obs.OnCrash(crash)
			return
		}
		c.run(deriveEnv[E2, E](rt, inner), obs)
	})
}

// WithEnv runs c with the runtime's environment replaced by the constant v,
// regardless of the outer environment.
func WithEnv[E2, E, F, A any](c Cont[E, F, A], v E) Cont[E2, F, A] {
	return Local[E2, E, F, A](c, func(E2) E { return v })
}

// Decorate exposes c's raw run procedure, the runtime, and the observer to
// wrap, which chooses when and how to invoke the run procedure (and may
// substitute the observer via its copy-update methods). The resulting
// computation keeps c's type signature.
func Decorate[E, F, A any](c Cont[E, F, A], wrap func(rt *Runtime[E], obs Observer[F, A], run func(*Runtime[E], Observer[F, A]))) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		wrap(rt, obs, c.run)
	})
}
