// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

// ThenTap runs f for its side effect on a Then(a) without changing the
// outcome. A panic in f becomes a Crash, same as any other callback in this
// package.
func ThenTap[E, F, A any](c Cont[E, F, A], f func(A)) Cont[E, F, A] {
	return ThenMap(c, func(a A) A {
		f(a)
		return a
	})
}

// ThenZip pairs c's success with inner's, running inner only after c
// succeeds, under the same environment.
func ThenZip[E, F, A, B any](c Cont[E, F, A], inner Cont[E, F, B]) Cont[E, F, struct {
	First  A
	Second B
}] {
	type pair = struct {
		First  A
		Second B
	}
	return ThenDo(c, func(a A) Cont[E, F, pair] {
		return ThenMap(inner, func(b B) pair { return pair{First: a, Second: b} })
	})
}

// ThenFork runs c, and on success additionally runs forked as a fire-and-
// forget side computation under the same environment; forked's own outcome
// is discarded (its crash still reaches the root's panic sink). c's outcome
// is unaffected.
func ThenFork[E, F, A any](c Cont[E, F, A], forked func(A) Cont[E, F, struct{}]) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		c.run(rt, Observer[F, A]{
			OnElse:  obs.OnElse,
			OnCrash: obs.OnCrash,
			OnThen: func(a A) {
				next, crash, panicked := safeInvoke(func() Cont[E, F, struct{}] { return forked(a) })
				if !panicked {
					next.run(rt, Observer[F, struct{}]{
						OnThen:  func(struct{}) {},
						OnElse:  func(F) {},
						OnCrash: rt.Panic,
					})
				}
				obs.OnThen(a)
				_ = crash
			},
		})
	})
}

// ThenIf runs onTrue(a) or onFalse(a) depending on pred(a); a panic in pred
// becomes a Crash.
func ThenIf[E, F, A, B any](c Cont[E, F, A], pred func(A) bool, onTrue, onFalse func(A) Cont[E, F, B]) Cont[E, F, B] {
	return ThenDo(c, func(a A) Cont[E, F, B] {
		ok, crash, panicked := safeInvoke(func() bool { return pred(a) })
		if panicked {
			return CrashC[E, F, B](crash)
		}
		if ok {
			return onTrue(a)
		}
		return onFalse(a)
	})
}

// Demote turns a Then(a) that should be treated as a business failure into
// Else(f(a)); used to fold a success case back into the error channel.
func Demote[E, F, A any](c Cont[E, F, A], f func(A) F) Cont[E, F, A] {
	return ThenDo(c, func(a A) Cont[E, F, A] {
		e, crash, panicked := safeInvoke(func() F { return f(a) })
		if panicked {
			return CrashC[E, F, A](crash)
		}
		return ErrorC[E, F, A](e)
	})
}

// ElseTap runs f for its side effect on an Else(e) without changing the
// outcome.
func ElseTap[E, F, A any](c Cont[E, F, A], f func(F)) Cont[E, F, A] {
	return ElseMap(c, func(e F) F {
		f(e)
		return e
	})
}

// ElseZip pairs c's error with inner's, running inner only after c fails.
func ElseZip[E, F, G, A any](c Cont[E, F, A], inner Cont[E, G, A]) Cont[E, struct {
	First  F
	Second G
}, A] {
	type pair = struct {
		First  F
		Second G
	}
	return ElseDo(c, func(e F) Cont[E, pair, A] {
		return ElseMap(inner, func(g G) pair { return pair{First: e, Second: g} })
	})
}

// ElseFork is ThenFork's mirror on the else channel.
func ElseFork[E, F, A any](c Cont[E, F, A], forked func(F) Cont[E, F, struct{}]) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		c.run(rt, Observer[F, A]{
			OnThen:  obs.OnThen,
			OnCrash: obs.OnCrash,
			OnElse: func(e F) {
				next, _, panicked := safeInvoke(func() Cont[E, F, struct{}] { return forked(e) })
				if !panicked {
					next.run(rt, Observer[F, struct{}]{
						OnThen:  func(struct{}) {},
						OnElse:  func(F) {},
						OnCrash: rt.Panic,
					})
				}
				obs.OnElse(e)
			},
		})
	})
}

// ElseUnless is Else's guard: if pred(e) is true the error is treated as
// recoverable and mapped through recover instead of propagating as Else.
func ElseUnless[E, F, A any](c Cont[E, F, A], pred func(F) bool, recover func(F) Cont[E, F, A]) Cont[E, F, A] {
	return ElseDo(c, func(e F) Cont[E, F, A] {
		ok, crash, panicked := safeInvoke(func() bool { return pred(e) })
		if panicked {
			return CrashC[E, F, A](crash)
		}
		if ok {
			return recover(e)
		}
		return ErrorC[E, F, A](e)
	})
}

// Promote turns an Else(e) that should be treated as a success into
// Then(f(e)); the mirror of Demote.
func Promote[E, F, A any](c Cont[E, F, A], f func(F) A) Cont[E, F, A] {
	return ElseDo(c, func(e F) Cont[E, F, A] {
		a, crash, panicked := safeInvoke(func() A { return f(e) })
		if panicked {
			return CrashC[E, F, A](crash)
		}
		return Of[E, F, A](a)
	})
}

// CrashTap runs f for its side effect on a Crash without changing the
// outcome.
func CrashTap[E, F, A any](c Cont[E, F, A], f func(ContCrash)) Cont[E, F, A] {
	return CrashDo(c, func(cr ContCrash) Cont[E, F, A] {
		f(cr)
		return CrashC[E, F, A](cr)
	})
}

// CrashZip pairs a Crash with side data derived from it, replacing the
// crash with a merged crash carrying both the original and a second Normal
// crash built from toErr.
func CrashZip[E, F, A any](c Cont[E, F, A], toErr func(ContCrash) error) Cont[E, F, A] {
	return CrashDo(c, func(cr ContCrash) Cont[E, F, A] {
		extra, crash, panicked := safeInvoke(func() error { return toErr(cr) })
		if panicked {
			return CrashC[E, F, A](crash)
		}
		return CrashC[E, F, A](MergedCrash(cr, NormalCrash(extra)))
	})
}

// CrashFork is ThenFork's mirror on the crash channel.
func CrashFork[E, F, A any](c Cont[E, F, A], forked func(ContCrash) Cont[E, F, struct{}]) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		c.run(rt, Observer[F, A]{
			OnThen: obs.OnThen,
			OnElse: obs.OnElse,
			OnCrash: func(cr ContCrash) {
				next, _, panicked := safeInvoke(func() Cont[E, F, struct{}] { return forked(cr) })
				if !panicked {
					next.run(rt, Observer[F, struct{}]{
						OnThen:  func(struct{}) {},
						OnElse:  func(F) {},
						OnCrash: rt.Panic,
					})
				}
				obs.OnCrash(cr)
			},
		})
	})
}

// CrashUnlessThen recovers a Crash into a Then(a) when pred accepts it,
// otherwise propagates the crash unchanged.
func CrashUnlessThen[E, F, A any](c Cont[E, F, A], pred func(ContCrash) bool, recover func(ContCrash) A) Cont[E, F, A] {
	return CrashDo(c, func(cr ContCrash) Cont[E, F, A] {
		ok, crash, panicked := safeInvoke(func() bool { return pred(cr) })
		if panicked {
			return CrashC[E, F, A](crash)
		}
		if !ok {
			return CrashC[E, F, A](cr)
		}
		a, crash2, panicked2 := safeInvoke(func() A { return recover(cr) })
		if panicked2 {
			return CrashC[E, F, A](crash2)
		}
		return Of[E, F, A](a)
	})
}

// CrashUnlessElse recovers a Crash into an Else(f) when pred accepts it,
// otherwise propagates the crash unchanged.
func CrashUnlessElse[E, F, A any](c Cont[E, F, A], pred func(ContCrash) bool, recover func(ContCrash) F) Cont[E, F, A] {
	return CrashDo(c, func(cr ContCrash) Cont[E, F, A] {
		ok, crash, panicked := safeInvoke(func() bool { return pred(cr) })
		if panicked {
			return CrashC[E, F, A](crash)
		}
		if !ok {
			return CrashC[E, F, A](cr)
		}
		e, crash2, panicked2 := safeInvoke(func() F { return recover(cr) })
		if panicked2 {
			return CrashC[E, F, A](crash2)
		}
		return ErrorC[E, F, A](e)
	})
}

// CrashRecoverThen unconditionally recovers any Crash into a Then(a).
func CrashRecoverThen[E, F, A any](c Cont[E, F, A], recover func(ContCrash) A) Cont[E, F, A] {
	return CrashUnlessThen(c, func(ContCrash) bool { return true }, recover)
}

// CrashRecoverElse unconditionally recovers any Crash into an Else(f).
func CrashRecoverElse[E, F, A any](c Cont[E, F, A], recover func(ContCrash) F) Cont[E, F, A] {
	return CrashUnlessElse(c, func(ContCrash) bool { return true }, recover)
}
