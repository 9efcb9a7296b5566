// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

// Absurdify returns the placeholder callback for a channel statically known
// to be uninhabited (Never). Go has no bottom type to eliminate a value of it
// directly, so the callback is a no-op instead: it can never actually be
// invoked, since its channel never carries a value. ThenAbsurd and ElseAbsurd
// both go through this to build the Never half of the observer they hand to
// the inner computation.
func Absurdify() func(Never) {
	return func(Never) {}
}

// ThenAbsurd widens a computation whose success channel is statically known
// to be uninhabited (Never) to any concrete success type B. The replaced
// OnThen callback can never be invoked; it exists only to satisfy the
// Observer[F, Never] shape the inner computation expects.
func ThenAbsurd[E, F, B any](c Cont[E, F, Never]) Cont[E, F, B] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, B]) {
		c.run(rt, Observer[F, Never]{
			OnElse:  obs.OnElse,
			OnCrash: obs.OnCrash,
			OnThen:  Absurdify(),
		})
	})
}

// ElseAbsurd widens a computation whose error channel is uninhabited (Never)
// to any concrete error type G.
func ElseAbsurd[E, G, A any](c Cont[E, Never, A]) Cont[E, G, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[G, A]) {
		c.run(rt, Observer[Never, A]{
			OnThen:  obs.OnThen,
			OnCrash: obs.OnCrash,
			OnElse:  Absurdify(),
		})
	})
}
