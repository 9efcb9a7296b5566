// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

// ThenInject sequences self into inner, using self's success value as
// inner's environment. Equivalent to ThenDo(self, func(a A) Cont[E,F,B] {
// return WithEnv(inner, a) }).
func ThenInject[E, F, A, B any](self Cont[E, F, A], inner Cont[A, F, B]) Cont[E, F, B] {
	return ThenDo(self, func(a A) Cont[E, F, B] {
		return WithEnv[E, A, F, B](inner, a)
	})
}

// ElseInject is ThenInject's mirror on the else channel: self's error value
// becomes inner's environment, and inner may recover into a new error type.
func ElseInject[E, F, F2, A any](self Cont[E, F, A], inner Cont[F, F2, A]) Cont[E, F2, A] {
	return ElseDo(self, func(f F) Cont[E, F2, A] {
		return WithEnv[E, F, F2, A](inner, f)
	})
}

// InjectedByThen is ThenInject with the receiver and argument swapped:
// InjectedByThen(inner, self) == ThenInject(self, inner).
func InjectedByThen[E, F, A, B any](inner Cont[A, F, B], self Cont[E, F, A]) Cont[E, F, B] {
	return ThenInject(self, inner)
}

// InjectedByElse is ElseInject with the receiver and argument swapped.
func InjectedByElse[E, F, F2, A any](inner Cont[F, F2, A], self Cont[E, F, A]) Cont[E, F2, A] {
	return ElseInject(self, inner)
}
