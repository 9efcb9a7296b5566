// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

import (
	"github.com/rs/zerolog"
)

// RunOption configures a root invocation of Run.
type RunOption[E any] struct {
	sink func(ContCrash)
}

// WithPanicSink overrides the default panic sink that RunWith or Ff installs. The
// sink receives any crash that occurs after the observer has already
// received an outcome (i.e. a panic from within the observer's own callback),
// or one that escapes every operator boundary.
func WithPanicSink[E any](sink func(ContCrash)) RunOption[E] {
	return RunOption[E]{sink: sink}
}

// defaultPanicSink logs the crash at error level via zerolog and includes
// its captured stack for a Normal crash. It never panics itself.
func defaultPanicSink(logger zerolog.Logger) func(ContCrash) {
	return func(c ContCrash) {
		ev := logger.Error().Str("kind", crashKindLabel(c))
		if c.IsNormal() {
			ev = ev.Err(c.Unwrap()).Str("stack", c.Stack())
		}
		ev.Msg("jerelo: unhandled panic reached the runtime's panic sink")
	}
}

func crashKindLabel(c ContCrash) string {
	switch {
	case c.IsNormal():
		return "normal"
	case c.IsMerged():
		return "merged"
	case c.IsCollected():
		return "collected"
	default:
		return "unknown"
	}
}

// Run starts c under env, delivering its outcome to obs, and returns the
// CancelToken governing this run. Calling Cancel on the returned token
// requests cooperative cancellation; c may still deliver a trailing outcome
// if it had already committed to one before observing cancellation.
//
// By default a crash that reaches the panic sink (rather than the observer's
// own OnCrash) is logged via a zerolog.Logger writing to zerolog.Nop(), i.e.
// silently; call RunWith with WithPanicSink to install a different sink, for instance one
// that forwards into an application's own structured logger or re-raises.
func Run[E, F, A any](c Cont[E, F, A], env E, obs Observer[F, A]) *CancelToken {
	return RunWith(c, env, obs)
}

// RunWith is Run generalized over RunOption, kept distinct so Run's common
// case stays a three-argument call.
func RunWith[E, F, A any](c Cont[E, F, A], env E, obs Observer[F, A], opts ...RunOption[E]) *CancelToken {
	sink := defaultPanicSink(zerolog.Nop())
	for _, o := range opts {
		if o.sink != nil {
			sink = o.sink
		}
	}
	token := NewCancelToken()
	rt := NewRuntime(env, token, sink)
	c.run(rt, obs)
	return token
}

// Ff ("fire and forget") starts c under env with Then, Else, and Crash all
// discarded, returning the CancelToken governing the run.
func Ff[E, F, A any](c Cont[E, F, A], env E, opts ...RunOption[E]) *CancelToken {
	return RunWith(c, env, Observer[F, A]{
		OnThen:  func(A) {},
		OnElse:  func(F) {},
		OnCrash: func(ContCrash) {},
	}, opts...)
}
