// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

import "sync/atomic"

// CancelToken is a cooperative, monotonic cancellation flag. It is created by
// Run, co-owned by the caller (to signal Cancel) and the runtime (to query
// IsCancelled). A token derived as a child of a parent is cancelled whenever
// either it or any of its ancestors is cancelled.
type CancelToken struct {
	flag   atomic.Bool
	parent *CancelToken
}

// NewCancelToken creates a fresh, uncancelled token with no parent.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// newChildCancelToken derives a token whose cancellation state also reflects
// the parent's, used by parallel combinators to fan a decisive outcome out
// to sibling operands without disturbing the parent's own token.
func newChildCancelToken(parent *CancelToken) *CancelToken {
	return &CancelToken{parent: parent}
}

// newNonCancellableToken creates a token that nothing in this package ever
// calls Cancel on, used to give bracket's release step a runtime view that
// ignores the caller's cancellation.
func newNonCancellableToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests cancellation. Idempotent: calling it twice has the same
// effect as once.
func (t *CancelToken) Cancel() {
	t.flag.Store(true)
}

// IsCancelled reports whether this token or any ancestor has been cancelled.
func (t *CancelToken) IsCancelled() bool {
	for tok := t; tok != nil; tok = tok.parent {
		if tok.flag.Load() {
			return true
		}
	}
	return false
}

// Runtime carries the environment value a computation runs under, the
// cancellation query, and the panic sink that a raising observer callback is
// routed to. IsCancelled is monotonic; Panic must never itself raise to its
// caller — a panicking sink is swallowed and re-raised on a detached
// goroutine so it still surfaces as an unhandled exception.
type Runtime[E any] struct {
	env   E
	token *CancelToken
	sink  func(ContCrash)
}

// NewRuntime builds a runtime from an environment value, a cancel token, and
// a panic sink.
func NewRuntime[E any](env E, token *CancelToken, sink func(ContCrash)) *Runtime[E] {
	return &Runtime[E]{env: env, token: token, sink: sink}
}

// Env returns the environment value.
func (rt *Runtime[E]) Env() E { return rt.env }

// IsCancelled reports whether this runtime's token has been cancelled.
func (rt *Runtime[E]) IsCancelled() bool { return rt.token.IsCancelled() }

// Panic routes a crash to the runtime's panic sink. A sink that itself
// panics is caught here and re-raised on a detached goroutine.
func (rt *Runtime[E]) Panic(c ContCrash) {
	defer func() {
		if r := recover(); r != nil {
			go panic(r)
		}
	}()
	rt.sink(c)
}

func (rt *Runtime[E]) cancelToken() *CancelToken { return rt.token }

// withToken derives a runtime sharing env and panic sink but driven by a
// different cancel token, used by parallel combinators.
func (rt *Runtime[E]) withToken(token *CancelToken) *Runtime[E] {
	return &Runtime[E]{env: rt.env, token: token, sink: rt.sink}
}

// nonCancellable derives a runtime sharing env and panic sink but whose
// cancellation query is permanently false, used for bracket's release step.
func (rt *Runtime[E]) nonCancellable() *Runtime[E] {
	return &Runtime[E]{env: rt.env, token: newNonCancellableToken(), sink: rt.sink}
}

// deriveEnv builds a runtime with a new environment type, sharing the
// cancel token and panic sink of rt. It backs Local/WithEnv since a method
// on Runtime[E] cannot introduce the new type parameter E2 itself.
func deriveEnv[E2, E any](rt *Runtime[E2], env E) *Runtime[E] {
	return &Runtime[E]{env: env, token: rt.token, sink: rt.sink}
}
