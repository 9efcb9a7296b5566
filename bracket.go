// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

// BracketOption configures Bracket's observation of its release step without
// affecting the outcome Bracket itself reports.
type BracketOption[R any] struct {
	onReleaseThen  func(R)
	onReleaseCrash func(ContCrash)
}

// OnReleaseThen registers a callback invoked (best-effort, for observation
// only) whenever release completes successfully.
func OnReleaseThen[R any](f func(R)) BracketOption[R] {
	return BracketOption[R]{onReleaseThen: f}
}

// OnReleaseCrash registers a callback invoked whenever release itself
// crashes, before that crash is folded into Bracket's own outcome.
func OnReleaseCrash[R any](f func(ContCrash)) BracketOption[R] {
	return BracketOption[R]{onReleaseCrash: f}
}

// Bracket runs acquire, then use(resource), then unconditionally release
// (even if use was cancelled, errored, or crashed), under a runtime view
// where release itself cannot be cancelled. acquire is expected never to
// emit Else (hence its Never error type); a panic escaping acquire or
// release still becomes a Crash.
//
// The combination of use's and release's outcomes follows a fixed priority:
// if both succeed, Bracket reports use's success. A release crash always
// takes priority over a prior use success or use error, since it means the
// resource was not cleanly torn down. If release succeeds, use's own
// outcome (success, error, or crash) passes through unchanged. If both use
// and release crash, the two crashes are merged with use's crash first.
func Bracket[E, R, F, A any](acquire Cont[E, Never, R], use func(R) Cont[E, F, A], release func(R) Cont[E, Never, struct{}], opts ...BracketOption[R]) Cont[E, F, A] {
	var opt BracketOption[R]
	for _, o := range opts {
		if o.onReleaseThen != nil {
			opt.onReleaseThen = o.onReleaseThen
		}
		if o.onReleaseCrash != nil {
			opt.onReleaseCrash = o.onReleaseCrash
		}
	}

	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		acquire.run(rt, Observer[Never, R]{
			OnElse: func(Never) {},
			OnCrash: func(c ContCrash) {
				obs.OnCrash(c)
			},
			OnThen: func(resource R) {
				runRelease := func(after func(releaseCrash *ContCrash)) {
					releaseRt := rt.nonCancellable()
					releaseC, relCrash, relPanicked := safeInvoke(func() Cont[E, Never, struct{}] { return release(resource) })
					if relPanicked {
						if opt.onReleaseCrash != nil {
							opt.onReleaseCrash(relCrash)
						}
						after(&relCrash)
						return
					}
					releaseC.run(releaseRt, Observer[Never, struct{}]{
						OnElse: func(Never) {},
						OnThen: func(struct{}) {
							if opt.onReleaseThen != nil {
								opt.onReleaseThen(resource)
							}
							after(nil)
						},
						OnCrash: func(rc ContCrash) {
							if opt.onReleaseCrash != nil {
								opt.onReleaseCrash(rc)
							}
							after(&rc)
						},
					})
				}

				if rt.IsCancelled() {
					runRelease(func(releaseCrash *ContCrash) {
						if releaseCrash != nil {
							obs.OnCrash(*releaseCrash)
						}
					})
					return
				}

				var inner Cont[E, F, A]
				inner, crash, panicked := safeInvoke(func() Cont[E, F, A] { return use(resource) })
				if panicked {
					runRelease(func(releaseCrash *ContCrash) {
						if releaseCrash != nil {
							obs.OnCrash(MergedCrash(crash, *releaseCrash))
							return
						}
						obs.OnCrash(crash)
					})
					return
				}

				inner.run(rt, Observer[F, A]{
					OnThen: func(a A) {
						runRelease(func(releaseCrash *ContCrash) {
							if releaseCrash != nil {
								obs.OnCrash(*releaseCrash)
								return
							}
							obs.OnThen(a)
						})
					},
					OnElse: func(f F) {
						runRelease(func(releaseCrash *ContCrash) {
							if releaseCrash != nil {
								obs.OnCrash(*releaseCrash)
								return
							}
							obs.OnElse(f)
						})
					},
					OnCrash: func(useCrash ContCrash) {
						runRelease(func(releaseCrash *ContCrash) {
							if releaseCrash != nil {
								obs.OnCrash(MergedCrash(useCrash, *releaseCrash))
								return
							}
							obs.OnCrash(useCrash)
						})
					},
				})
			},
		})
	})
}
