// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo

import (
	"errors"
	"sync"
)

var errEmptyConverge = errors.New("jerelo: converge called with an empty list")

// Both runs l and r under policy, combining their success values with
// combine iff both succeed. Under RunAll, error accumulation preserves
// first-failed-first ordering (whichever operand's failure is observed
// first contributes first to the merged error/crash); under QuitFast the
// first decisive outcome (any failure, or the second success) wins and
// cancels the other operand.
func Both[E, F, A, B, C any](l Cont[E, F, A], r Cont[E, F, B], combine func(A, B) C, policy OkPolicy[F]) Cont[E, F, C] {
	switch policy.kind {
	case policySequence:
		return ThenDo(l, func(a A) Cont[E, F, C] {
			return ThenMap(r, func(b B) C { return combine(a, b) })
		})
	case policyQuitFast:
		return bothQuitFast(l, r, combine)
	default:
		return bothRunAll(l, r, combine, policy.combine, policy.favorCrash)
	}
}

func bothQuitFast[E, F, A, B, C any](l Cont[E, F, A], r Cont[E, F, B], combine func(A, B) C) Cont[E, F, C] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, C]) {
		token := newChildCancelToken(rt.cancelToken())
		child := rt.withToken(token)

		var mu sync.Mutex
		var decided, haveL, haveR bool
		var aVal A
		var bVal B

		finish := func(f func()) {
			mu.Lock()
			if decided {
				mu.Unlock()
				return
			}
			decided = true
			mu.Unlock()
			token.Cancel()
			f()
		}

		l.run(child, Observer[F, A]{
			OnElse:  func(f F) { finish(func() { obs.OnElse(f) }) },
			OnCrash: func(c ContCrash) { finish(func() { obs.OnCrash(c) }) },
			OnThen: func(a A) {
				mu.Lock()
				if decided {
					mu.Unlock()
					return
				}
				haveL, aVal = true, a
				ready := haveR
				bv := bVal
				mu.Unlock()
				if ready {
					finish(func() {
						c, crash, panicked := safeInvoke(func() C { return combine(a, bv) })
						if panicked {
							obs.OnCrash(crash)
							return
						}
						obs.OnThen(c)
					})
				}
			},
		})
		r.run(child, Observer[F, B]{
			OnElse:  func(f F) { finish(func() { obs.OnElse(f) }) },
			OnCrash: func(c ContCrash) { finish(func() { obs.OnCrash(c) }) },
			OnThen: func(b B) {
				mu.Lock()
				if decided {
					mu.Unlock()
					return
				}
				haveR, bVal = true, b
				ready := haveL
				av := aVal
				mu.Unlock()
				if ready {
					finish(func() {
						c, crash, panicked := safeInvoke(func() C { return combine(av, b) })
						if panicked {
							obs.OnCrash(crash)
							return
						}
						obs.OnThen(c)
					})
				}
			},
		})
	})
}

func bothRunAll[E, F, A, B, C any](l Cont[E, F, A], r Cont[E, F, B], combine func(A, B) C, combineErr func(F, F) F, favorCrash bool) Cont[E, F, C] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, C]) {
		var mu sync.Mutex
		var haveL, haveR bool
		var lKind, rKind recKind
		var lThen A
		var rThen B
		var lErr, rErr F
		var lCrash, rCrash ContCrash
		var lSeq, rSeq uint64
		var seq uint64

		resolve := func() {
			switch {
			case favorCrash && (lKind == recCrash || rKind == recCrash):
				switch {
				case lKind == recCrash && rKind == recCrash:
					if lSeq <= rSeq {
						obs.OnCrash(MergedCrash(lCrash, rCrash))
					} else {
						obs.OnCrash(MergedCrash(rCrash, lCrash))
					}
				case lKind == recCrash:
					obs.OnCrash(lCrash)
				default:
					obs.OnCrash(rCrash)
				}
			case lKind == recThen && rKind == recThen:
				c, crash, panicked := safeInvoke(func() C { return combine(lThen, rThen) })
				if panicked {
					obs.OnCrash(crash)
					return
				}
				obs.OnThen(c)
			case lKind == recElse && rKind == recElse:
				e, crash, panicked := safeInvoke(func() F {
					if lSeq <= rSeq {
						return combineErr(lErr, rErr)
					}
					return combineErr(rErr, lErr)
				})
				if panicked {
					obs.OnCrash(crash)
					return
				}
				obs.OnElse(e)
			case lKind == recElse:
				obs.OnElse(lErr)
			case rKind == recElse:
				obs.OnElse(rErr)
			case lKind == recCrash && rKind == recCrash:
				if lSeq <= rSeq {
					obs.OnCrash(MergedCrash(lCrash, rCrash))
				} else {
					obs.OnCrash(MergedCrash(rCrash, lCrash))
				}
			case lKind == recCrash:
				obs.OnCrash(lCrash)
			default:
				obs.OnCrash(rCrash)
			}
		}

		l.run(rt, Observer[F, A]{
			OnThen: func(a A) {
				mu.Lock()
				lKind, lThen, lSeq = recThen, a, seq
				seq++
				haveL = true
				ready := haveR
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnElse: func(f F) {
				mu.Lock()
				lKind, lErr, lSeq = recElse, f, seq
				seq++
				haveL = true
				ready := haveR
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnCrash: func(c ContCrash) {
				mu.Lock()
				lKind, lCrash, lSeq = recCrash, c, seq
				seq++
				haveL = true
				ready := haveR
				mu.Unlock()
				if ready {
					resolve()
				}
			},
		})
		r.run(rt, Observer[F, B]{
			OnThen: func(b B) {
				mu.Lock()
				rKind, rThen, rSeq = recThen, b, seq
				seq++
				haveR = true
				ready := haveL
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnElse: func(f F) {
				mu.Lock()
				rKind, rErr, rSeq = recElse, f, seq
				seq++
				haveR = true
				ready := haveL
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnCrash: func(c ContCrash) {
				mu.Lock()
				rKind, rCrash, rSeq = recCrash, c, seq
				seq++
				haveR = true
				ready := haveL
				mu.Unlock()
				if ready {
					resolve()
				}
			},
		})
	})
}

// All generalizes Both to an ordered list: success is the list of values in
// original order, produced only if every operand succeeds. The input list is
// defensively copied at entry, per the reusability invariant.
func All[E, F, A any](list []Cont[E, F, A], policy OkPolicy[F]) Cont[E, F, []A] {
	items := append([]Cont[E, F, A](nil), list...)
	switch policy.kind {
	case policySequence:
		return allSequence(items)
	case policyQuitFast:
		return allQuitFast(items)
	default:
		return allRunAll(items, policy.combine, policy.favorCrash)
	}
}

func allSequence[E, F, A any](items []Cont[E, F, A]) Cont[E, F, []A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, []A]) {
		acc := make([]A, len(items))
		i := 0
		driveLoop(rt.IsCancelled, func(next func()) {
			if i >= len(items) {
				obs.OnThen(append([]A(nil), acc...))
				return
			}
			idx := i
			items[idx].run(rt, Observer[F, A]{
				OnElse:  obs.OnElse,
				OnCrash: obs.OnCrash,
				OnThen: func(a A) {
					acc[idx] = a
					i++
					next()
				},
			})
		})
	})
}

func allQuitFast[E, F, A any](items []Cont[E, F, A]) Cont[E, F, []A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, []A]) {
		n := len(items)
		if n == 0 {
			obs.OnThen([]A{})
			return
		}
		token := newChildCancelToken(rt.cancelToken())
		child := rt.withToken(token)
		var mu sync.Mutex
		var decided bool
		results := make([]A, n)
		have := make([]bool, n)
		remaining := n

		finish := func(f func()) {
			mu.Lock()
			if decided {
				mu.Unlock()
				return
			}
			decided = true
			mu.Unlock()
			token.Cancel()
			f()
		}

		for i := range items {
			idx := i
			items[idx].run(child, Observer[F, A]{
				OnElse:  func(f F) { finish(func() { obs.OnElse(f) }) },
				OnCrash: func(c ContCrash) { finish(func() { obs.OnCrash(c) }) },
				OnThen: func(a A) {
					mu.Lock()
					if decided {
						mu.Unlock()
						return
					}
					if !have[idx] {
						have[idx] = true
						results[idx] = a
						remaining--
					}
					done := remaining == 0
					out := append([]A(nil), results...)
					mu.Unlock()
					if done {
						finish(func() { obs.OnThen(out) })
					}
				},
			})
		}
	})
}

func allRunAll[E, F, A any](items []Cont[E, F, A], combineErr func(F, F) F, favorCrash bool) Cont[E, F, []A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, []A]) {
		n := len(items)
		if n == 0 {
			obs.OnThen([]A{})
			return
		}
		var mu sync.Mutex
		kinds := make([]recKind, n)
		thens := make([]A, n)
		elses := make([]F, n)
		crashes := make([]ContCrash, n)
		remaining := n

		resolve := func() {
			thenCount, elseCount, crashCount := 0, 0, 0
			for _, k := range kinds {
				switch k {
				case recThen:
					thenCount++
				case recElse:
					elseCount++
				case recCrash:
					crashCount++
				}
			}
			if favorCrash && crashCount > 0 {
				obs.OnCrash(collectCrashes(kinds, crashes))
				return
			}
			if thenCount == n {
				obs.OnThen(append([]A(nil), thens...))
				return
			}
			if elseCount > 0 {
				var combined F
				first := true
				for i, k := range kinds {
					if k != recElse {
						continue
					}
					if first {
						combined, first = elses[i], false
						continue
					}
					e, crash, panicked := safeInvoke(func() F { return combineErr(combined, elses[i]) })
					if panicked {
						obs.OnCrash(crash)
						return
					}
					combined = e
				}
				obs.OnElse(combined)
				return
			}
			obs.OnCrash(collectCrashes(kinds, crashes))
		}

		for i := range items {
			idx := i
			items[idx].run(rt, Observer[F, A]{
				OnThen: func(a A) {
					mu.Lock()
					kinds[idx], thens[idx] = recThen, a
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolve()
					}
				},
				OnElse: func(f F) {
					mu.Lock()
					kinds[idx], elses[idx] = recElse, f
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolve()
					}
				},
				OnCrash: func(c ContCrash) {
					mu.Lock()
					kinds[idx], crashes[idx] = recCrash, c
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolve()
					}
				},
			})
		}
	})
}

// collectCrashes builds a single crash from every recCrash-kinded index: the
// lone crash if there is exactly one, otherwise a Collected crash keyed by
// index.
func collectCrashes(kinds []recKind, crashes []ContCrash) ContCrash {
	count := 0
	var lone ContCrash
	for i, k := range kinds {
		if k == recCrash {
			count++
			lone = crashes[i]
		}
	}
	if count == 1 {
		return lone
	}
	collected := make(map[int]ContCrash, count)
	for i, k := range kinds {
		if k == recCrash {
			collected[i] = crashes[i]
		}
	}
	return CollectedCrash(collected)
}

// Either runs l and r under policy, emitting Then on the first success.
// If neither succeeds, it emits Else(combineErr(el, er)) when both produced
// an Else, or propagates whichever crash occurred (merging if both did).
func Either[E, F, A any](l, r Cont[E, F, A], combineErr func(F, F) F, policy OkPolicy[A]) Cont[E, F, A] {
	switch policy.kind {
	case policySequence:
		return eitherSequence(l, r, combineErr)
	case policyQuitFast:
		return eitherQuitFast(l, r, combineErr)
	default:
		return eitherRunAll(l, r, combineErr, policy.combine, policy.favorCrash)
	}
}

func eitherSequence[E, F, A any](l, r Cont[E, F, A], combineErr func(F, F) F) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		l.run(rt, Observer[F, A]{
			OnThen: obs.OnThen,
			OnElse: func(el F) {
				if rt.IsCancelled() {
					return
				}
				r.run(rt, Observer[F, A]{
					OnThen: obs.OnThen,
					OnCrash: obs.OnCrash,
					OnElse: func(er F) {
						ce, crash, panicked := safeInvoke(func() F { return combineErr(el, er) })
						if panicked {
							obs.OnCrash(crash)
							return
						}
						obs.OnElse(ce)
					},
				})
			},
			OnCrash: func(cl ContCrash) {
				if rt.IsCancelled() {
					return
				}
				r.run(rt, Observer[F, A]{
					OnThen:  obs.OnThen,
					OnElse:  func(F) { obs.OnCrash(cl) },
					OnCrash: func(cr ContCrash) { obs.OnCrash(MergedCrash(cl, cr)) },
				})
			},
		})
	})
}

func eitherQuitFast[E, F, A any](l, r Cont[E, F, A], combineErr func(F, F) F) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		token := newChildCancelToken(rt.cancelToken())
		child := rt.withToken(token)

		var mu sync.Mutex
		var decided, haveL, haveR bool
		var lKind, rKind recKind
		var lErr, rErr F
		var lCrash, rCrash ContCrash

		finish := func(f func()) {
			mu.Lock()
			if decided {
				mu.Unlock()
				return
			}
			decided = true
			mu.Unlock()
			token.Cancel()
			f()
		}
		resolveBothFailed := func() {
			switch {
			case lKind == recCrash && rKind == recCrash:
				finish(func() { obs.OnCrash(MergedCrash(lCrash, rCrash)) })
			case lKind == recCrash:
				finish(func() { obs.OnCrash(lCrash) })
			case rKind == recCrash:
				finish(func() { obs.OnCrash(rCrash) })
			default:
				finish(func() {
					ce, crash, panicked := safeInvoke(func() F { return combineErr(lErr, rErr) })
					if panicked {
						obs.OnCrash(crash)
						return
					}
					obs.OnElse(ce)
				})
			}
		}

		l.run(child, Observer[F, A]{
			OnThen: func(a A) { finish(func() { obs.OnThen(a) }) },
			OnElse: func(f F) {
				mu.Lock()
				if decided {
					mu.Unlock()
					return
				}
				haveL, lKind, lErr = true, recElse, f
				ready := haveR
				mu.Unlock()
				if ready {
					resolveBothFailed()
				}
			},
			OnCrash: func(c ContCrash) {
				mu.Lock()
				if decided {
					mu.Unlock()
					return
				}
				haveL, lKind, lCrash = true, recCrash, c
				ready := haveR
				mu.Unlock()
				if ready {
					resolveBothFailed()
				}
			},
		})
		r.run(child, Observer[F, A]{
			OnThen: func(a A) { finish(func() { obs.OnThen(a) }) },
			OnElse: func(f F) {
				mu.Lock()
				if decided {
					mu.Unlock()
					return
				}
				haveR, rKind, rErr = true, recElse, f
				ready := haveL
				mu.Unlock()
				if ready {
					resolveBothFailed()
				}
			},
			OnCrash: func(c ContCrash) {
				mu.Lock()
				if decided {
					mu.Unlock()
					return
				}
				haveR, rKind, rCrash = true, recCrash, c
				ready := haveL
				mu.Unlock()
				if ready {
					resolveBothFailed()
				}
			},
		})
	})
}

func eitherRunAll[E, F, A any](l, r Cont[E, F, A], combineErr func(F, F) F, combineThen func(A, A) A, favorCrash bool) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		var mu sync.Mutex
		var haveL, haveR bool
		var lKind, rKind recKind
		var lThen, rThen A
		var lErr, rErr F
		var lCrash, rCrash ContCrash
		var lSeq, rSeq uint64
		var seq uint64

		resolve := func() {
			thenCount := boolCount(lKind == recThen, rKind == recThen)
			crashCount := boolCount(lKind == recCrash, rKind == recCrash)
			if favorCrash && crashCount > 0 {
				if crashCount == 2 {
					if lSeq <= rSeq {
						obs.OnCrash(MergedCrash(lCrash, rCrash))
					} else {
						obs.OnCrash(MergedCrash(rCrash, lCrash))
					}
					return
				}
				if lKind == recCrash {
					obs.OnCrash(lCrash)
				} else {
					obs.OnCrash(rCrash)
				}
				return
			}
			if thenCount == 2 {
				v, crash, panicked := safeInvoke(func() A { return combineThen(lThen, rThen) })
				if panicked {
					obs.OnCrash(crash)
					return
				}
				obs.OnThen(v)
				return
			}
			if thenCount == 1 {
				if lKind == recThen {
					obs.OnThen(lThen)
				} else {
					obs.OnThen(rThen)
				}
				return
			}
			elseCount := boolCount(lKind == recElse, rKind == recElse)
			if elseCount == 2 {
				v, crash, panicked := safeInvoke(func() F {
					if lSeq <= rSeq {
						return combineErr(lErr, rErr)
					}
					return combineErr(rErr, lErr)
				})
				if panicked {
					obs.OnCrash(crash)
					return
				}
				obs.OnElse(v)
				return
			}
			if elseCount == 1 {
				if lKind == recElse {
					obs.OnElse(lErr)
				} else {
					obs.OnElse(rErr)
				}
				return
			}
			if lSeq <= rSeq {
				obs.OnCrash(MergedCrash(lCrash, rCrash))
			} else {
				obs.OnCrash(MergedCrash(rCrash, lCrash))
			}
		}

		l.run(rt, Observer[F, A]{
			OnThen: func(a A) {
				mu.Lock()
				lKind, lThen, lSeq = recThen, a, seq
				seq++
				haveL = true
				ready := haveR
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnElse: func(f F) {
				mu.Lock()
				lKind, lErr, lSeq = recElse, f, seq
				seq++
				haveL = true
				ready := haveR
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnCrash: func(c ContCrash) {
				mu.Lock()
				lKind, lCrash, lSeq = recCrash, c, seq
				seq++
				haveL = true
				ready := haveR
				mu.Unlock()
				if ready {
					resolve()
				}
			},
		})
		r.run(rt, Observer[F, A]{
			OnThen: func(a A) {
				mu.Lock()
				rKind, rThen, rSeq = recThen, a, seq
				seq++
				haveR = true
				ready := haveL
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnElse: func(f F) {
				mu.Lock()
				rKind, rErr, rSeq = recElse, f, seq
				seq++
				haveR = true
				ready := haveL
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnCrash: func(c ContCrash) {
				mu.Lock()
				rKind, rCrash, rSeq = recCrash, c, seq
				seq++
				haveR = true
				ready := haveL
				mu.Unlock()
				if ready {
					resolve()
				}
			},
		})
	})
}

func boolCount(a, b bool) int {
	n := 0
	if a {
		n++
	}
	if b {
		n++
	}
	return n
}

// Any generalizes Either to an ordered list: it emits Then on the first
// success (or, under RunAll, the combination of every success), and
// Else(errs) with errs in original list order when every operand fails.
func Any[E, F, A any](list []Cont[E, F, A], policy OkPolicy[A]) Cont[E, []F, A] {
	items := append([]Cont[E, F, A](nil), list...)
	switch policy.kind {
	case policySequence:
		return anySequence(items)
	case policyQuitFast:
		return anyQuitFast(items)
	default:
		return anyRunAll(items, policy.combine, policy.favorCrash)
	}
}

func anySequence[E, F, A any](items []Cont[E, F, A]) Cont[E, []F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[[]F, A]) {
		errs := make([]F, 0, len(items))
		i := 0
		driveLoop(rt.IsCancelled, func(next func()) {
			if i >= len(items) {
				obs.OnElse(append([]F(nil), errs...))
				return
			}
			idx := i
			items[idx].run(rt, Observer[F, A]{
				OnThen:  obs.OnThen,
				OnCrash: obs.OnCrash,
				OnElse: func(f F) {
					errs = append(errs, f)
					i++
					next()
				},
			})
		})
	})
}

func anyQuitFast[E, F, A any](items []Cont[E, F, A]) Cont[E, []F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[[]F, A]) {
		n := len(items)
		if n == 0 {
			obs.OnElse([]F{})
			return
		}
		token := newChildCancelToken(rt.cancelToken())
		child := rt.withToken(token)
		var mu sync.Mutex
		var decided bool
		errs := make([]F, n)
		have := make([]bool, n)
		remaining := n

		finish := func(f func()) {
			mu.Lock()
			if decided {
				mu.Unlock()
				return
			}
			decided = true
			mu.Unlock()
			token.Cancel()
			f()
		}

		for i := range items {
			idx := i
			items[idx].run(child, Observer[F, A]{
				OnThen:  func(a A) { finish(func() { obs.OnThen(a) }) },
				OnCrash: func(c ContCrash) { finish(func() { obs.OnCrash(c) }) },
				OnElse: func(f F) {
					mu.Lock()
					if decided {
						mu.Unlock()
						return
					}
					if !have[idx] {
						have[idx], errs[idx] = true, f
						remaining--
					}
					done := remaining == 0
					out := append([]F(nil), errs...)
					mu.Unlock()
					if done {
						finish(func() { obs.OnElse(out) })
					}
				},
			})
		}
	})
}

func anyRunAll[E, F, A any](items []Cont[E, F, A], combineThen func(A, A) A, favorCrash bool) Cont[E, []F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[[]F, A]) {
		n := len(items)
		if n == 0 {
			obs.OnElse([]F{})
			return
		}
		var mu sync.Mutex
		kinds := make([]recKind, n)
		thens := make([]A, n)
		elses := make([]F, n)
		crashes := make([]ContCrash, n)
		remaining := n

		resolve := func() {
			thenCount, elseCount, crashCount := 0, 0, 0
			for _, k := range kinds {
				switch k {
				case recThen:
					thenCount++
				case recElse:
					elseCount++
				case recCrash:
					crashCount++
				}
			}
			if favorCrash && crashCount > 0 {
				obs.OnCrash(collectCrashes(kinds, crashes))
				return
			}
			if thenCount > 0 {
				var combined A
				first := true
				for i, k := range kinds {
					if k != recThen {
						continue
					}
					if first {
						combined, first = thens[i], false
						continue
					}
					v, crash, panicked := safeInvoke(func() A { return combineThen(combined, thens[i]) })
					if panicked {
						obs.OnCrash(crash)
						return
					}
					combined = v
				}
				obs.OnThen(combined)
				return
			}
			if elseCount > 0 {
				errs := make([]F, 0, elseCount)
				for i, k := range kinds {
					if k == recElse {
						errs = append(errs, elses[i])
					}
				}
				obs.OnElse(errs)
				return
			}
			obs.OnCrash(collectCrashes(kinds, crashes))
		}

		for i := range items {
			idx := i
			items[idx].run(rt, Observer[F, A]{
				OnThen: func(a A) {
					mu.Lock()
					kinds[idx], thens[idx] = recThen, a
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolve()
					}
				},
				OnElse: func(f F) {
					mu.Lock()
					kinds[idx], elses[idx] = recElse, f
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolve()
					}
				},
				OnCrash: func(c ContCrash) {
					mu.Lock()
					kinds[idx], crashes[idx] = recCrash, c
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolve()
					}
				},
			})
		}
	})
}

// Coalesce is Either's crash-fusing counterpart: when neither operand
// succeeds, favorElse decides whether an Else outcome takes priority over a
// sibling Crash (Either, by contrast, propagates the crash under Sequence
// and QuitFast and leaves the choice to favorCrash under RunAll).
func Coalesce[E, F, A any](l, r Cont[E, F, A], policy CrashPolicy[F, A]) Cont[E, F, A] {
	switch policy.kind {
	case policySequence:
		return coalesceSequence(l, r, policy.favorElse, policy.combineElse)
	case policyQuitFast:
		return coalesceQuitFast(l, r, policy.favorElse, policy.combineElse)
	default:
		return coalesceRunAll(l, r, policy)
	}
}

func coalesceSequence[E, F, A any](l, r Cont[E, F, A], favorElse bool, combineElse func(F, F) F) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		settle := func(lKind recKind, lErr F, lCrash ContCrash) Observer[F, A] {
			return Observer[F, A]{
				OnThen: obs.OnThen,
				OnElse: func(er F) {
					if favorElse && lKind == recCrash {
						obs.OnElse(er)
						return
					}
					if lKind == recElse {
						ce, crash, panicked := safeInvoke(func() F { return combineElse(lErr, er) })
						if panicked {
							obs.OnCrash(crash)
							return
						}
						obs.OnElse(ce)
						return
					}
					obs.OnCrash(lCrash)
				},
				OnCrash: func(cr ContCrash) {
					if lKind == recElse && favorElse {
						obs.OnElse(lErr)
						return
					}
					if lKind == recCrash {
						obs.OnCrash(MergedCrash(lCrash, cr))
						return
					}
					obs.OnCrash(cr)
				},
			}
		}
		l.run(rt, Observer[F, A]{
			OnThen: obs.OnThen,
			OnElse: func(el F) {
				if rt.IsCancelled() {
					return
				}
				r.run(rt, settle(recElse, el, ContCrash{}))
			},
			OnCrash: func(cl ContCrash) {
				if rt.IsCancelled() {
					return
				}
				r.run(rt, settle(recCrash, *new(F), cl))
			},
		})
	})
}

func coalesceQuitFast[E, F, A any](l, r Cont[E, F, A], favorElse bool, combineElse func(F, F) F) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		token := newChildCancelToken(rt.cancelToken())
		child := rt.withToken(token)

		var mu sync.Mutex
		var decided, haveL, haveR bool
		var lKind, rKind recKind
		var lErr, rErr F
		var lCrash, rCrash ContCrash

		finish := func(f func()) {
			mu.Lock()
			if decided {
				mu.Unlock()
				return
			}
			decided = true
			mu.Unlock()
			token.Cancel()
			f()
		}
		resolveBothFailed := func() {
			finish(func() {
				switch {
				case lKind == recElse && rKind == recElse:
					ce, crash, panicked := safeInvoke(func() F { return combineElse(lErr, rErr) })
					if panicked {
						obs.OnCrash(crash)
						return
					}
					obs.OnElse(ce)
				case favorElse && lKind == recElse:
					obs.OnElse(lErr)
				case favorElse && rKind == recElse:
					obs.OnElse(rErr)
				case lKind == recCrash && rKind == recCrash:
					obs.OnCrash(MergedCrash(lCrash, rCrash))
				case lKind == recCrash:
					obs.OnCrash(lCrash)
				default:
					obs.OnCrash(rCrash)
				}
			})
		}
		l.run(child, Observer[F, A]{
			OnThen: func(a A) { finish(func() { obs.OnThen(a) }) },
			OnElse: func(f F) {
				mu.Lock()
				if decided {
					mu.Unlock()
					return
				}
				haveL, lKind, lErr = true, recElse, f
				ready := haveR
				mu.Unlock()
				if ready {
					resolveBothFailed()
				}
			},
			OnCrash: func(c ContCrash) {
				mu.Lock()
				if decided {
					mu.Unlock()
					return
				}
				haveL, lKind, lCrash = true, recCrash, c
				ready := haveR
				mu.Unlock()
				if ready {
					resolveBothFailed()
				}
			},
		})
		r.run(child, Observer[F, A]{
			OnThen: func(a A) { finish(func() { obs.OnThen(a) }) },
			OnElse: func(f F) {
				mu.Lock()
				if decided {
					mu.Unlock()
					return
				}
				haveR, rKind, rErr = true, recElse, f
				ready := haveL
				mu.Unlock()
				if ready {
					resolveBothFailed()
				}
			},
			OnCrash: func(c ContCrash) {
				mu.Lock()
				if decided {
					mu.Unlock()
					return
				}
				haveR, rKind, rCrash = true, recCrash, c
				ready := haveL
				mu.Unlock()
				if ready {
					resolveBothFailed()
				}
			},
		})
	})
}

func coalesceRunAll[E, F, A any](l, r Cont[E, F, A], policy CrashPolicy[F, A]) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		var mu sync.Mutex
		var haveL, haveR bool
		var lKind, rKind recKind
		var lThen, rThen A
		var lErr, rErr F
		var lCrash, rCrash ContCrash
		var lSeq, rSeq uint64
		var seq uint64

		resolve := func() {
			thenCount := boolCount(lKind == recThen, rKind == recThen)
			if thenCount == 2 {
				v, crash, panicked := safeInvoke(func() A { return policy.combineThen(lThen, rThen) })
				if panicked {
					obs.OnCrash(crash)
					return
				}
				obs.OnThen(v)
				return
			}
			if thenCount == 1 {
				if lKind == recThen {
					obs.OnThen(lThen)
				} else {
					obs.OnThen(rThen)
				}
				return
			}
			elseCount := boolCount(lKind == recElse, rKind == recElse)
			if elseCount == 2 {
				v, crash, panicked := safeInvoke(func() F {
					if lSeq <= rSeq {
						return policy.combineElse(lErr, rErr)
					}
					return policy.combineElse(rErr, lErr)
				})
				if panicked {
					obs.OnCrash(crash)
					return
				}
				obs.OnElse(v)
				return
			}
			if elseCount == 1 {
				if policy.favorElse {
					if lKind == recElse {
						obs.OnElse(lErr)
					} else {
						obs.OnElse(rErr)
					}
					return
				}
				if lKind == recCrash {
					obs.OnCrash(lCrash)
				} else {
					obs.OnCrash(rCrash)
				}
				return
			}
			if lSeq <= rSeq {
				obs.OnCrash(MergedCrash(lCrash, rCrash))
			} else {
				obs.OnCrash(MergedCrash(rCrash, lCrash))
			}
		}

		l.run(rt, Observer[F, A]{
			OnThen: func(a A) {
				mu.Lock()
				lKind, lThen, lSeq = recThen, a, seq
				seq++
				haveL = true
				ready := haveR
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnElse: func(f F) {
				mu.Lock()
				lKind, lErr, lSeq = recElse, f, seq
				seq++
				haveL = true
				ready := haveR
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnCrash: func(c ContCrash) {
				mu.Lock()
				lKind, lCrash, lSeq = recCrash, c, seq
				seq++
				haveL = true
				ready := haveR
				mu.Unlock()
				if ready {
					resolve()
				}
			},
		})
		r.run(rt, Observer[F, A]{
			OnThen: func(a A) {
				mu.Lock()
				rKind, rThen, rSeq = recThen, a, seq
				seq++
				haveR = true
				ready := haveL
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnElse: func(f F) {
				mu.Lock()
				rKind, rErr, rSeq = recElse, f, seq
				seq++
				haveR = true
				ready := haveL
				mu.Unlock()
				if ready {
					resolve()
				}
			},
			OnCrash: func(c ContCrash) {
				mu.Lock()
				rKind, rCrash, rSeq = recCrash, c, seq
				seq++
				haveR = true
				ready := haveL
				mu.Unlock()
				if ready {
					resolve()
				}
			},
		})
	})
}

// Converge generalizes Coalesce to an ordered list, the crash-fusing
// counterpart of Any.
func Converge[E, F, A any](list []Cont[E, F, A], policy CrashPolicy[F, A]) Cont[E, F, A] {
	items := append([]Cont[E, F, A](nil), list...)
	switch policy.kind {
	case policySequence:
		return convergeSequence(items, policy.favorElse, policy.combineElse)
	case policyQuitFast:
		return convergeQuitFast(items, policy.favorElse, policy.combineElse)
	default:
		return convergeRunAll(items, policy)
	}
}

func convergeSequence[E, F, A any](items []Cont[E, F, A], favorElse bool, combineElse func(F, F) F) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		var elseAcc F
		haveElse := false
		var crashAcc ContCrash
		haveCrash := false
		i := 0
		driveLoop(rt.IsCancelled, func(next func()) {
			if i >= len(items) {
				switch {
				case haveElse && (favorElse || !haveCrash):
					obs.OnElse(elseAcc)
				case haveCrash:
					obs.OnCrash(crashAcc)
				default:
					obs.OnElse(elseAcc)
				}
				return
			}
			idx := i
			items[idx].run(rt, Observer[F, A]{
				OnThen: obs.OnThen,
				OnElse: func(f F) {
					if haveElse {
						e, crash, panicked := safeInvoke(func() F { return combineElse(elseAcc, f) })
						if panicked {
							obs.OnCrash(crash)
							return
						}
						elseAcc = e
					} else {
						elseAcc, haveElse = f, true
					}
					i++
					next()
				},
				OnCrash: func(c ContCrash) {
					if haveCrash {
						crashAcc = MergedCrash(crashAcc, c)
					} else {
						crashAcc, haveCrash = c, true
					}
					i++
					next()
				},
			})
		})
	})
}

func convergeQuitFast[E, F, A any](items []Cont[E, F, A], favorElse bool, combineElse func(F, F) F) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		n := len(items)
		if n == 0 {
			obs.OnCrash(NormalCrash(errEmptyConverge))
			return
		}
		token := newChildCancelToken(rt.cancelToken())
		child := rt.withToken(token)
		var mu sync.Mutex
		var decided bool
		kinds := make([]recKind, n)
		elses := make([]F, n)
		crashes := make([]ContCrash, n)
		remaining := n

		finish := func(f func()) {
			mu.Lock()
			if decided {
				mu.Unlock()
				return
			}
			decided = true
			mu.Unlock()
			token.Cancel()
			f()
		}
		resolveAllFailed := func() {
			var elseAcc F
			haveElse := false
			var crashAcc ContCrash
			haveCrash := false
			for i, k := range kinds {
				switch k {
				case recElse:
					if haveElse {
						elseAcc = combineElse(elseAcc, elses[i])
					} else {
						elseAcc, haveElse = elses[i], true
					}
				case recCrash:
					if haveCrash {
						crashAcc = MergedCrash(crashAcc, crashes[i])
					} else {
						crashAcc, haveCrash = crashes[i], true
					}
				}
			}
			finish(func() {
				switch {
				case haveElse && (favorElse || !haveCrash):
					obs.OnElse(elseAcc)
				case haveCrash:
					obs.OnCrash(crashAcc)
				default:
					obs.OnElse(elseAcc)
				}
			})
		}

		for i := range items {
			idx := i
			items[idx].run(child, Observer[F, A]{
				OnThen: func(a A) { finish(func() { obs.OnThen(a) }) },
				OnElse: func(f F) {
					mu.Lock()
					if decided {
						mu.Unlock()
						return
					}
					kinds[idx], elses[idx] = recElse, f
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolveAllFailed()
					}
				},
				OnCrash: func(c ContCrash) {
					mu.Lock()
					if decided {
						mu.Unlock()
						return
					}
					kinds[idx], crashes[idx] = recCrash, c
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolveAllFailed()
					}
				},
			})
		}
	})
}

func convergeRunAll[E, F, A any](items []Cont[E, F, A], policy CrashPolicy[F, A]) Cont[E, F, A] {
	return FromRun(func(rt *Runtime[E], obs Observer[F, A]) {
		n := len(items)
		if n == 0 {
			obs.OnCrash(NormalCrash(errEmptyConverge))
			return
		}
		var mu sync.Mutex
		kinds := make([]recKind, n)
		thens := make([]A, n)
		elses := make([]F, n)
		crashes := make([]ContCrash, n)
		remaining := n

		resolve := func() {
			thenCount, elseCount := 0, 0
			for _, k := range kinds {
				switch k {
				case recThen:
					thenCount++
				case recElse:
					elseCount++
				}
			}
			if thenCount > 0 {
				var combined A
				first := true
				for i, k := range kinds {
					if k != recThen {
						continue
					}
					if first {
						combined, first = thens[i], false
						continue
					}
					v, crash, panicked := safeInvoke(func() A { return policy.combineThen(combined, thens[i]) })
					if panicked {
						obs.OnCrash(crash)
						return
					}
					combined = v
				}
				obs.OnThen(combined)
				return
			}
			if elseCount > 0 && policy.favorElse {
				var combined F
				first := true
				for i, k := range kinds {
					if k != recElse {
						continue
					}
					if first {
						combined, first = elses[i], false
						continue
					}
					v, crash, panicked := safeInvoke(func() F { return policy.combineElse(combined, elses[i]) })
					if panicked {
						obs.OnCrash(crash)
						return
					}
					combined = v
				}
				obs.OnElse(combined)
				return
			}
			crashCount := n - thenCount - elseCount
			if crashCount > 0 {
				obs.OnCrash(collectCrashes(kinds, crashes))
				return
			}
			var combined F
			first := true
			for i, k := range kinds {
				if k != recElse {
					continue
				}
				if first {
					combined, first = elses[i], false
					continue
				}
				combined = policy.combineElse(combined, elses[i])
			}
			obs.OnElse(combined)
		}

		for i := range items {
			idx := i
			items[idx].run(rt, Observer[F, A]{
				OnThen: func(a A) {
					mu.Lock()
					kinds[idx], thens[idx] = recThen, a
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolve()
					}
				},
				OnElse: func(f F) {
					mu.Lock()
					kinds[idx], elses[idx] = recElse, f
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolve()
					}
				},
				OnCrash: func(c ContCrash) {
					mu.Lock()
					kinds[idx], crashes[idx] = recCrash, c
					remaining--
					done := remaining == 0
					mu.Unlock()
					if done {
						resolve()
					}
				},
			})
		}
	})
}
