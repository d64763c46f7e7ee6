// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the injectable time source used by the bridge
// timeout and the health sampler.
//
// Production code holds a Clock and receives Real(). Tests hand in
// Fake(epoch) and move time with Advance, so a 30-second command
// deadline fires in microseconds and in a known order relative to the
// other finalization sources.
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	b := bridge.New(bridge.Config{Clock: fake, ...})
//	go b.Run("sleep 60")
//	fake.WaitForTimers(1)
//	fake.Advance(30 * time.Second)
//
// WaitForTimers closes the window between a goroutine arming a timer
// and the test advancing past it.
package clock
