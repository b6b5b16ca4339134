// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for
// testability. Production code accepts a Clock and passes Real();
// tests pass Fake() and drive time with Advance, making expiry and
// timeout behavior deterministic.
package clock
