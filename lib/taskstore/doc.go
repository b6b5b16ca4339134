// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskstore owns persisted task records, scoped per user.
// Every operation takes the caller's verified user identity and only
// sees rows with that owner. Not-found and not-owned are deliberately
// one error, ErrNotFound — a caller probing foreign task ids learns
// nothing about whether they exist.
//
// Mutations are atomic at whole-record granularity: an update applies
// all of its patch fields in one statement inside one transaction, so
// two concurrent updates to the same id cannot interleave field by
// field. The last committed write wins.
package taskstore
