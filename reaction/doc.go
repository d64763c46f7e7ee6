// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package reaction picks reaction media for the intern's replies.
//
// A [Catalog] maps emotion names to media URLs and is read once at
// startup from a JSONC file. A [Bag] draws from the catalog without
// repeats: each emotion cycles through its full set in a shuffled
// order before any URL comes up again.
package reaction
