// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed keeps the remote-shell password encrypted at rest.
//
// The operator runs "intern keygen" once to create an age x25519
// identity file, then "intern seal" to encrypt the password to that
// identity's public key. The base64 ciphertext goes in the config file
// as remote.sealed_password; at startup the identity is read and the
// plaintext is decrypted straight into a [secret.Buffer].
package sealed
