// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the intern configuration file.
//
// Configuration comes from exactly one YAML file, named by the
// --config flag or the INTERN_CONFIG environment variable. There is no
// search path and no layering of environment variables over file
// values: what the file says is what runs. String fields may reference
// the environment explicitly with ${VAR} or ${VAR:-default}, which is
// how API keys are usually supplied:
//
//	llm:
//	  api_key: ${OPENROUTER_API_KEY}
//
// Unknown keys are rejected so that a misspelled section does not
// silently fall back to defaults.
//
// The remote credential can come from three places, checked in order:
// remote.password_file, remote.sealed_password (decrypted with the age
// identity in remote.identity_file), or remote.password. See
// [RemoteConfig.Credential].
package config
