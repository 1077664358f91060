// Package credentials issues, verifies, and refreshes signed session
// credentials for a user-account service, and manages the password
// lifecycle (hashing, verification, reset) without ever persisting or
// transmitting plaintext secrets.
//
// Tokens:
//   - Every token is a purpose-scoped JWT (access, refresh, or
//     password_reset). Each purpose has its own lifetime and signing key;
//     the purpose is also carried as an explicit claim so that a key
//     reused across purposes cannot let one token type impersonate
//     another. Tokens are never stored server side: validity is a pure
//     function of the token bytes, the signing key, and the clock.
//   - LifetimePolicy centralizes the purpose -> (key, lifetime) table so
//     issuance and verification can never desynchronize.
//
// Credential verification:
//   - Verifier orchestrates login, token-based identity resolution,
//     refresh, password reset, and re-authenticated email changes on top
//     of a Directory (lookup/persist boundary) and a Notifier (out-of-band
//     reset delivery). Failure outcomes for email-existence-sensitive
//     operations are deliberately generic; the distinction between "no
//     such account" and "wrong password" exists only in logs.
//
// Storage:
//   - Accounts are persisted via Bun through the shared repository
//     helpers. The Accounts repository satisfies the Directory boundary
//     the verifier consumes, so alternative directories can be plugged in
//     without touching the core.
package credentials
