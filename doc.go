// Package identity implements account registration and credential
// lifecycle management: signup with email-ownership confirmation,
// password login, access/refresh token issuance, refresh rotation, and
// logout.
//
// State machine:
//   - A user record starts unverified. ConfirmEmail flips it to
//     verified exactly once via the email fingerprint token; the flag
//     never reverts.
//   - A verified record is authenticated while it holds a hash of the
//     currently valid refresh token. Login and RefreshTokens overwrite
//     that hash, rotating out any prior refresh token; Logout clears
//     it.
//
// Secrets discipline:
//   - Passwords and refresh-token secrets are stored only as bcrypt
//     digests and compared through constant-time verification. The two
//     digest fields are never cross-compared.
//   - The confirmation token is a deterministic fingerprint of the
//     email address, so confirmation links carry no plaintext address.
//
// All persistence goes through the UserStore interface and all mail
// delivery through Mailer. The engine holds no process-wide mutable
// state; atomicity for the storage invariants (unique email, single
// valid refresh hash) is delegated to the store.
package identity
