// Package auth provides authentication and authorisation for Frontdesk Core.
//
// Two kinds of caller exist:
//   - receptionists, who log in with a username and password
//   - a single admin identity, reached only through a shared-secret login
//     and bootstrapped on first use
//
// Successful authentication issues an opaque 256-bit session token. The
// store keeps only the token's SHA-256 digest, and every protected request
// passes through Gate.Authorize, which loads the session, enforces expiry,
// checks the owning account is still present and active, and applies the
// role requirement of the operation.
//
// Passwords are hashed with Argon2id. Hashes in the older
// "saltHex:keyHex" PBKDF2-SHA512 format are still verified.
package auth
