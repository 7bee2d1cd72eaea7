// Package identity provides the credential and relationship core of a small
// social application: password and token digests, remember me sessions,
// activation and password reset workflows, and a follow graph that drives a
// newest first feed.
//
// Digests:
//   - SecretDigester hashes every secret the package stores (passwords,
//     remember, activation and reset tokens). Plaintext tokens are returned
//     once to the caller and never persisted. A malformed stored digest
//     surfaces as ErrCorruptDigest, never as a wrong password.
//
// Accounts and sessions:
//   - AccountService validates and persists accounts. Emails are stored lower
//     cased and compared case-insensitively.
//   - Authenticator logs accounts in and applies the remember me policy via
//     RememberManager. ParseRememberMe turns the raw form value into a
//     RememberChoice at the boundary.
//
// Workflows:
//   - ActivationWorkflow moves an account from unactivated to activated once.
//   - ResetWorkflow issues reset tokens that expire after Config.ResetWindow
//     and are cleared when a new password is committed.
//
// Activity sinks:
//   - ActivitySink receives audit events from every service. Sinks run best
//     effort: errors are logged and never returned to the caller.
//
// Persistence lives behind the Store interface; the repository subpackage
// implements it with Bun.
package identity
