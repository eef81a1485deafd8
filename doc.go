// Package gqlauth provides directive-based authorization for query-language
// APIs (JWT issuance and verification, field guards, account lifecycle) plus
// lifecycle extension points for downstream registration workflows.
//
// Field guards:
//   - Directives (TokenRequired, IsAuthenticated, IsVerified, HasPermission)
//     attach to named fields and run in declared order before the resolver.
//     The first denial wins and the resolver never executes. Every field
//     yields a Result that carries either resolver data or an AuthError with
//     a stable wire code, so clients can branch without parsing messages.
//   - Directives are plain values: invoke ResolvePermission directly with a
//     constructed context to test a guard without any schema machinery.
//
// Tokens:
//   - TokenService signs HS256 credentials in four flavors (access, refresh,
//     activation, password reset). Verification checks signature, expiry, and
//     the shared RevocationStore, then resolves the user against live account
//     storage so permission and archival changes take effect immediately.
//   - One-time tokens consume themselves on redemption by revoking their
//     identifier; every redemption failure collapses to INVALID_TOKEN.
//
// User lifecycle:
//   - Users carry an AccountStatus persisted via Bun. AccountStateMachine
//     centralizes the transition graph (unverified to verified or archived,
//     archived terminal), timestamp handling, hooks, and persistence.
//   - Command handlers (registration, login, verification, profile update,
//     password change and reset, archival) wrap repository transactions and
//     emit best-effort notifications through an async Dispatcher so delivery
//     failures are logged without surfacing to the caller.
package gqlauth
