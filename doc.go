// Package social implements server-side "login with a social provider" over
// the OAuth2 authorization-code grant.
//
// The flow is split into small injectable pieces:
//   - Connector abstracts one provider's wire dialect (authorization URL,
//     code exchange, user-info fetch, identity lookup). Concrete connectors
//     live under providers/.
//   - Registry maps provider codes to Connector instances.
//   - StateStore holds short-lived CSRF state tokens in memory.
//   - Providers / Identities are bun-backed repositories for registered
//     client credentials and for (provider, uid) -> user mappings.
//   - Flow is the callback orchestrator: it validates state, exchanges the
//     code, normalizes the identity, resolves or creates the local user,
//     registers the identity mapping, and establishes a session, all
//     inside one database transaction.
//
// The local user store and the session layer stay outside this package;
// they are consumed through the UserResolver and SessionManager interfaces.
// HTTPController wires the flow to go-router routes.
package social
