// package auth manages per-user provider credentials.
//
// The [Store] holds one immutable [models.CredentialSet] snapshot per user
// and funnels every token refresh through a singleflight group, so a burst
// of concurrent callers during expiry produces exactly one refresh call per
// (user, provider). Providers may invalidate a refresh token after first
// use, which makes duplicate refreshes destructive rather than just wasteful.
package auth
