// Package auth resolves bearer tokens to user accounts.
//
// Tokens have the format adk_<base64url(32 random bytes)>. Only the
// SHA256 hash of a token is stored; the plaintext is returned once at
// creation. A token resolves to a user only while it is unexpired,
// unrevoked, and its user account is active.
package auth
