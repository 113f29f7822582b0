// Package middleware provides HTTP middleware for authentication and
// request identification.
package middleware
