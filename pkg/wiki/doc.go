// Package wiki manages community-maintained API documentation pages and
// enforces per-tier edit quotas.
//
// An edit quota bounds the size of a single edit both absolutely (a
// character cap) and relatively (a fraction of the original document).
// The effective limit is the tighter of the two. Quotas grow with the
// user's grade tier and never shrink as the tier rises; admins are
// unbounded. Edit sizes are measured in Unicode scalars, not bytes.
//
// The quota for an edit is derived from the tier the user held before
// the edit's own point award, so an edit can never widen its own quota.
package wiki
