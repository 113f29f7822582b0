// Package api exposes the APIDock HTTP API.
//
// Routes:
//
//	GET  /api/v1/tiers                     grade tier table with quotas
//	GET  /api/v1/apis                      documented API names
//	GET  /api/v1/apis/{api}/wiki           read a wiki page
//	PUT  /api/v1/apis/{api}/wiki           submit a wiki edit (auth)
//	GET  /api/v1/users/{id}/reputation     score, tier, progress
//	GET  /api/v1/users/{id}/events         activity event log
//	POST /api/v1/users/{id}/points         record an action (admin)
//	POST /api/v1/users/{id}/reconcile      repair score from events (admin)
//
// Over-quota edits return 403 with a structured payload naming the
// violated bound (absolute or relative) and the measured versus allowed
// sizes.
package api
