// Package notify delivers user-facing notifications for grade upgrades
// and quota rejections. Delivery is best-effort and never fails the
// operation that produced the event.
package notify
