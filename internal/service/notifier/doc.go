// Package notifier sends fire-and-forget HTTP notifications to the rig.
//
// Notifications are queued and delivered in order by a single worker, so a
// hold's begin request always leaves before its end request. Delivery errors
// are logged and otherwise ignored.
package notifier
