// Package browser defines the session driver used by the automation and
// implements it on top of Chrome via the DevTools protocol.
//
// A Driver is one live browser session. It is opened by an Opener with a
// download directory, used by a single worker goroutine and closed exactly
// once. Close is idempotent so it can be deferred on every exit path.
package browser
