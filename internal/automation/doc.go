// Package automation drives a browser session through the PG&E portal to
// export Green Button usage data.
//
// The Authenticator signs in, the Sequencer walks from the dashboard to
// the Green Button export and triggers the download, and the Runner ties
// both to one browser session per run. The runner reports progress as
// events, always finishes with exactly one result event and always
// releases the session.
package automation
