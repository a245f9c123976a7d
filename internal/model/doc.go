// Package model defines the core data structures shared by the automation,
// storage and reporting layers.
//
// This package contains the following main types:
//   - Credentials: the username/password pair held in memory for one run
//   - DateRange: the requested export window and its portal text format
//   - Progress: the milestone counter reported as a percentage
//   - Event: progress ticks and the terminal result sent to the front-end
//   - Run: the record of one download run, persisted and reported
//
// Models live in their own package so that automation, database and report
// can share them without import cycles. Everything except Credentials is
// serializable to JSON.
package model
