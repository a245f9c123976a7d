// Package report renders download runs and run history.
//
// Three writers share the Writer interface:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: structured output for scripts
//   - MarkdownWriter: GitHub flavored Markdown with tables and alerts
//
// Run records never carry credentials, so reports are safe to share.
package report
