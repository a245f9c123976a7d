// Package download detects files the browser finished writing into the
// download directory during a run.
package download
