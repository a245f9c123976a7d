package config

import "errors"

// Configuration validation errors, returned by Config.Validate and
// File.Validate.
var (
	// ErrNoUsername is returned when no portal username is configured.
	ErrNoUsername = errors.New("no username: use --username or set PGE_USERNAME")

	// ErrNoPassword is returned when no portal password is configured.
	ErrNoPassword = errors.New("no password: use --password-stdin or set PGE_PASSWORD")

	// ErrNoDownloadDir is returned when the download directory is empty.
	ErrNoDownloadDir = errors.New("no download directory: use --dir")

	// ErrInvalidDateRange is returned when the end date is before the
	// start date.
	ErrInvalidDateRange = errors.New("invalid date range: --end is before --start")

	// ErrInvalidTimeout is returned when a wait timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidSettleDelay is returned when the settle delay is negative.
	ErrInvalidSettleDelay = errors.New("invalid settle delay: must be non-negative")

	// ErrInvalidWindowSize is returned when only one window dimension is
	// set or a dimension is negative.
	ErrInvalidWindowSize = errors.New("invalid window size: set both width and height to positive values")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidSelector is returned for a selector override with an
	// unknown element name or an invalid locator.
	ErrInvalidSelector = errors.New("invalid selector override")
)
