package automation

import (
	"errors"
	"fmt"
)

// Terminal messages shown to the user.
const (
	MessageSuccess      = "Successfully downloaded PG&E Green Button data!"
	MessageLoginFailed  = "Login failed. Please check your credentials."
	MessageExportFailed = "Failed to download Green Button data."
	messageErrorPrefix  = "An error occurred: "
)

var (
	// ErrRunInProgress is returned when a run is started while another
	// is still running on the same Runner.
	ErrRunInProgress = errors.New("a download run is already in progress")

	// ErrMissingDownloadDir is returned when no download directory is set.
	ErrMissingDownloadDir = errors.New("download directory is required")

	// ErrAuthenticationRejected is returned when the login form was
	// submitted but no signed-in page appeared.
	ErrAuthenticationRejected = errors.New("authentication rejected: no signed-in page indicator found")

	// ErrMFARequired is returned when the portal asks for a verification
	// code after the password.
	ErrMFARequired = fmt.Errorf("%w: additional verification is required", ErrAuthenticationRejected)

	// ErrCredentialsRejected is returned when the portal shows a login
	// error message.
	ErrCredentialsRejected = fmt.Errorf("%w: the portal reported a login error", ErrAuthenticationRejected)

	// ErrExportControlNotFound is returned when the Green Button control
	// cannot be found on the usage details page.
	ErrExportControlNotFound = errors.New("green button export control not found")

	// ErrDownloadControlNotFound is returned when the export panel has no
	// download control.
	ErrDownloadControlNotFound = errors.New("download control not found")

	// ErrUnexpected wraps a panic recovered from the automation.
	ErrUnexpected = errors.New("unexpected failure")
)

// ErrorMessage is the terminal message for a failure outside login and
// export, e.g. a browser that would not start.
func ErrorMessage(cause any) string {
	return fmt.Sprintf("%s%v", messageErrorPrefix, cause)
}
