// Package log provides the slog setup used by greenbutton.
//
// Every logger is wrapped in a SecureHandler, which rewrites attributes
// before they reach the output:
//   - passwords, cookies, session ids and tokens are replaced by MaskValue
//   - usernames and e-mail addresses keep their first character and domain
//     ("jane@example.com" is logged as "j***@example.com")
//   - bearer tokens and JWTs are masked wherever they appear
//
// Verbose mode logs at debug level; otherwise only warnings and errors are
// written.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("logging in", "username", creds.Username)
package log
