// Package secrets supplies account credentials to the engine.
//
// The credential list is a JSON object mapping each username to a
// [password, sentryName] pair, where sentryName may be null. Sources read
// that document from a file or from a remote secret store; a Manager picks
// the configured source by name. The TokenStore persists login tokens and
// reads sentry files from the credential location.
//
// Credentials never appear in log output: Account implements slog.LogValuer
// and fmt.Stringer with the password redacted.
package secrets
