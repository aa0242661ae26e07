// Package secrets reads the credential list from AWS Secrets Manager.
//
// The secret holds the same JSON document as the local users.json file.
// Client wraps the AWS SDK v2 secretsmanager service with structured
// logging, an optional in-memory cache and a retryer tuned for throttling;
// AccountSource adapts it to the engine's credential source interface.
//
// The package never logs secret values, only secret names.
package secrets
