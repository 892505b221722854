// Package client talks to the vault server's JSON API and bootstraps the
// client's local sqlite database.
//
// The Client interface is what the client services depend on; HTTPClient
// implements it over net/http. Failures are mapped to sentinel errors so
// callers can match them with errors.Is:
//
//   - ErrUnavailable: the server could not be reached.
//   - ErrUnauthorized: the session is missing or expired.
//   - common.ErrTotpRequired, common.ErrInvalidCredentials and friends:
//     the login outcome reported by the server.
//   - common.ErrorNotFound and common.ErrValidation for item operations.
//
// InitDatabase and RunMigrations open the sqlite file and apply the embedded
// goose migrations.
package client
