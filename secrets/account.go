package secrets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Account is one entry of the credential list.
type Account struct {
	Username string
	Password string

	// SentryName is the name of the sentry file in the credential
	// location; empty when the account has none.
	SentryName string
}

// String implements fmt.Stringer without the password.
func (a Account) String() string {
	return fmt.Sprintf("Account{Username:%s Password:[REDACTED] SentryName:%s}", a.Username, a.SentryName)
}

// LogValue implements slog.LogValuer without the password.
func (a Account) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", a.Username),
		slog.Bool("sentry", a.SentryName != ""),
	)
}

// ParseAccounts decodes a credential list. Accounts are returned in the
// order they appear in the document.
func ParseAccounts(data []byte) ([]Account, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected an object", ErrMalformed)
	}

	var out []Account
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		user := tok.(string)

		var pair []*string
		if err := dec.Decode(&pair); err != nil {
			return nil, fmt.Errorf("%w: account %q: %v", ErrMalformed, user, err)
		}
		if len(pair) == 0 || len(pair) > 2 || pair[0] == nil {
			return nil, fmt.Errorf("%w: account %q: want [password, sentry]", ErrMalformed, user)
		}
		if _, dup := seen[user]; dup {
			return nil, fmt.Errorf("%w: duplicate account %q", ErrMalformed, user)
		}
		seen[user] = struct{}{}

		acc := Account{Username: user, Password: *pair[0]}
		if len(pair) == 2 && pair[1] != nil {
			acc.SentryName = *pair[1]
		}
		out = append(out, acc)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}
