package secrets

import (
	"context"

	"github.com/pjy612/ManifestAutoUpdate-bak/secrets"
)

var _ secrets.Source = (*AccountSource)(nil)

// AccountSource serves the credential list stored in one secret.
type AccountSource struct {
	client   *Client
	secretID string
}

// NewAccountSource returns a source reading secretID through client.
func NewAccountSource(client *Client, secretID string) *AccountSource {
	return &AccountSource{client: client, secretID: secretID}
}

// Name implements secrets.Source.
func (s *AccountSource) Name() string { return "aws" }

// Accounts implements secrets.Source.
func (s *AccountSource) Accounts(ctx context.Context) ([]secrets.Account, error) {
	raw, err := s.client.GetSecret(ctx, s.secretID)
	if err != nil {
		return nil, err
	}
	return secrets.ParseAccounts([]byte(raw))
}
