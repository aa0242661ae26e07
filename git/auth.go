package git

import "github.com/pjy612/ManifestAutoUpdate-bak/git/internal/auth"

// AuthConfig describes the credentials available for the store's remote.
type AuthConfig struct {
	// Username and Token authenticate https remotes.
	Username string
	Token    string

	// SSHKeyPath selects a private key for ssh remotes; empty uses the agent.
	SSHKeyPath    string
	SSHPassphrase string
	// SSHInsecureIgnoreHostKey disables host key verification.
	SSHInsecureIgnoreHostKey bool
}

// NewAuthProvider builds an AuthProvider from cfg. HTTPS credentials are
// only offered when a token is set; SSH always falls back to the agent.
//
//nolint:ireturn // Options.Auth is an interface.
func NewAuthProvider(cfg AuthConfig) AuthProvider {
	router := &auth.Router{
		SSH: &auth.SSH{
			KeyPath:               cfg.SSHKeyPath,
			Passphrase:            cfg.SSHPassphrase,
			InsecureIgnoreHostKey: cfg.SSHInsecureIgnoreHostKey,
		},
	}
	if cfg.Token != "" {
		router.HTTPS = auth.NewHTTPS(cfg.Username, cfg.Token)
	}
	return router
}
