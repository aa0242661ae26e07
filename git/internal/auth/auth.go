// Package auth resolves go-git transport credentials for the artifact
// store's remote. HTTPS remotes use a token, SSH remotes a private key or the
// agent; other schemes (file paths, in-process transports) need none.
package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// Provider returns go-git's transport.AuthMethod for a remote URL.
type Provider interface {
	Method(remoteURL string) (transport.AuthMethod, error)
}

// HTTPS serves basic auth to https:// remotes.
type HTTPS struct {
	auth *http.BasicAuth
}

// NewHTTPS returns a provider for username/token pairs. Hosts such as GitHub
// accept any non-empty username alongside a token.
func NewHTTPS(username, token string) *HTTPS {
	if username == "" {
		username = "token"
	}
	return &HTTPS{auth: &http.BasicAuth{Username: username, Password: token}}
}

// Method implements Provider.
//
//nolint:ireturn // go-git consumes the AuthMethod interface.
func (p *HTTPS) Method(remoteURL string) (transport.AuthMethod, error) {
	u, err := url.Parse(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "https" {
		return nil, fmt.Errorf("https credentials cannot be used for %q", u.Scheme)
	}
	return p.auth, nil
}

// SSH serves public-key auth to ssh remotes, from a key file or the agent.
type SSH struct {
	KeyPath    string
	Passphrase string
	Username   string
	// InsecureIgnoreHostKey disables host key verification.
	InsecureIgnoreHostKey bool
}

// Method implements Provider.
//
//nolint:ireturn // go-git consumes the AuthMethod interface.
func (p *SSH) Method(remoteURL string) (transport.AuthMethod, error) {
	user := p.Username
	if user == "" {
		user = "git"
	}

	var (
		keys *ssh.PublicKeys
		err  error
	)
	if p.KeyPath == "" {
		agent, agentErr := ssh.NewSSHAgentAuth(user)
		if agentErr != nil {
			return nil, fmt.Errorf("failed to create SSH agent auth: %w", agentErr)
		}
		if p.InsecureIgnoreHostKey {
			agent.HostKeyCallback = gossh.InsecureIgnoreHostKey() //nolint:gosec // explicit opt-in
		}
		return agent, nil
	}

	keys, err = ssh.NewPublicKeysFromFile(user, p.KeyPath, p.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key %s: %w", p.KeyPath, err)
	}
	if p.InsecureIgnoreHostKey {
		keys.HostKeyCallback = gossh.InsecureIgnoreHostKey() //nolint:gosec // explicit opt-in
	}
	return keys, nil
}

// Router dispatches to HTTPS or SSH by the remote URL's scheme.
// Nil members and unknown schemes resolve to no authentication.
type Router struct {
	HTTPS Provider
	SSH   Provider
}

// Method implements Provider.
//
//nolint:ireturn // go-git consumes the AuthMethod interface.
func (r *Router) Method(remoteURL string) (transport.AuthMethod, error) {
	switch Scheme(remoteURL) {
	case "https":
		if r.HTTPS != nil {
			return r.HTTPS.Method(remoteURL)
		}
	case "ssh":
		if r.SSH != nil {
			return r.SSH.Method(remoteURL)
		}
	}
	return nil, nil
}

// Scheme classifies a git remote URL: "https", "http", "ssh" (including the
// scp-like user@host:path form), "file" or the raw scheme.
func Scheme(remoteURL string) string {
	if !strings.Contains(remoteURL, "://") {
		at := strings.Index(remoteURL, "@")
		colon := strings.Index(remoteURL, ":")
		if at >= 0 && colon > at {
			return "ssh"
		}
		return "file"
	}
	u, err := url.Parse(remoteURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "ssh", "git+ssh":
		return "ssh"
	default:
		return u.Scheme
	}
}
