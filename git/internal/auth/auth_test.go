package auth

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheme(t *testing.T) {
	tests := map[string]string{
		"https://github.com/o/r.git":  "https",
		"http://localhost/r.git":      "http",
		"ssh://git@github.com/o/r":    "ssh",
		"git+ssh://git@github.com/o/": "ssh",
		"git@github.com:o/r.git":      "ssh",
		"/srv/git/depots.git":         "file",
		"file:///srv/git/depots.git":  "file",
		"mem://origin/depots":         "mem",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Scheme(in))
		})
	}
}

func TestHTTPS(t *testing.T) {
	p := NewHTTPS("", "secret")

	m, err := p.Method("https://github.com/o/r.git")
	require.NoError(t, err)
	basic, ok := m.(*http.BasicAuth)
	require.True(t, ok)
	assert.Equal(t, "token", basic.Username)
	assert.Equal(t, "secret", basic.Password)

	_, err = p.Method("ssh://git@github.com/o/r")
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	r := &Router{HTTPS: NewHTTPS("bot", "secret")}

	m, err := r.Method("https://github.com/o/r.git")
	require.NoError(t, err)
	assert.NotNil(t, m)

	m, err = r.Method("git@github.com:o/r.git")
	require.NoError(t, err)
	assert.Nil(t, m, "no ssh provider configured")

	m, err = r.Method("/srv/git/depots.git")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestSSHMissingKey(t *testing.T) {
	p := &SSH{KeyPath: "/nonexistent/id_ed25519"}
	_, err := p.Method("git@github.com:o/r.git")
	assert.Error(t, err)
}
