// Package gateway implements session.Dialer over HTTP against a protocol
// bridge that holds the actual network sessions.
//
// Wire format (JSON):
//
//	POST   /v1/sessions                                       login
//	GET    /v1/sessions/{id}/packages                         owned packages
//	GET    /v1/sessions/{id}/apps/{app}                       app and depot info
//	GET    /v1/sessions/{id}/apps/{app}/depots/{depot}/manifests/{gid}
//	DELETE /v1/sessions/{id}                                  logout
//
// Failures carry {"code": "...", "message": "..."} where code is one of the
// error codes of the errors package. When the body has no code, the HTTP
// status decides it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pjy612/ManifestAutoUpdate-bak/domain"
	"github.com/pjy612/ManifestAutoUpdate-bak/errors"
	"github.com/pjy612/ManifestAutoUpdate-bak/session"
)

const defaultTimeout = 60 * time.Second

var _ session.Dialer = (*Dialer)(nil)

// Options configures a Dialer.
type Options struct {
	// BaseURL is the bridge address, e.g. http://127.0.0.1:8420.
	BaseURL string

	// HTTPClient is optional; a client with a 60s timeout is used otherwise.
	HTTPClient *http.Client

	// UserAgent is sent with every request when set.
	UserAgent string

	Logger *slog.Logger
}

// Dialer logs accounts in through the bridge.
type Dialer struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// New returns a Dialer.
func New(opts Options) (*Dialer, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "gateway base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid gateway base url")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dialer{
		baseURL:    base,
		httpClient: httpClient,
		userAgent:  strings.TrimSpace(opts.UserAgent),
		logger:     logger,
	}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token,omitempty"`
	Sentry   []byte `json:"sentry,omitempty"`
}

type loginResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

type packagesResponse struct {
	Packages []domain.Package `json:"packages"`
}

type artifactResponse struct {
	Manifest      []byte `json:"manifest"`
	DecryptionKey []byte `json:"decryption_key"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Dial implements session.Dialer.
func (d *Dialer) Dial(ctx context.Context, creds session.Credentials) (session.Session, error) {
	var resp loginResponse
	err := d.do(ctx, http.MethodPost, "/v1/sessions", loginRequest{
		Username: creds.Username,
		Password: creds.Password,
		Token:    creds.Token,
		Sentry:   creds.Sentry,
	}, &resp)
	if err != nil {
		return nil, errors.WithContext(err, map[string]interface{}{"account": creds.Username})
	}
	if resp.SessionID == "" {
		return nil, errors.New(errors.CodeInternal, "gateway returned no session id")
	}
	d.logger.DebugContext(ctx, "session established", "account", creds.Username)
	return &Session{d: d, id: resp.SessionID, token: resp.Token}, nil
}

// Session is a bridge-held session.
type Session struct {
	d  *Dialer
	id string

	mu     sync.Mutex
	token  string
	closed bool
}

// ID returns the bridge session id.
func (s *Session) ID() string { return s.id }

// Token implements session.Session.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Packages implements session.Session.
func (s *Session) Packages(ctx context.Context) ([]domain.Package, error) {
	var resp packagesResponse
	if err := s.d.do(ctx, http.MethodGet, s.path("packages"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Packages, nil
}

// AppInfo implements session.Session.
func (s *Session) AppInfo(ctx context.Context, app domain.AppID) (domain.AppInfo, error) {
	var info domain.AppInfo
	if err := s.d.do(ctx, http.MethodGet, s.path("apps", app.String()), nil, &info); err != nil {
		return domain.AppInfo{}, errors.WithContext(err, map[string]interface{}{"app": app})
	}
	if info.ID == 0 {
		info.ID = app
	}
	return info, nil
}

// FetchArtifact implements session.Session.
func (s *Session) FetchArtifact(ctx context.Context, app domain.AppID, depot domain.DepotID, gid domain.ManifestGID) (domain.Artifact, error) {
	var resp artifactResponse
	p := s.path("apps", app.String(), "depots", depot.String(), "manifests", url.PathEscape(string(gid)))
	if err := s.d.do(ctx, http.MethodGet, p, nil, &resp); err != nil {
		return domain.Artifact{}, errors.WithContext(err, map[string]interface{}{"app": app, "depot": depot})
	}
	if len(resp.Manifest) == 0 {
		return domain.Artifact{}, errors.Newf(errors.CodeNotFound, "depot %s manifest %s has no content", depot, gid)
	}
	return domain.Artifact{Manifest: resp.Manifest, DecryptionKey: resp.DecryptionKey}, nil
}

// Close implements session.Session. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.d.do(ctx, http.MethodDelete, s.path(), nil, nil)
}

func (s *Session) path(parts ...string) string {
	return "/v1/sessions/" + url.PathEscape(s.id) + joinPath(parts)
}

func joinPath(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return "/" + strings.Join(parts, "/")
}

func (d *Dialer) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(ctxErr, errors.CodeOf(ctxErr), "request interrupted")
		}
		return errors.WrapWithContext(err, errors.CodeNetwork, "gateway request failed",
			map[string]interface{}{"method": method, "path": path})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.CodeNetwork, "failed to read gateway response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "malformed gateway response")
	}
	return nil
}

func statusError(status int, data []byte) error {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)

	code := errors.ErrorCode(eb.Code)
	if code == "" {
		code = codeForStatus(status)
	}
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return errors.Newf(code, "gateway status %d: %s", status, msg)
}

func codeForStatus(status int) errors.ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return errors.CodeUnauthorized
	case status == http.StatusForbidden:
		return errors.CodeForbidden
	case status == http.StatusNotFound:
		return errors.CodeNotFound
	case status == http.StatusTooManyRequests:
		return errors.CodeRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return errors.CodeTimeout
	case status >= 500:
		return errors.CodeUnavailable
	case status >= 400:
		return errors.CodeInvalidInput
	default:
		return errors.CodeUnknown
	}
}

// String describes the dialer for logs.
func (d *Dialer) String() string {
	return fmt.Sprintf("gateway(%s)", d.baseURL)
}
