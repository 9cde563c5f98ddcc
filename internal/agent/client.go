package agent

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dgit/internal/crypto"
	"dgit/internal/domain"
)

// DefaultHost is the public gateway used when no host is configured.
const DefaultHost = "https://ic0.app"

const (
	ingressWindow    = 5 * time.Minute
	maxResponseBytes = 64 << 20
	nonceSize        = 16
)

// Client is the signed-envelope RPC client for one repository canister.
type Client struct {
	Host       string
	CanisterID string
	HTTP       *http.Client

	// Timeout bounds each RPC when positive.
	Timeout time.Duration

	id     domain.Identity
	sender []byte
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.HTTP = h
		}
	}
}

// WithTimeout bounds every RPC by d. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.Timeout = d }
}

// WithLogger sets the logger for per-RPC debug records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides the clock used for ingress expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a client that signs every request with id.
func New(host, canisterID string, id domain.Identity, opts ...Option) *Client {
	c := &Client{
		Host:       host,
		CanisterID: canisterID,
		HTTP:       http.DefaultClient,
		id:         id,
		sender:     crypto.SelfAuthenticating(id.Public),
		log:        slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) CreateRepository(ctx context.Context) (domain.RepositoryID, error) {
	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}
	var out CreateRepoReply
	if err := c.invoke(ctx, RequestTypeCall, MethodCreateRepo, nonce, CreateRepoArg{}, &out); err != nil {
		return "", err
	}
	return domain.RepositoryID(out.RepoID), nil
}

func (c *Client) ListFiles(ctx context.Context, repo domain.RepositoryID) ([]string, error) {
	var out ListFilesReply
	if err := c.invoke(ctx, RequestTypeQuery, MethodListFiles, nil, ListFilesArg{RepoID: string(repo)}, &out); err != nil {
		return nil, err
	}
	return out.Paths, nil
}

func (c *Client) GetFile(ctx context.Context, repo domain.RepositoryID, path string) ([]byte, error) {
	var out GetFileReply
	arg := GetFileArg{RepoID: string(repo), Path: path}
	if err := c.invoke(ctx, RequestTypeQuery, MethodGetFile, nil, arg, &out); err != nil {
		return nil, err
	}
	if out.Content == nil {
		return []byte{}, nil
	}
	return out.Content, nil
}

// CommitFile records one file. The nonce is derived from the triple so a
// repeated commit of the same content is recognised by the service.
func (c *Client) CommitFile(ctx context.Context, path string, content []byte, message string) error {
	digest := crypto.CommitDigest(path, content, message)
	arg := CommitCodeArg{Path: path, Content: content, Message: message}
	return c.invoke(ctx, RequestTypeCall, MethodCommitCode, digest[:], arg, nil)
}

func (c *Client) GetStatus(ctx context.Context) (domain.StatusSummary, error) {
	var out GetStatusReply
	if err := c.invoke(ctx, RequestTypeQuery, MethodGetStatus, nil, GetStatusArg{}, &out); err != nil {
		return "", err
	}
	return domain.StatusSummary(out.Status), nil
}

func (c *Client) invoke(ctx context.Context, kind, method string, nonce []byte, arg, out any) error {
	if c.CanisterID == "" {
		return fmt.Errorf("%w: canister id is not set (REPO_CANISTER_ID)", domain.ErrConfigMissing)
	}
	if c.Host == "" {
		return fmt.Errorf("%w: host is not set (DGIT_HOST)", domain.ErrConfigMissing)
	}

	raw, err := Marshal(arg)
	if err != nil {
		return fmt.Errorf("%s: encode argument: %w", method, err)
	}
	env, err := SignRequest(Request{
		RequestType:   kind,
		CanisterID:    c.CanisterID,
		MethodName:    method,
		Arg:           raw,
		Sender:        c.sender,
		Nonce:         nonce,
		IngressExpiry: uint64(c.now().Add(ingressWindow).UnixNano()),
	}, c.id)
	if err != nil {
		return fmt.Errorf("%s: sign request: %w", method, err)
	}
	body, err := Marshal(env)
	if err != nil {
		return fmt.Errorf("%s: encode envelope: %w", method, err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	u := strings.TrimRight(c.Host, "/") + "/api/v2/canister/" + url.PathEscape(c.CanisterID) + "/" + kind
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrConfigMissing, method, err)
	}
	req.Header.Set("Content-Type", ContentType)

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &domain.RemoteError{Method: method, Kind: domain.ErrRemoteUnavailable, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.log.Debug("rpc", "method", method, "kind", kind, "status", resp.StatusCode, "duration", time.Since(start))
	if err != nil {
		return &domain.RemoteError{Method: method, Kind: domain.ErrRemoteUnavailable, Err: err}
	}

	switch {
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return &domain.RemoteError{Method: method, Kind: domain.ErrRemoteUnavailable, Message: httpMessage(resp, data)}
	case resp.StatusCode/100 != 2:
		return &domain.RemoteError{Method: method, Kind: domain.ErrRemoteRejected, Message: httpMessage(resp, data)}
	}

	var r Response
	if err := Unmarshal(data, &r); err != nil {
		return &domain.RemoteError{Method: method, Kind: domain.ErrRemoteUnavailable, Err: fmt.Errorf("malformed response: %w", err)}
	}
	switch r.Status {
	case StatusReplied:
		if out == nil {
			return nil
		}
		if err := Unmarshal(r.Reply, out); err != nil {
			return &domain.RemoteError{Method: method, Kind: domain.ErrRemoteRejected, Err: fmt.Errorf("malformed reply: %w", err)}
		}
		return nil
	case StatusRejected:
		code := domain.RejectCode(r.RejectCode)
		return &domain.RemoteError{Method: method, Code: code, Message: r.RejectMessage, Kind: code.Kind()}
	default:
		return &domain.RemoteError{Method: method, Kind: domain.ErrRemoteRejected, Message: fmt.Sprintf("unexpected response status %q", r.Status)}
	}
}

func httpMessage(resp *http.Response, body []byte) string {
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return resp.Status + ": " + msg
	}
	return resp.Status
}

func randomNonce() ([]byte, error) {
	n := make([]byte, nonceSize)
	if _, err := rand.Read(n); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return n, nil
}

var _ domain.RepositoryClient = (*Client)(nil)
