package app

import (
	"fmt"
	"io"
	"net/http"

	"dgit/internal/agent"
	"dgit/internal/domain"
	"dgit/internal/logging"
	identitysvc "dgit/internal/services/identity"
	reposvc "dgit/internal/services/repo"
	"dgit/internal/store"
	"dgit/internal/worktree"
)

// Wire bundles the stores, services and clients for the CLI.
type Wire struct {
	Config   Config
	Log      *logging.Logger
	Identity *store.IdentityFileStore
	Whoami   *identitysvc.Service
	Tree     *worktree.Tree
	Staging  *store.StagingFileStore
	HTTP     *http.Client
}

// NewWire constructs the local part of the dependency graph from cfg. notice
// receives the one-line message printed when a new identity is generated.
func NewWire(cfg Config, notice io.Writer) (*Wire, error) {
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	// Ensure an HTTP client is available for outbound calls
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if cfg.Passphrase != "" && identitysvc.WeakPassphrase(cfg.Passphrase) {
		log.Warn("identity passphrase is weak; use 12+ characters mixing case, digits and symbols")
	}

	identityStore := store.NewIdentityFileStore(cfg.IdentityPath, cfg.Passphrase, notice, log.Logger)
	return &Wire{
		Config:   cfg,
		Log:      log,
		Identity: identityStore,
		Whoami:   identitysvc.New(identityStore),
		Tree:     worktree.NewOS(cfg.WorkDir, cfg.TrackedExtensions),
		Staging:  store.NewStagingFileStore(cfg.StagingDir()),
		HTTP:     httpClient,
	}, nil
}

// Client loads the identity and returns the signed RPC client.
func (w *Wire) Client() (*agent.Client, error) {
	if w.Config.CanisterID == "" {
		return nil, fmt.Errorf("%w: set REPO_CANISTER_ID or pass --canister", domain.ErrConfigMissing)
	}
	id, err := w.Identity.GetIdentity()
	if err != nil {
		return nil, err
	}
	return agent.New(w.Config.Host, w.Config.CanisterID, id,
		agent.WithHTTPClient(w.HTTP),
		agent.WithTimeout(w.Config.Timeout),
		agent.WithLogger(w.Log.Logger),
	), nil
}

// Repo returns the repository service backed by a fresh client.
func (w *Wire) Repo() (*reposvc.Service, error) {
	c, err := w.Client()
	if err != nil {
		return nil, err
	}
	return reposvc.New(c, w.Tree, w.Staging, w.Log.Logger), nil
}

// LocalRepo returns a repository service for commands that never reach the
// remote, such as staging a commit.
func (w *Wire) LocalRepo() *reposvc.Service {
	return reposvc.New(nil, w.Tree, w.Staging, w.Log.Logger)
}

// Close releases the log file.
func (w *Wire) Close() error {
	return w.Log.Close()
}
