package domain

import "context"

// IdentityStore loads the local signing identity, creating it on first use.
type IdentityStore interface {
	GetIdentity() (Identity, error)
}

// RepositoryClient is how we talk to the remote repository service. Every
// method is a single authenticated RPC; none of them retries.
type RepositoryClient interface {
	CreateRepository(ctx context.Context) (RepositoryID, error)
	ListFiles(ctx context.Context, repo RepositoryID) ([]string, error)
	GetFile(ctx context.Context, repo RepositoryID, path string) ([]byte, error)
	CommitFile(ctx context.Context, path string, content []byte, message string) error
	GetStatus(ctx context.Context) (StatusSummary, error)
}

// WorkingTree reads and writes files of the local working directory.
type WorkingTree interface {
	ListTracked(dir string) ([]string, error)
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
	EnsureDir(dir string) error
}

// StagingStore keeps commits that were recorded locally but not pushed.
type StagingStore interface {
	Stage(entries ...StagedEntry) error
	Staged() ([]StagedEntry, error)
	Remove(digests ...string) error
}
