package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"dgit/internal/crypto"
	"dgit/internal/domain"
	"dgit/internal/worktree"
)

// DefaultMessage is the commit message used when none is given.
const DefaultMessage = "Update"

const cloneDirPrefix = "dgit-repo-"

// CloneDir is the directory a repository is cloned into.
func CloneDir(id domain.RepositoryID) string { return cloneDirPrefix + string(id) }

// Service runs repository commands. RPCs are issued one at a time.
type Service struct {
	client  domain.RepositoryClient
	tree    domain.WorkingTree
	staging domain.StagingStore
	log     *slog.Logger
	now     func() time.Time
}

// New returns a Service. staging may be nil when Stage and Push are unused.
func New(client domain.RepositoryClient, tree domain.WorkingTree, staging domain.StagingStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		client:  client,
		tree:    tree,
		staging: staging,
		log:     log,
		now:     time.Now,
	}
}

// FileError is the failure of one file within a multi-file command.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e FileError) Unwrap() error { return e.Err }

// Outcome reports per-file results of Commit and Push.
type Outcome struct {
	Succeeded []string
	Failed    []FileError
}

// Total is the number of files attempted.
func (o Outcome) Total() int { return len(o.Succeeded) + len(o.Failed) }

// Err combines the per-file failures, or returns nil.
func (o Outcome) Err() error {
	var err error
	for _, f := range o.Failed {
		err = multierr.Append(err, f)
	}
	return err
}

// Init creates a new remote repository.
func (s *Service) Init(ctx context.Context) (domain.RepositoryID, error) {
	id, err := s.client.CreateRepository(ctx)
	if err != nil {
		return "", fmt.Errorf("create repository: %w", err)
	}
	s.log.Info("repository created", "repo", id.String())
	return id, nil
}

// CloneResult describes a completed clone.
type CloneResult struct {
	Dir   string
	Files []string
}

// Clone writes every file of repository id into CloneDir(id). It stops at the
// first failure; files already written are left in place.
func (s *Service) Clone(ctx context.Context, id domain.RepositoryID) (CloneResult, error) {
	res := CloneResult{Dir: CloneDir(id)}

	paths, err := s.client.ListFiles(ctx, id)
	if err != nil {
		return res, fmt.Errorf("list files of %s: %w", id, err)
	}
	if err := s.tree.EnsureDir(res.Dir); err != nil {
		return res, err
	}

	for i, p := range paths {
		if err := s.cloneFile(ctx, id, res.Dir, p); err != nil {
			return res, fmt.Errorf("clone %s: fetched %d of %d files: %w", id, i, len(paths), err)
		}
		res.Files = append(res.Files, p)
	}
	s.log.Info("repository cloned", "repo", id.String(), "dir", res.Dir, "files", len(res.Files))
	return res, nil
}

func (s *Service) cloneFile(ctx context.Context, id domain.RepositoryID, dir, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := worktree.Join(dir, path)
	if err != nil {
		return err
	}
	content, err := s.client.GetFile(ctx, id, path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	if err := s.tree.Write(dst, content); err != nil {
		return err
	}
	s.log.Debug("file cloned", "path", path, "bytes", len(content))
	return nil
}

// Commit sends every tracked file of the working directory with message,
// one RPC per file. Every file is attempted; failures are collected in the
// outcome and combined in the returned error.
func (s *Service) Commit(ctx context.Context, message string) (Outcome, error) {
	files, err := s.tracked()
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return out, multierr.Append(out.Err(), err)
		}
		if err := s.client.CommitFile(ctx, f.Path, f.Content, message); err != nil {
			s.log.Warn("commit failed", "path", f.Path, "err", err)
			out.Failed = append(out.Failed, FileError{Path: f.Path, Err: err})
			continue
		}
		s.log.Debug("file committed", "path", f.Path, "bytes", len(f.Content))
		out.Succeeded = append(out.Succeeded, f.Path)
	}
	return out, out.Err()
}

// Stage records every tracked file as a pending commit without contacting
// the remote.
func (s *Service) Stage(message string) ([]domain.StagedEntry, error) {
	if s.staging == nil {
		return nil, fmt.Errorf("%w: staging store", domain.ErrConfigMissing)
	}
	files, err := s.tracked()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entries := make([]domain.StagedEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, domain.StagedEntry{
			Path:     f.Path,
			Content:  f.Content,
			Message:  message,
			Digest:   crypto.CommitDigestHex(f.Path, f.Content, message),
			StagedAt: now,
		})
	}
	if len(entries) == 0 {
		return entries, nil
	}
	if err := s.staging.Stage(entries...); err != nil {
		return nil, err
	}
	s.log.Info("files staged", "count", len(entries))
	return entries, nil
}

// Push sends every staged commit. Delivered entries are removed from the
// staging area; failed ones stay for a later push.
func (s *Service) Push(ctx context.Context) (Outcome, error) {
	if s.staging == nil {
		return Outcome{}, fmt.Errorf("%w: staging store", domain.ErrConfigMissing)
	}
	staged, err := s.staging.Staged()
	if err != nil {
		return Outcome{}, err
	}

	var (
		out  Outcome
		done []string
		errs error
	)
	for _, e := range staged {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if err := s.client.CommitFile(ctx, e.Path, e.Content, e.Message); err != nil {
			s.log.Warn("push failed", "path", e.Path, "err", err)
			out.Failed = append(out.Failed, FileError{Path: e.Path, Err: err})
			continue
		}
		out.Succeeded = append(out.Succeeded, e.Path)
		done = append(done, e.Digest)
	}
	if len(done) > 0 {
		if err := s.staging.Remove(done...); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return out, multierr.Combine(out.Err(), errs)
}

// Status returns the remote status summary verbatim.
func (s *Service) Status(ctx context.Context) (domain.StatusSummary, error) {
	st, err := s.client.GetStatus(ctx)
	if err != nil {
		return "", fmt.Errorf("get status: %w", err)
	}
	return st, nil
}

func (s *Service) tracked() ([]domain.WorkingFile, error) {
	paths, err := s.tree.ListTracked(".")
	if err != nil {
		return nil, err
	}
	files := make([]domain.WorkingFile, 0, len(paths))
	for _, p := range paths {
		b, err := s.tree.Read(p)
		if err != nil {
			return nil, err
		}
		files = append(files, domain.WorkingFile{Path: p, Content: b})
	}
	return files, nil
}
