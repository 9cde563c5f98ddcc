package canister

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"dgit/internal/agent"
	"dgit/internal/domain"
)

type repository struct {
	id          string
	owner       domain.Principal
	files       map[string][]byte
	commits     int
	lastMessage string
	// heads holds, per path, the nonce of the commit that wrote its
	// current content.
	heads map[string]string
}

var methodKinds = map[string]string{
	agent.MethodCreateRepo: agent.RequestTypeCall,
	agent.MethodCommitCode: agent.RequestTypeCall,
	agent.MethodListFiles:  agent.RequestTypeQuery,
	agent.MethodGetFile:    agent.RequestTypeQuery,
	agent.MethodGetStatus:  agent.RequestTypeQuery,
}

func (s *Server) dispatch(sender domain.Principal, req agent.Request) (any, error) {
	kind, ok := methodKinds[req.MethodName]
	if !ok {
		return nil, reject(domain.RejectDestinationInvalid, "method %q not found", req.MethodName)
	}
	if kind != req.RequestType {
		return nil, reject(domain.RejectCanisterError, "method %s must be invoked as %s", req.MethodName, kind)
	}

	switch req.MethodName {
	case agent.MethodCreateRepo:
		return s.createRepo(sender), nil
	case agent.MethodListFiles:
		var arg agent.ListFilesArg
		if err := decodeArg(req, &arg); err != nil {
			return nil, err
		}
		return s.listFiles(arg)
	case agent.MethodGetFile:
		var arg agent.GetFileArg
		if err := decodeArg(req, &arg); err != nil {
			return nil, err
		}
		return s.getFile(arg)
	case agent.MethodCommitCode:
		var arg agent.CommitCodeArg
		if err := decodeArg(req, &arg); err != nil {
			return nil, err
		}
		return s.commitCode(sender, req.Nonce, arg)
	default:
		return s.getStatus(sender), nil
	}
}

func decodeArg(req agent.Request, v any) error {
	if err := agent.Unmarshal(req.Arg, v); err != nil {
		return reject(domain.RejectCanisterError, "%s: decode argument: %v", req.MethodName, err)
	}
	return nil
}

func (s *Server) createRepo(sender domain.Principal) agent.CreateRepoReply {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	id := fmt.Sprintf("repo-%d", s.next)
	s.repos[id] = &repository{
		id:     id,
		owner:  sender,
		files:  make(map[string][]byte),
		heads:  make(map[string]string),
	}
	s.latest[sender] = id
	s.owned[sender]++
	s.log.Info("repository created", "repo", id, "owner", sender.String())
	return agent.CreateRepoReply{RepoID: id}
}

func (s *Server) listFiles(arg agent.ListFilesArg) (agent.ListFilesReply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repo, ok := s.repos[arg.RepoID]
	if !ok {
		return agent.ListFilesReply{}, reject(domain.RejectDestinationInvalid, "repository %s not found", arg.RepoID)
	}
	paths := make([]string, 0, len(repo.files))
	for p := range repo.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return agent.ListFilesReply{Paths: paths}, nil
}

func (s *Server) getFile(arg agent.GetFileArg) (agent.GetFileReply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repo, ok := s.repos[arg.RepoID]
	if !ok {
		return agent.GetFileReply{}, reject(domain.RejectDestinationInvalid, "repository %s not found", arg.RepoID)
	}
	content, ok := repo.files[arg.Path]
	if !ok {
		return agent.GetFileReply{}, reject(domain.RejectDestinationInvalid, "file %s not found in %s", arg.Path, arg.RepoID)
	}
	return agent.GetFileReply{Content: slices.Clone(content)}, nil
}

func (s *Server) commitCode(sender domain.Principal, nonce []byte, arg agent.CommitCodeArg) (struct{}, error) {
	if arg.Path == "" {
		return struct{}{}, reject(domain.RejectCanisterReject, "path must not be empty")
	}
	if strings.TrimSpace(arg.Message) == "" {
		return struct{}{}, reject(domain.RejectCanisterReject, "commit message must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.latest[sender]
	if !ok {
		return struct{}{}, reject(domain.RejectDestinationInvalid, "no repository for %s; run init first", sender)
	}
	repo := s.repos[id]
	head := hex.EncodeToString(nonce)
	if len(nonce) > 0 && repo.heads[arg.Path] == head {
		return struct{}{}, nil
	}
	repo.files[arg.Path] = slices.Clone(arg.Content)
	repo.heads[arg.Path] = head
	repo.commits++
	repo.lastMessage = arg.Message
	s.log.Info("commit recorded", "repo", id, "path", arg.Path, "bytes", len(arg.Content))
	return struct{}{}, nil
}

func (s *Server) getStatus(sender domain.Principal) agent.GetStatusReply {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "repositories: %d\n", s.owned[sender])
	if id, ok := s.latest[sender]; ok {
		repo := s.repos[id]
		fmt.Fprintf(&b, "repository: %s\n", repo.id)
		fmt.Fprintf(&b, "owner: %s\n", repo.owner)
		fmt.Fprintf(&b, "files: %d\n", len(repo.files))
		fmt.Fprintf(&b, "commits: %d\n", repo.commits)
		if repo.commits > 0 {
			fmt.Fprintf(&b, "last commit: %s\n", repo.lastMessage)
		}
	}
	return agent.GetStatusReply{Status: strings.TrimSuffix(b.String(), "\n")}
}
