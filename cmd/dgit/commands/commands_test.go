package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"dgit/internal/canister"
	"dgit/internal/domain"
)

const testCanister = "rrkah-fqaaa-aaaaa-aaaaq-cai"

type result struct {
	code   int
	stdout string
	stderr string
}

type harness struct {
	t    *testing.T
	host string
	dir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, k := range []string{"REPO_CANISTER_ID", "DGIT_HOST", "DGIT_IDENTITY", "DGIT_PASSPHRASE",
		"DGIT_TRACKED_EXTENSIONS", "DGIT_TIMEOUT", "DGIT_LOG_LEVEL", "DGIT_LOG_FILE"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	srv := httptest.NewServer(canister.New(testCanister))
	t.Cleanup(srv.Close)
	return &harness{t: t, host: srv.URL, dir: t.TempDir()}
}

// run executes dgit in h.dir against the test canister.
func (h *harness) run(args ...string) result {
	h.t.Helper()
	return h.runIn(h.dir, args...)
}

func (h *harness) runIn(dir string, args ...string) result {
	h.t.Helper()
	full := append([]string{"-C", dir, "--host", h.host, "--canister", testCanister,
		"--identity", filepath.Join(h.dir, "dgit-identity.json")}, args...)
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), full, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (h *harness) write(name, content string) {
	h.t.Helper()
	require.NoError(h.t, os.WriteFile(filepath.Join(h.dir, name), []byte(content), 0o644))
}

var repoIDPattern = regexp.MustCompile(`Repository initialized with ID: (\S+)`)

func (h *harness) initRepo() string {
	h.t.Helper()
	r := h.run("init")
	require.Equal(h.t, ExitOK, r.code, r.stderr)
	m := repoIDPattern.FindStringSubmatch(r.stdout)
	require.Len(h.t, m, 2, r.stdout)
	return m[1]
}

func TestInit_GeneratesIdentityOnce(t *testing.T) {
	h := newHarness(t)

	r := h.run("init")
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.Contains(t, r.stdout, "New identity generated and saved to")
	require.Contains(t, r.stdout, "Repository initialized with ID: repo-1\n")

	r = h.run("init")
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.NotContains(t, r.stdout, "New identity generated")
	require.Equal(t, "Repository initialized with ID: repo-2\n", r.stdout)
}

func TestCommitCloneRoundTrip(t *testing.T) {
	h := newHarness(t)
	id := h.initRepo()

	h.write("main.mo", "actor { public func hi() : async Text { \"hi\" } }")
	h.write("lib.rs", "pub fn add(a: i32, b: i32) -> i32 { a + b }")
	h.write("README.md", "not tracked")

	r := h.run("commit", "-m", "first import")
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.Contains(t, r.stdout, "Committed lib.rs\n")
	require.Contains(t, r.stdout, "Committed main.mo\n")
	require.Contains(t, r.stdout, "Committed 2 of 2 file(s)\n")

	r = h.run("clone", id)
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.Equal(t, "Repository "+id+" cloned to dgit-repo-"+id+"\n", r.stdout)

	for _, name := range []string{"main.mo", "lib.rs"} {
		want, err := os.ReadFile(filepath.Join(h.dir, name))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(h.dir, "dgit-repo-"+id, name))
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := os.Stat(filepath.Join(h.dir, "dgit-repo-"+id, "README.md"))
	require.True(t, os.IsNotExist(err))

	r = h.run("status")
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.Contains(t, r.stdout, "files: 2\n")
	require.Contains(t, r.stdout, "last commit: first import\n")
}

func TestCommit_DefaultMessageAndEmptyDirectory(t *testing.T) {
	h := newHarness(t)
	h.initRepo()

	r := h.run("commit")
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.Equal(t, "No tracked files to commit\n", r.stdout)

	h.write("a.mo", "a")
	r = h.run("commit")
	require.Equal(t, ExitOK, r.code, r.stderr)

	r = h.run("status")
	require.Contains(t, r.stdout, "last commit: Update\n")
}

func TestCommit_RespectsIgnoreFile(t *testing.T) {
	h := newHarness(t)
	id := h.initRepo()
	h.write(".dgitignore", "generated_*.rs\n")
	h.write("generated_bindings.rs", "x")
	h.write("main.rs", "fn main() {}")

	r := h.run("commit")
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.Contains(t, r.stdout, "Committed 1 of 1 file(s)")

	r = h.run("clone", id)
	require.Equal(t, ExitOK, r.code, r.stderr)
	_, err := os.Stat(filepath.Join(h.dir, "dgit-repo-"+id, "generated_bindings.rs"))
	require.True(t, os.IsNotExist(err))
}

func TestStageThenPush(t *testing.T) {
	h := newHarness(t)
	h.initRepo()
	h.write("a.mo", "a")

	r := h.run("commit", "--stage", "-m", "later")
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.Contains(t, r.stdout, "Staged 1 file(s)")

	r = h.run("status")
	require.Contains(t, r.stdout, "commits: 0\n", "staged commits are not sent")

	r = h.run("push")
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.Contains(t, r.stdout, "Pushed 1 of 1 staged commit(s)\n")

	r = h.run("push")
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.Equal(t, "Nothing to push\n", r.stdout)

	r = h.run("status")
	require.Contains(t, r.stdout, "last commit: later")
}

func TestWhoami(t *testing.T) {
	h := newHarness(t)

	first := h.run("whoami")
	require.Equal(t, ExitOK, first.code, first.stderr)
	require.Contains(t, first.stdout, "Principal:")

	second := h.run("whoami")
	require.Equal(t, ExitOK, second.code, second.stderr)
	require.True(t, strings.HasSuffix(first.stdout, second.stdout), "identity is stable across runs")
}

func TestExitCodes(t *testing.T) {
	h := newHarness(t)

	r := h.run("clone")
	require.Equal(t, ExitUsage, r.code)
	require.Contains(t, r.stderr, "accepts 1 arg(s)")

	r = h.run("bogus")
	require.Equal(t, ExitUsage, r.code)
	require.Contains(t, r.stderr, `unknown command "bogus"`)

	r = h.run("comit")
	require.Equal(t, ExitUsage, r.code)
	require.Contains(t, r.stderr, "did you mean commit?")

	r = h.run("status", "--no-such-flag")
	require.Equal(t, ExitUsage, r.code)

	r = h.run("clone", "repo-404")
	require.Equal(t, ExitNotFound, r.code)
	require.Contains(t, r.stderr, "repository repo-404 not found")

	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"-C", h.dir, "--host", h.host, "status"}, &stdout, &stderr)
	require.Equal(t, ExitConfig, code)
	require.Contains(t, stderr.String(), "REPO_CANISTER_ID")
}

func TestExitCodes_CorruptIdentity(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "dgit-identity.json"), []byte("not json"), 0o600))

	r := h.run("status")
	require.Equal(t, ExitIdentity, r.code)
	require.Contains(t, r.stderr, "corrupt identity")
}

func TestExitCodes_RemoteDown(t *testing.T) {
	h := newHarness(t)
	down := httptest.NewServer(http.NotFoundHandler())
	h.host = down.URL
	down.Close()

	r := h.run("init")
	require.Equal(t, ExitUnavailable, r.code)
	require.Contains(t, r.stderr, "remote unavailable")
}

func TestExitCodes_Rejected(t *testing.T) {
	h := newHarness(t)
	h.write("a.mo", "a")

	r := h.run("commit", "-m", " ")
	require.Equal(t, ExitNotFound, r.code, "commit before init targets no repository")

	h.initRepo()
	r = h.run("commit", "-m", " ")
	require.Equal(t, ExitRejected, r.code)
	require.Contains(t, r.stderr, "commit message must not be empty")
	require.Contains(t, r.stdout, "Committed 0 of 1 file(s)")

	r = h.run("commit", "-m", "")
	require.Equal(t, ExitRejected, r.code)
	require.Contains(t, r.stderr, "commit message must not be empty")
}

func TestRootWithoutCommandPrintsHelp(t *testing.T) {
	h := newHarness(t)

	r := h.run()
	require.Equal(t, ExitOK, r.code, r.stderr)
	require.Contains(t, r.stdout, "Available Commands")
	require.NoFileExists(t, filepath.Join(h.dir, "dgit-identity.json"))
}

func TestExitCode_ClassifiesByType(t *testing.T) {
	require.Equal(t, ExitUsage, exitCode(usageError{errors.New("bad args")}))
	require.Equal(t, ExitGeneric, exitCode(errors.New("unknown command in some message")))
	require.Equal(t, ExitRejected, exitCode(fmt.Errorf("commit: %w", domain.ErrRemoteRejected)))
}

func TestPrintVerbatim(t *testing.T) {
	cases := map[string]string{
		"":           "\n",
		"files: 2":   "files: 2\n",
		"files: 2\n": "files: 2\n",
		"a\n\nb\n\n": "a\n\nb\n\n",
	}
	for in, want := range cases {
		var out bytes.Buffer
		printVerbatim(&out, in)
		require.Equal(t, want, out.String(), "input %q", in)
	}
}
