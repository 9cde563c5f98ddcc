package agent

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dgit/internal/crypto"
	"dgit/internal/domain"
)

func testIdentity(t *testing.T) domain.Identity {
	t.Helper()
	id, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	return id
}

func replyWith(t *testing.T, resp Response) http.HandlerFunc {
	t.Helper()
	body, err := Marshal(resp)
	require.NoError(t, err)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		_, _ = w.Write(body)
	}
}

func TestClient_MissingCanisterID(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	c := New(srv.URL, "", testIdentity(t))
	_, err := c.GetStatus(context.Background())
	require.ErrorIs(t, err, domain.ErrConfigMissing)
	require.False(t, called, "no request may be sent without a canister id")
}

func TestClient_RequestShape(t *testing.T) {
	id := testIdentity(t)
	now := time.Unix(1_700_000_000, 0)
	var got Envelope
	var path, contentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, contentType = r.URL.Path, r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		_ = Unmarshal(b, &got)
		reply, _ := Marshal(GetStatusReply{Status: "ok"})
		out, _ := Marshal(Response{Status: StatusReplied, Reply: reply})
		_, _ = w.Write(out)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "cid", id, WithClock(func() time.Time { return now }))
	status, err := c.GetStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.StatusSummary("ok"), status)

	require.Equal(t, "/api/v2/canister/cid/query", path)
	require.Equal(t, ContentType, contentType)
	require.Equal(t, RequestTypeQuery, got.Content.RequestType)
	require.Equal(t, MethodGetStatus, got.Content.MethodName)
	require.Equal(t, uint64(now.Add(ingressWindow).UnixNano()), got.Content.IngressExpiry)

	pub, err := VerifyEnvelope(got, now)
	require.NoError(t, err)
	require.Equal(t, id.Public, pub)
}

func TestClient_CommitNonceIsDeterministic(t *testing.T) {
	var nonces [][]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env Envelope
		b, _ := io.ReadAll(r.Body)
		_ = Unmarshal(b, &env)
		nonces = append(nonces, env.Content.Nonce)
		out, _ := Marshal(Response{Status: StatusReplied})
		_, _ = w.Write(out)
	}))
	defer srv.Close()

	c := New(srv.URL, "cid", testIdentity(t))
	ctx := context.Background()
	require.NoError(t, c.CommitFile(ctx, "a.mo", []byte("x"), "Update"))
	require.NoError(t, c.CommitFile(ctx, "a.mo", []byte("x"), "Update"))
	require.NoError(t, c.CommitFile(ctx, "a.mo", []byte("y"), "Update"))

	require.Len(t, nonces, 3)
	digest := crypto.CommitDigest("a.mo", []byte("x"), "Update")
	require.Equal(t, digest[:], nonces[0])
	require.Equal(t, nonces[0], nonces[1])
	require.NotEqual(t, nonces[0], nonces[2])
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := map[string]struct {
		handler http.HandlerFunc
		want    error
		code    domain.RejectCode
	}{
		"server error": {
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusBadGateway) },
			want:    domain.ErrRemoteUnavailable,
		},
		"rate limited": {
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			want:    domain.ErrRemoteUnavailable,
		},
		"forbidden": {
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "bad sig", http.StatusForbidden) },
			want:    domain.ErrRemoteRejected,
		},
		"garbage body": {
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte{0xff, 0x00}) },
			want:    domain.ErrRemoteUnavailable,
		},
		"transient reject": {
			handler: replyWith(t, Response{Status: StatusRejected, RejectCode: 2, RejectMessage: "busy"}),
			want:    domain.ErrRemoteUnavailable,
			code:    domain.RejectSysTransient,
		},
		"destination invalid": {
			handler: replyWith(t, Response{Status: StatusRejected, RejectCode: 3, RejectMessage: "no such repo"}),
			want:    domain.ErrNotFound,
			code:    domain.RejectDestinationInvalid,
		},
		"canister reject": {
			handler: replyWith(t, Response{Status: StatusRejected, RejectCode: 4, RejectMessage: "nope"}),
			want:    domain.ErrRemoteRejected,
			code:    domain.RejectCanisterReject,
		},
		"canister error": {
			handler: replyWith(t, Response{Status: StatusRejected, RejectCode: 5, RejectMessage: "trap"}),
			want:    domain.ErrRemoteRejected,
			code:    domain.RejectCanisterError,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := New(srv.URL, "cid", testIdentity(t))
			_, err := c.ListFiles(context.Background(), "repo-1")
			require.ErrorIs(t, err, tc.want)

			var re *domain.RemoteError
			require.ErrorAs(t, err, &re)
			require.Equal(t, MethodListFiles, re.Method)
			require.Equal(t, tc.code, re.Code)
		})
	}
}

func TestClient_RejectMessageIsVerbatim(t *testing.T) {
	srv := httptest.NewServer(replyWith(t, Response{Status: StatusRejected, RejectCode: 4, RejectMessage: "quota exceeded: 10 repos"}))
	defer srv.Close()

	c := New(srv.URL, "cid", testIdentity(t))
	err := c.CommitFile(context.Background(), "a.mo", nil, "m")
	var re *domain.RemoteError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "quota exceeded: 10 repos", re.Message)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, "cid", testIdentity(t))
	_, err := c.CreateRepository(context.Background())
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, "cid", testIdentity(t), WithTimeout(50*time.Millisecond))
	_, err := c.GetStatus(context.Background())
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
