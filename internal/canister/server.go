package canister

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"dgit/internal/agent"
	"dgit/internal/crypto"
	"dgit/internal/domain"
)

const maxRequestBytes = 64 << 20

// Server is the in-memory canister. The zero value is not usable; call New.
type Server struct {
	canisterID string
	log        *slog.Logger
	now        func() time.Time
	handler    http.Handler

	mu     sync.RWMutex
	next   int
	repos  map[string]*repository
	latest map[domain.Principal]string
	owned  map[domain.Principal]int

	callMu sync.Mutex
	calls  map[[32]byte]answered
}

// answered is the cached response to an update call, kept until the
// request's ingress expiry.
type answered struct {
	expiry uint64
	resp   agent.Response
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and event logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the clock used for ingress expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a server answering for canisterID. An empty id accepts any
// canister id in the request path.
func New(canisterID string, opts ...Option) *Server {
	s := &Server{
		canisterID: canisterID,
		log:        slog.New(slog.DiscardHandler),
		now:        time.Now,
		repos:      make(map[string]*repository),
		latest:     make(map[domain.Principal]string),
		owned:      make(map[domain.Principal]int),
		calls:      make(map[[32]byte]answered),
	}
	for _, o := range opts {
		o(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2/canister/{canister}/call", s.serve(agent.RequestTypeCall))
	mux.HandleFunc("POST /api/v2/canister/{canister}/query", s.serve(agent.RequestTypeQuery))
	s.handler = accessLog(s.log, mux)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) serve(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		var env agent.Envelope
		if err := agent.Unmarshal(data, &env); err != nil {
			http.Error(w, "decode envelope: "+err.Error(), http.StatusBadRequest)
			return
		}
		pub, err := agent.VerifyEnvelope(env, s.now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		c := env.Content
		if c.RequestType != kind {
			http.Error(w, fmt.Sprintf("request type %q sent to %s endpoint", c.RequestType, kind), http.StatusBadRequest)
			return
		}
		if c.CanisterID != r.PathValue("canister") {
			http.Error(w, "canister id in path does not match request", http.StatusBadRequest)
			return
		}

		var resp agent.Response
		switch {
		case s.canisterID != "" && c.CanisterID != s.canisterID:
			resp = rejected(reject(domain.RejectDestinationInvalid, "canister %s not found", c.CanisterID))
		case kind == agent.RequestTypeCall:
			if resp, err = s.call(crypto.Principal(pub), c); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		default:
			resp = s.answer(crypto.Principal(pub), c)
		}

		body, err := agent.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", agent.ContentType)
		_, _ = w.Write(body)
	}
}

// call answers an update call once per request id. A replayed envelope gets
// the original response without being applied again.
func (s *Server) call(sender domain.Principal, c agent.Request) (agent.Response, error) {
	rid, err := agent.RequestID(c)
	if err != nil {
		return agent.Response{}, fmt.Errorf("request id: %w", err)
	}

	s.callMu.Lock()
	defer s.callMu.Unlock()

	now := uint64(s.now().UnixNano())
	for k, a := range s.calls {
		if a.expiry < now {
			delete(s.calls, k)
		}
	}
	if a, ok := s.calls[rid]; ok {
		s.log.Debug("replayed call", "method", c.MethodName)
		return a.resp, nil
	}
	resp := s.answer(sender, c)
	s.calls[rid] = answered{expiry: c.IngressExpiry, resp: resp}
	return resp, nil
}

func (s *Server) answer(sender domain.Principal, c agent.Request) agent.Response {
	reply, err := s.dispatch(sender, c)
	if err != nil {
		return rejected(err)
	}
	var resp agent.Response
	if resp.Reply, err = agent.Marshal(reply); err != nil {
		return rejected(reject(domain.RejectCanisterError, "encode reply: %v", err))
	}
	resp.Status = agent.StatusReplied
	return resp
}

// rejection is a refusal carrying a reject code.
type rejection struct {
	code domain.RejectCode
	msg  string
}

func (r *rejection) Error() string { return r.msg }

func reject(code domain.RejectCode, format string, args ...any) error {
	return &rejection{code: code, msg: fmt.Sprintf(format, args...)}
}

func rejected(err error) agent.Response {
	var rj *rejection
	if !errors.As(err, &rj) {
		rj = &rejection{code: domain.RejectCanisterError, msg: err.Error()}
	}
	return agent.Response{
		Status:        agent.StatusRejected,
		RejectCode:    uint8(rj.code),
		RejectMessage: rj.msg,
		ErrorCode:     fmt.Sprintf("DGIT%d", rj.code),
	}
}
