package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dgit/internal/crypto"
)

func TestRequestID_IsDeterministic(t *testing.T) {
	r := Request{
		RequestType:   RequestTypeCall,
		CanisterID:    "c",
		MethodName:    MethodCommitCode,
		Arg:           []byte{1, 2, 3},
		Sender:        []byte{4},
		Nonce:         []byte{5},
		IngressExpiry: 42,
	}
	a, err := RequestID(r)
	require.NoError(t, err)
	b, err := RequestID(r)
	require.NoError(t, err)
	require.Equal(t, a, b)

	r.Nonce = []byte{6}
	c, err := RequestID(r)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestSignAndVerifyEnvelope(t *testing.T) {
	id, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)

	env, err := SignRequest(Request{
		RequestType:   RequestTypeQuery,
		CanisterID:    "c",
		MethodName:    MethodGetStatus,
		Sender:        crypto.SelfAuthenticating(id.Public),
		IngressExpiry: uint64(now.Add(time.Minute).UnixNano()),
	}, id)
	require.NoError(t, err)

	pub, err := VerifyEnvelope(env, now)
	require.NoError(t, err)
	require.Equal(t, id.Public, pub)

	_, err = VerifyEnvelope(env, now.Add(2*time.Minute))
	require.ErrorIs(t, err, ErrExpired)

	bad := env
	bad.SenderSig = append([]byte(nil), env.SenderSig...)
	bad.SenderSig[0] ^= 0xff
	_, err = VerifyEnvelope(bad, now)
	require.ErrorIs(t, err, ErrBadSignature)

	spoofed := env
	spoofed.Content.Sender = []byte{0x04}
	_, err = VerifyEnvelope(spoofed, now)
	require.ErrorIs(t, err, ErrSenderMismatch)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	id, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	env, err := SignRequest(Request{
		RequestType: RequestTypeCall,
		MethodName:  MethodCreateRepo,
		Sender:      crypto.SelfAuthenticating(id.Public),
	}, id)
	require.NoError(t, err)

	b, err := Marshal(env)
	require.NoError(t, err)
	var got Envelope
	require.NoError(t, Unmarshal(b, &got))
	require.Equal(t, env.SenderSig, got.SenderSig)
	require.Equal(t, env.Content.MethodName, got.Content.MethodName)

	_, err = VerifyEnvelope(got, time.Unix(0, 0))
	require.NoError(t, err)
}
