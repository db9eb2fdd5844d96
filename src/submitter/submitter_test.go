package submitter

import (
	"crypto/ecdsa"
	"errors"
	"testing"
	"time"

	cm "github.com/arborworks/canopy/src/common"
	"github.com/arborworks/canopy/src/crypto/keys"
	"github.com/arborworks/canopy/src/limiter"
	"github.com/arborworks/canopy/src/retry"
	"github.com/sirupsen/logrus"
)

func testRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Millisecond,
		MaxDelay:    20 * time.Millisecond,
	}
}

func testSigner(t *testing.T) *ecdsa.PrivateKey {
	key, err := keys.GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func testTransaction() *Transaction {
	return &Transaction{
		Payload: []byte("mint instruction"),
		Certification: Certification{
			Root:      make([]byte, 32),
			LeafHash:  make([]byte, 32),
			Proof:     [][]byte{make([]byte, 32)},
			LeafIndex: 0,
		},
	}
}

func newTestSubmitter(t *testing.T, client Client, rl *limiter.SlidingWindowLimiter) *Submitter {
	return NewSubmitter(client, rl, testRetryConfig(), cm.NewTestEntry(t, logrus.ErrorLevel))
}

func TestSubmit(t *testing.T) {
	client := NewInmemClient()
	client.SimulationLogs = []string{"Program log: all good"}

	s := newTestSubmitter(t, client, nil)

	confirmation, err := s.Submit(testTransaction(), testSigner(t))
	if err != nil {
		t.Fatal(err)
	}
	if confirmation == "" {
		t.Fatal("submit should return a confirmation id")
	}

	if client.SimulateCalls() != 1 {
		t.Fatalf("expected 1 simulation, got %d", client.SimulateCalls())
	}
	if client.SendCalls() != 1 {
		t.Fatalf("expected 1 send, got %d", client.SendCalls())
	}

	sent := client.Sent()
	if len(sent) != 1 || sent[0].Anchor == "" {
		t.Fatal("the sent transaction should carry a fresh anchor")
	}
}

func TestSentTransactionIsSigned(t *testing.T) {
	client := NewInmemClient()
	s := newTestSubmitter(t, client, nil)
	signer := testSigner(t)

	if _, err := s.Submit(testTransaction(), signer); err != nil {
		t.Fatal(err)
	}

	sent := client.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 accepted transaction, got %d", len(sent))
	}
	if sent[0].Signature == "" {
		t.Fatal("the sent transaction should carry a signature")
	}

	if !keys.VerifyDigest(&signer.PublicKey, sent[0].Digest(), sent[0].Signature) {
		t.Fatal("the signature should cover the transaction digest")
	}

	// The digest covers the anchor, so a transaction re-anchored without
	// re-signing must not verify.
	tampered := *sent[0]
	tampered.Anchor = "anchor-stale"
	if keys.VerifyDigest(&signer.PublicKey, tampered.Digest(), tampered.Signature) {
		t.Fatal("the signature should not survive an anchor change")
	}

	other := testSigner(t)
	if keys.VerifyDigest(&other.PublicKey, sent[0].Digest(), sent[0].Signature) {
		t.Fatal("the signature should not verify under another key")
	}
}

func TestSimulationFailureShortCircuits(t *testing.T) {
	client := NewInmemClient()
	client.SimulationErr = "custom program error: 0x1"

	s := newTestSubmitter(t, client, nil)

	_, err := s.Submit(testTransaction(), testSigner(t))
	if !IsSimulationError(err) {
		t.Fatalf("expected a SimulationError, got %v", err)
	}

	// A pre-flight rejection must occur before any network side effect and
	// must never be retried.
	if client.SendCalls() != 0 {
		t.Fatalf("no send should happen after a failed simulation, got %d", client.SendCalls())
	}
	if client.SimulateCalls() != 1 {
		t.Fatalf("a failed simulation should not be retried, got %d calls", client.SimulateCalls())
	}
}

func TestDisableSimulation(t *testing.T) {
	client := NewInmemClient()
	client.SimulationErr = "would fail if simulated"

	s := newTestSubmitter(t, client, nil)
	s.DisableSimulation()

	if _, err := s.Submit(testTransaction(), testSigner(t)); err != nil {
		t.Fatal(err)
	}

	if client.SimulateCalls() != 0 {
		t.Fatalf("simulation should be skipped, got %d calls", client.SimulateCalls())
	}
}

func TestRetriesWithFreshAnchor(t *testing.T) {
	client := NewInmemClient()
	client.SendFailures = 2

	s := newTestSubmitter(t, client, nil)

	confirmation, err := s.Submit(testTransaction(), testSigner(t))
	if err != nil {
		t.Fatal(err)
	}
	if confirmation == "" {
		t.Fatal("submission should eventually succeed")
	}

	if client.SendCalls() != 3 {
		t.Fatalf("expected 3 send attempts, got %d", client.SendCalls())
	}

	// The attempt that succeeded must not have reused the anchor of the
	// first attempt.
	sent := client.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 accepted transaction, got %d", len(sent))
	}
	if sent[0].Anchor != "anchor-3" {
		t.Fatalf("the third attempt should carry the third anchor, got %s", sent[0].Anchor)
	}
}

func TestTerminalFailureCarriesAttempts(t *testing.T) {
	client := NewInmemClient()
	client.SendFailures = 100

	s := newTestSubmitter(t, client, nil)

	_, err := s.Submit(testTransaction(), testSigner(t))
	if err == nil {
		t.Fatal("submission should fail")
	}

	var submitErr SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("expected a SubmitError, got %v", err)
	}
	if submitErr.Attempts != 3 {
		t.Fatalf("terminal failure should carry the attempt count 3, got %d", submitErr.Attempts)
	}

	var netErr NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("the last failure should be a NetworkError, got %v", submitErr.Err)
	}

	if client.SendCalls() != 3 {
		t.Fatalf("expected exactly 3 send attempts, got %d", client.SendCalls())
	}
}

func TestThrottling(t *testing.T) {
	client := NewInmemClient()
	rl := limiter.NewSlidingWindowLimiter(time.Hour, 1)

	s := newTestSubmitter(t, client, rl)
	signer := testSigner(t)

	if _, err := s.Submit(testTransaction(), signer); err != nil {
		t.Fatal(err)
	}

	_, err := s.Submit(testTransaction(), signer)
	if err != ErrThrottled {
		t.Fatalf("expected ErrThrottled, got %v", err)
	}

	// A throttled submission must not reach the network at all.
	if client.SimulateCalls() != 1 || client.SendCalls() != 1 {
		t.Fatal("a throttled submission should cause no network activity")
	}
}
