package submitter

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"github.com/arborworks/canopy/src/crypto/keys"
)

// InmemClient implements the Client interface in memory. Failures are
// scripted: the first SendFailures send attempts fail with a NetworkError,
// and a non-empty SimulationErr makes every simulation report a rejection.
// Sends are accepted only when the transaction's signature verifies against
// the signer's public key. It is used for testing and for running the engine
// without a network.
type InmemClient struct {
	sync.Mutex

	SimulationErr  string
	SimulationLogs []string
	SendFailures   int

	anchorCount   int
	simulateCalls int
	sendCalls     int
	sent          []*Transaction
}

// NewInmemClient creates an InmemClient that accepts everything.
func NewInmemClient() *InmemClient {
	return &InmemClient{}
}

// LatestAnchor implements the Client interface. Each call returns a new
// anchor, so tests can observe that retried attempts do not reuse one.
func (c *InmemClient) LatestAnchor() (string, error) {
	c.Lock()
	defer c.Unlock()

	c.anchorCount++

	return fmt.Sprintf("anchor-%d", c.anchorCount), nil
}

// Simulate implements the Client interface.
func (c *InmemClient) Simulate(tx *Transaction, signer *ecdsa.PrivateKey) (*SimulationResult, error) {
	c.Lock()
	defer c.Unlock()

	c.simulateCalls++

	return &SimulationResult{
		Err:  c.SimulationErr,
		Logs: c.SimulationLogs,
	}, nil
}

// SendAndConfirm implements the Client interface.
func (c *InmemClient) SendAndConfirm(tx *Transaction, signer *ecdsa.PrivateKey) (string, error) {
	c.Lock()
	defer c.Unlock()

	c.sendCalls++

	if c.sendCalls <= c.SendFailures {
		return "", NetworkError{Err: errors.New("connection refused")}
	}

	if !keys.VerifyDigest(&signer.PublicKey, tx.Digest(), tx.Signature) {
		return "", errors.New("transaction signature does not verify")
	}

	sent := *tx
	c.sent = append(c.sent, &sent)

	return fmt.Sprintf("confirmation-%d", len(c.sent)), nil
}

// SimulateCalls returns the number of simulations performed.
func (c *InmemClient) SimulateCalls() int {
	c.Lock()
	defer c.Unlock()
	return c.simulateCalls
}

// SendCalls returns the number of send attempts observed.
func (c *InmemClient) SendCalls() int {
	c.Lock()
	defer c.Unlock()
	return c.sendCalls
}

// Sent returns the transactions that were accepted, in order.
func (c *InmemClient) Sent() []*Transaction {
	c.Lock()
	defer c.Unlock()

	res := make([]*Transaction, len(c.sent))
	copy(res, c.sent)
	return res
}
