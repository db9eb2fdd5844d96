// Package submitter drives the remote "simulate then send" path with rate
// limiting and bounded retries.
package submitter

import (
	"crypto/ecdsa"

	"github.com/arborworks/canopy/src/crypto/keys"
	"github.com/arborworks/canopy/src/limiter"
	"github.com/arborworks/canopy/src/retry"
	"github.com/sirupsen/logrus"
)

// Submitter composes a SlidingWindowLimiter and a retry loop around a
// Client's simulate-then-send operation.
type Submitter struct {
	client            Client
	limiter           *limiter.SlidingWindowLimiter
	retryConfig       retry.Config
	simulationEnabled bool
	logger            *logrus.Entry
}

// NewSubmitter creates a Submitter. rl may be nil, in which case submissions
// are not rate limited. Simulation is enabled by default.
func NewSubmitter(client Client, rl *limiter.SlidingWindowLimiter, retryConfig retry.Config, logger *logrus.Entry) *Submitter {
	return &Submitter{
		client:            client,
		limiter:           rl,
		retryConfig:       retryConfig,
		simulationEnabled: true,
		logger:            logger.WithField("prefix", "submitter"),
	}
}

// DisableSimulation turns off the pre-flight dry run.
func (s *Submitter) DisableSimulation() {
	s.simulationEnabled = false
}

// Submit pushes a transaction to the remote network and returns its
// confirmation identifier.
//
// The sequence is: rate-limiter admission (ErrThrottled on rejection, before
// any network side effect); optional simulation (a simulation-reported
// failure short-circuits with a SimulationError and is never retried; the
// simulation's log output is logged and otherwise ignored); then send, with
// up to MaxAttempts attempts separated by exponential backoff. Every send
// attempt fetches a fresh anchor and re-signs the transaction digest over it,
// since a retried attempt must not reuse the stale reference point of a
// failed one. A terminal failure is returned as a
// SubmitError carrying the attempt count.
func (s *Submitter) Submit(tx *Transaction, signer *ecdsa.PrivateKey) (string, error) {
	if s.limiter != nil && !s.limiter.TryAdmit() {
		return "", ErrThrottled
	}

	if s.simulationEnabled {
		s.logger.Debug("Simulating transaction")

		sim, err := s.client.Simulate(tx, signer)
		if err != nil {
			return "", NetworkError{Err: err}
		}

		for _, line := range sim.Logs {
			s.logger.WithField("log", line).Info("Simulation log")
		}

		if sim.Err != "" {
			return "", SimulationError{Reason: sim.Err}
		}
	}

	var confirmation string

	err := retry.Do(s.retryConfig, s.logger, func() error {
		anchor, err := s.client.LatestAnchor()
		if err != nil {
			return NetworkError{Err: err}
		}

		attempt := *tx
		attempt.Anchor = anchor

		sig, err := keys.SignDigest(signer, attempt.Digest())
		if err != nil {
			return err
		}
		attempt.Signature = sig

		id, err := s.client.SendAndConfirm(&attempt, signer)
		if err != nil {
			return err
		}

		confirmation = id
		return nil
	})

	if err != nil {
		return "", SubmitError{Attempts: s.retryConfig.MaxAttempts, Err: err}
	}

	s.logger.WithField("confirmation", confirmation).Info("Transaction confirmed")

	return confirmation, nil
}
