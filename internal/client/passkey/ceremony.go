package passkey

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
)

// ErrNotAllowed is returned by a Platform when the user dismisses the
// prompt or the operation times out (WebAuthn NotAllowedError).
var ErrNotAllowed = errors.New("not allowed")

// ErrCeremonyUsed is returned when a finished Ceremony is started again.
var ErrCeremonyUsed = errors.New("ceremony already started")

// Platform is the authenticator bridge provided by the hosting environment.
type Platform interface {
	Create(ctx context.Context, opts *CreationOptions) (*AttestationCredential, error)
	Get(ctx context.Context, opts *RequestOptions) (*AssertionCredential, error)
}

// IsSupported reports whether passkeys can be used at all.
func IsSupported(p Platform) bool {
	return p != nil
}

type State int

const (
	StateIdle State = iota
	StateOptionsRequested
	StatePlatformPrompted
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOptionsRequested:
		return "options_requested"
	case StatePlatformPrompted:
		return "platform_prompted"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the typed result of a finished ceremony.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeCancelled
	OutcomeFailed
)

// OutcomeOf classifies an error returned by Register or Authenticate.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, common.ErrCeremonyCancelled):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// Ceremony is a single registration or authentication attempt:
// Idle -> OptionsRequested -> PlatformPrompted -> Completed|Cancelled|Failed.
// A Ceremony is used once.
type Ceremony struct {
	platform Platform

	mu    sync.Mutex
	state State
}

func NewCeremony(p Platform) *Ceremony {
	return &Ceremony{platform: p}
}

func (c *Ceremony) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Ceremony) advance(from, to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return fmt.Errorf("%w: state %s", ErrCeremonyUsed, c.state)
	}
	c.state = to
	return nil
}

func (c *Ceremony) finish(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Ceremony) fail(format string, args ...any) error {
	c.finish(StateFailed)
	return fmt.Errorf("%w: %s", common.ErrCeremonyFailed, fmt.Sprintf(format, args...))
}

func (c *Ceremony) failWith(action string, err error) error {
	c.finish(StateFailed)
	return fmt.Errorf("%w: %s: %w", common.ErrCeremonyFailed, action, err)
}

func (c *Ceremony) platformError(ctx context.Context, action string, err error) error {
	if errors.Is(err, ErrNotAllowed) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		c.finish(StateCancelled)
		return fmt.Errorf("%w: passkey %s was cancelled", common.ErrCeremonyCancelled, action)
	}
	return c.fail("passkey %s: %v", action, err)
}

// Register fetches creation options with begin, prompts the platform and
// returns the attestation to post to the finish endpoint.
func (c *Ceremony) Register(ctx context.Context, begin func(context.Context) (*CreationOptionsJSON, error), name string) (*AttestationResponse, error) {
	if err := c.advance(StateIdle, StateOptionsRequested); err != nil {
		return nil, err
	}
	if !IsSupported(c.platform) {
		return nil, c.fail("passkeys are not supported on this platform")
	}

	raw, err := begin(ctx)
	if err != nil {
		return nil, c.failWith("get registration options", err)
	}
	opts, err := PrepareCreationOptions(raw)
	if err != nil {
		return nil, c.fail("registration options: %v", err)
	}

	if err := c.advance(StateOptionsRequested, StatePlatformPrompted); err != nil {
		return nil, err
	}
	cred, err := c.platform.Create(ctx, opts)
	if err != nil {
		return nil, c.platformError(ctx, "registration", err)
	}
	if cred == nil {
		return nil, c.fail("platform returned no credential")
	}

	c.finish(StateCompleted)
	return newAttestationResponse(cred, name), nil
}

// Authenticate fetches request options with begin, prompts the platform and
// returns the assertion plus the PRF output when the authenticator ran it.
// A missing PRF output is not an error.
func (c *Ceremony) Authenticate(ctx context.Context, begin func(context.Context) (*RequestOptionsJSON, error)) (*AssertionResult, error) {
	if err := c.advance(StateIdle, StateOptionsRequested); err != nil {
		return nil, err
	}
	if !IsSupported(c.platform) {
		return nil, c.fail("passkeys are not supported on this platform")
	}

	raw, err := begin(ctx)
	if err != nil {
		return nil, c.failWith("get authentication options", err)
	}
	opts, err := PrepareRequestOptions(raw)
	if err != nil {
		return nil, c.fail("authentication options: %v", err)
	}

	if err := c.advance(StateOptionsRequested, StatePlatformPrompted); err != nil {
		return nil, err
	}
	cred, err := c.platform.Get(ctx, opts)
	if err != nil {
		return nil, c.platformError(ctx, "authentication", err)
	}
	if cred == nil {
		return nil, c.fail("platform returned no credential")
	}

	c.finish(StateCompleted)
	return newAssertionResult(cred), nil
}
