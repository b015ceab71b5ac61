// Package exercise implements the orchestration engine for a timed
// multi-party training exercise: per-asset lifecycle state machines, a
// per-participant reconciliation loop that detects organizations added to
// the mission by real operators, and a top-level runner that fans setup,
// mission creation, ticks and teardown out to every participant.
//
// The engine is single-threaded by design. Remote calls within a tick run
// sequentially, participant by participant, asset by asset; each
// participant's organization baseline is only replaced after its own
// reconciliation pass completes.
package exercise

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/searchops/imt-exercises/pkg/config"
	"github.com/searchops/imt-exercises/pkg/logger"
	"github.com/searchops/imt-exercises/pkg/smm"
	"github.com/searchops/imt-exercises/pkg/utils"
)

// Runner coordinates the whole exercise across its participants.
type Runner struct {
	cfg          *config.Exercise
	creds        CredentialSource
	clock        func() time.Time
	log          logger.Logger
	participants []*Participant
}

// Option configures a Runner.
type Option func(*Runner)

// WithCredentialSource injects the random credential source. Tests pass a
// seeded source for reproducible provisioning.
func WithCredentialSource(creds CredentialSource) Option {
	return func(r *Runner) { r.creds = creds }
}

// WithClock injects the time source used for asset lifecycle evaluation.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) { r.clock = clock }
}

// WithLogger injects the logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// New creates a Runner for the given exercise configuration. Asset types are
// checked against the vehicle kind table up front so an unknown type fails
// at startup rather than at launch time.
func New(cfg *config.Exercise, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("exercise configuration is required")
	}
	for _, def := range cfg.Assets {
		if _, ok := VehicleKindForAssetType(def.Type); !ok {
			return nil, fmt.Errorf("asset %s: unknown asset type %q", def.Name, def.Type)
		}
	}

	r := &Runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.creds == nil {
		r.creds = utils.NewDefaultStringSource()
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.log == nil {
		r.log = logger.WithPrefix(cfg.Name)
	}
	return r, nil
}

// AddParticipant provisions the given instance and retains it as a
// participant. Provisioning is all-or-nothing: on error the participant is
// not retained and the instance is left as-is.
func (r *Runner) AddParticipant(ctx context.Context, instance smm.Instance, vehicles VehicleFactory) error {
	p := newParticipant(r.cfg, instance, r.creds, vehicles, r.log)
	if err := p.provision(ctx); err != nil {
		return fmt.Errorf("failed to provision participant: %w", err)
	}
	r.participants = append(r.participants, p)
	r.log.Infof("participant %d provisioned with %d assets", len(r.participants), len(r.cfg.Assets))
	return nil
}

// Participants returns the provisioned participants in order.
func (r *Runner) Participants() []*Participant {
	return r.participants
}

// CreateMission creates the mission on every participant's instance. The
// missions are independent; there is no cross-participant synchronization.
func (r *Runner) CreateMission(ctx context.Context) error {
	for _, p := range r.participants {
		if err := p.CreateMission(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Tick advances the exercise by one observation interval: for every
// participant, in order, reconcile the mission organization list and then
// evaluate every asset's response clock. Idempotent when nothing changed
// remotely: repeated calls perform only the polling reads.
func (r *Runner) Tick(ctx context.Context) error {
	now := r.clock()
	for _, p := range r.participants {
		if err := p.Reconcile(ctx, now); err != nil {
			return err
		}
		if err := p.TimeTick(ctx, now); err != nil {
			return err
		}
	}
	return nil
}

// Stop tears down every participant. It proceeds through failures so a
// single faulty instance cannot block exercise shutdown, and is safe to call
// even if CreateMission was never invoked.
func (r *Runner) Stop(ctx context.Context) error {
	var errs []error
	for _, p := range r.participants {
		if err := p.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
