package exercise

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/searchops/imt-exercises/pkg/config"
	"github.com/searchops/imt-exercises/pkg/logger"
	"github.com/searchops/imt-exercises/pkg/smm"
)

// Asset tracks one configured asset through the exercise lifecycle
// NotAdded -> Added -> Launched. It owns the asset's registered account, its
// remote handles, and, once launched, its simulated vehicle.
type Asset struct {
	def      config.Asset
	username string
	password string
	account  smm.User
	remote   smm.Asset
	conn     smm.Connection
	statuses map[AssetStatus]smm.StatusValue
	vehicles VehicleFactory
	log      logger.Logger

	missionID   string
	missionName string
	addedAt     time.Time
	launchedAt  time.Time
	vehicle     Vehicle
}

// Name returns the configured asset name.
func (a *Asset) Name() string {
	return a.def.Name
}

// Organization returns the configured owning organization name.
func (a *Asset) Organization() string {
	return a.def.Organization
}

// State derives the lifecycle state from the recorded timestamps.
func (a *Asset) State() LifecycleState {
	switch {
	case !a.launchedAt.IsZero():
		return StateLaunched
	case !a.addedAt.IsZero():
		return StateAdded
	default:
		return StateNotAdded
	}
}

// AddedAt returns when the asset was added to the mission; zero until then.
func (a *Asset) AddedAt() time.Time {
	return a.addedAt
}

// LaunchedAt returns when the asset launched its vehicle; zero until then.
func (a *Asset) LaunchedAt() time.Time {
	return a.launchedAt
}

func (a *Asset) responseThreshold() time.Duration {
	return time.Duration(a.def.ResponseTimeMins) * time.Minute
}

// AddToMission registers the asset against the mission, sets its status to
// Awaiting Crew and starts the response clock. It must be called at most
// once; a second call would re-register the asset and reset the clock, so it
// is rejected.
func (a *Asset) AddToMission(ctx context.Context, missionID, missionName string, now time.Time) error {
	if a.State() != StateNotAdded {
		return fmt.Errorf("asset %s is already added to a mission", a.def.Name)
	}

	mission := a.conn.Mission(missionID, missionName)
	if err := mission.AddAsset(ctx, a.remote); err != nil {
		return fmt.Errorf("failed to add asset %s to mission: %w", a.def.Name, err)
	}
	if err := mission.SetAssetStatus(ctx, a.remote, a.statuses[StatusAwaitingCrew], ""); err != nil {
		return fmt.Errorf("failed to set status of asset %s: %w", a.def.Name, err)
	}

	a.missionID = missionID
	a.missionName = missionName
	a.addedAt = now
	a.log.Infof("asset %s added to mission, responding in %s", a.def.Name, a.responseThreshold())
	return nil
}

// Evaluate launches the asset once its response time has elapsed. It is a
// no-op before the asset is added and after it has launched, so it is safe
// to call on every tick. This is the only place a vehicle is ever created;
// at most one per asset.
func (a *Asset) Evaluate(ctx context.Context, now time.Time) error {
	if a.State() != StateAdded {
		return nil
	}
	if now.Sub(a.addedAt) < a.responseThreshold() {
		return nil
	}

	mission := a.conn.Mission(a.missionID, a.missionName)
	if err := mission.SetAssetStatus(ctx, a.remote, a.statuses[StatusAwaitingTasking], ""); err != nil {
		return fmt.Errorf("failed to set status of asset %s: %w", a.def.Name, err)
	}
	a.launchedAt = now

	kind, ok := VehicleKindForAssetType(a.def.Type)
	if !ok {
		// Asset types are validated when the runner is created.
		return fmt.Errorf("asset %s has unknown type %q", a.def.Name, a.def.Type)
	}

	vehicle, err := a.vehicles.NewVehicle(ctx, VehicleSpec{
		Name:     a.def.Name,
		Kind:     kind,
		Username: a.username,
		Password: a.password,
		Base:     orb.Point{*a.def.BaseLocation.Longitude, *a.def.BaseLocation.Latitude},
	})
	if err != nil {
		return fmt.Errorf("failed to create vehicle for asset %s: %w", a.def.Name, err)
	}
	if err := vehicle.Start(ctx); err != nil {
		return fmt.Errorf("failed to start vehicle for asset %s: %w", a.def.Name, err)
	}

	a.vehicle = vehicle
	a.log.Infof("asset %s launched as %s vehicle", a.def.Name, kind)
	return nil
}

// Stop tears down the asset's vehicle if one was launched.
func (a *Asset) Stop(ctx context.Context) error {
	if a.vehicle == nil {
		return nil
	}

	if err := a.vehicle.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop vehicle for asset %s: %w", a.def.Name, err)
	}
	a.vehicle = nil
	return nil
}
