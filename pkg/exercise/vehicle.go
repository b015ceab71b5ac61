package exercise

import (
	"context"

	"github.com/paulmach/orb"
)

// Vehicle is a running simulated vehicle feeding telemetry into the
// participant's instance.
type Vehicle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// VehicleSpec describes the vehicle to launch for an asset. The credentials
// are the asset's own account, so the telemetry feed appears as the asset.
type VehicleSpec struct {
	Name     string
	Kind     VehicleKind
	Username string
	Password string
	Base     orb.Point
}

// VehicleFactory constructs vehicles for one participant's instance.
type VehicleFactory interface {
	NewVehicle(ctx context.Context, spec VehicleSpec) (Vehicle, error)
}

// CredentialSource produces the random secrets used for generated accounts.
// Injecting it keeps provisioning deterministic under a seeded source.
type CredentialSource interface {
	RandomLowercase(length int) string
}
