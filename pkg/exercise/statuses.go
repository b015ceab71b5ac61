package exercise

// AssetStatus is one value of the fixed mission asset status vocabulary.
// The vocabulary is created on each participant instance during provisioning
// and referenced by value afterwards.
type AssetStatus int

const (
	StatusAwaitingCrew AssetStatus = iota
	StatusAwaitingTasking
	StatusEnroute
	StatusSearching
	StatusInvestigating
	StatusReturningToBase
)

// missionAssetStatuses lists the vocabulary in creation order.
var missionAssetStatuses = []AssetStatus{
	StatusAwaitingCrew,
	StatusAwaitingTasking,
	StatusEnroute,
	StatusSearching,
	StatusInvestigating,
	StatusReturningToBase,
}

func (s AssetStatus) String() string {
	switch s {
	case StatusAwaitingCrew:
		return "Awaiting Crew"
	case StatusAwaitingTasking:
		return "Awaiting Tasking"
	case StatusEnroute:
		return "Enroute"
	case StatusSearching:
		return "Searching"
	case StatusInvestigating:
		return "Investigating"
	case StatusReturningToBase:
		return "Returning to Base"
	default:
		return "Unknown"
	}
}

// LifecycleState is an asset's position in the exercise lifecycle.
type LifecycleState int

const (
	StateNotAdded LifecycleState = iota
	StateAdded
	StateLaunched
)

func (s LifecycleState) String() string {
	switch s {
	case StateNotAdded:
		return "not-added"
	case StateAdded:
		return "added"
	case StateLaunched:
		return "launched"
	default:
		return "unknown"
	}
}

// VehicleKind is the simulated autopilot flavour a launched asset runs.
type VehicleKind string

const (
	VehiclePlane  VehicleKind = "plane"
	VehicleCopter VehicleKind = "copter"
	VehicleRover  VehicleKind = "rover"
)

// vehicleKindByAssetType maps the configured asset type vocabulary onto
// vehicle kinds.
var vehicleKindByAssetType = map[string]VehicleKind{
	"Aircraft":   VehiclePlane,
	"Helicopter": VehicleCopter,
	"Boat":       VehicleRover,
}

// VehicleKindForAssetType resolves the vehicle kind for a configured asset
// type.
func VehicleKindForAssetType(assetType string) (VehicleKind, bool) {
	kind, ok := vehicleKindByAssetType[assetType]
	return kind, ok
}
