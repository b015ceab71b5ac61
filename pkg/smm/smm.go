// Package smm defines the contract the exercise engine consumes from a
// remote Search Management Map instance. The engine only ever talks to these
// interfaces; the HTTP implementation lives in smm/rest and the container
// provisioning that produces Instances lives in pkg/instance.
package smm

import (
	"context"

	"github.com/paulmach/orb"
)

// Role is an organization membership role.
type Role string

const (
	// RoleAdmin can manage the organization, including registering assets.
	RoleAdmin Role = "A"
	// RoleMember is standard membership.
	RoleMember Role = "M"
)

// User is a registered account on the remote instance.
type User struct {
	ID       string
	Username string
}

// AssetType is a registered asset type on the remote instance.
type AssetType struct {
	ID   string
	Name string
}

// StatusValue is one value of the mission asset status vocabulary.
type StatusValue struct {
	ID   string
	Name string
}

// Asset is a registered asset on the remote instance.
type Asset struct {
	ID   string
	Name string
}

// Instance is a running remote instance the engine can connect to.
type Instance interface {
	// AdminConnect returns a connection authenticated as the instance
	// administrator.
	AdminConnect() Connection

	// Connect returns a connection authenticated as the given account.
	Connect(username, password string) Connection
}

// Connection is an authenticated client session against one instance.
type Connection interface {
	CreateUser(ctx context.Context, username, password string) (User, error)
	CreateOrganization(ctx context.Context, name string) (Organization, error)
	// GetOrganizations lists organizations the connected account can see;
	// includeAll extends the listing to every organization on the instance.
	GetOrganizations(ctx context.Context, includeAll bool) ([]Organization, error)
	CreateAssetType(ctx context.Context, name, label string) (AssetType, error)
	GetAssetTypes(ctx context.Context) ([]AssetType, error)
	CreateAsset(ctx context.Context, owner User, name string, assetType AssetType) (Asset, error)
	// GetOrCreateAssetStatusValue resolves a status value by name, creating
	// it when absent.
	GetOrCreateAssetStatusValue(ctx context.Context, name, label string) (StatusValue, error)
	CreateMission(ctx context.Context, name, description string) (Mission, error)

	// Mission rebinds an already-created mission to this connection. Each
	// poll returns a fresh handle; callers must not compare handles for
	// identity.
	Mission(id, name string) Mission

	// Organization rebinds a known organization to this connection.
	Organization(id, name string) Organization
}

// Organization is a named grouping of accounts on one instance.
type Organization interface {
	ID() string
	Name() string
	AddMember(ctx context.Context, user User, role Role) error
	// AddAsset registers an asset under this organization. The connection
	// the handle is bound to must hold an elevated role in the organization.
	AddAsset(ctx context.Context, asset Asset) error
}

// Mission is a created mission on one instance.
type Mission interface {
	ID() string
	AddWaypoint(ctx context.Context, point orb.Point, name string) error
	AddOrganization(ctx context.Context, org Organization) (MissionOrganization, error)
	Organizations(ctx context.Context) ([]MissionOrganization, error)
	AddAsset(ctx context.Context, asset Asset) error
	SetAssetStatus(ctx context.Context, asset Asset, status StatusValue, note string) error
}

// MissionOrganization is an organization's membership of a mission.
type MissionOrganization interface {
	OrganizationName() string
	// SetCanAddOrganizations grants or revokes the ability of this
	// organization's members to add further organizations to the mission.
	SetCanAddOrganizations(ctx context.Context, allowed bool) error
}
