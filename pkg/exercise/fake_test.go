package exercise

// In-memory fakes of the smm contract. One fakeServer holds the state of a
// participant instance; connections, organizations and missions are cheap
// handles over it, freshly built per call the way the real client returns
// freshly deserialized objects.

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/searchops/imt-exercises/pkg/smm"
)

type fakeUser struct {
	username string
	password string
	role     string
}

type fakeOrgState struct {
	id   string
	name string
	// membership events in order, e.g. "rescue-1:A", "rescue-1:M"
	memberLog []string
	assets    []string
}

type fakeMissionOrgState struct {
	orgName string
	canAdd  bool
}

type fakeMissionState struct {
	id          string
	name        string
	description string
	waypoints   []string
	orgs        []*fakeMissionOrgState
	assetsAdded []string
	// status transitions in order, "asset=status"
	statusLog []string
}

type fakeServer struct {
	users        map[string]*fakeUser
	orgs         []*fakeOrgState
	assetTypes   []smm.AssetType
	statusValues []smm.StatusValue
	assets       map[string]smm.Asset
	missions     map[string]*fakeMissionState
	nextID       int

	// failOn maps an operation name to an error injected on that call.
	failOn map[string]error

	createdAssetTypes int
	createdOrgs       int
	missionAssetAdds  int
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		users:    make(map[string]*fakeUser),
		assets:   make(map[string]smm.Asset),
		missions: make(map[string]*fakeMissionState),
		failOn:   make(map[string]error),
	}
}

func (s *fakeServer) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeServer) fail(op string) error {
	return s.failOn[op]
}

// addOrg registers an organization directly on the server, the way the
// participant bootstrap would.
func (s *fakeServer) addOrg(name string) *fakeOrgState {
	org := &fakeOrgState{id: s.id("org"), name: name}
	s.orgs = append(s.orgs, org)
	return org
}

// joinMission simulates a real operator adding an organization to the
// mission through the web interface.
func (s *fakeServer) joinMission(missionID, orgName string) {
	m := s.missions[missionID]
	m.orgs = append(m.orgs, &fakeMissionOrgState{orgName: orgName})
}

func (s *fakeServer) mission() *fakeMissionState {
	for _, m := range s.missions {
		return m
	}
	return nil
}

type fakeInstance struct {
	server *fakeServer
}

func (i *fakeInstance) AdminConnect() smm.Connection {
	return i.Connect("admin", "admin-password")
}

func (i *fakeInstance) Connect(username, password string) smm.Connection {
	return &fakeConnection{server: i.server, username: username}
}

type fakeConnection struct {
	server   *fakeServer
	username string
}

func (c *fakeConnection) CreateUser(_ context.Context, username, password string) (smm.User, error) {
	if err := c.server.fail("CreateUser"); err != nil {
		return smm.User{}, err
	}
	c.server.users[username] = &fakeUser{username: username, password: password}
	return smm.User{ID: c.server.id("user"), Username: username}, nil
}

func (c *fakeConnection) CreateOrganization(_ context.Context, name string) (smm.Organization, error) {
	if err := c.server.fail("CreateOrganization"); err != nil {
		return nil, err
	}
	c.server.createdOrgs++
	org := c.server.addOrg(name)
	return &fakeOrganization{server: c.server, state: org}, nil
}

func (c *fakeConnection) GetOrganizations(_ context.Context, _ bool) ([]smm.Organization, error) {
	if err := c.server.fail("GetOrganizations"); err != nil {
		return nil, err
	}
	orgs := make([]smm.Organization, 0, len(c.server.orgs))
	for _, state := range c.server.orgs {
		orgs = append(orgs, &fakeOrganization{server: c.server, state: state})
	}
	return orgs, nil
}

func (c *fakeConnection) CreateAssetType(_ context.Context, name, _ string) (smm.AssetType, error) {
	if err := c.server.fail("CreateAssetType"); err != nil {
		return smm.AssetType{}, err
	}
	c.server.createdAssetTypes++
	at := smm.AssetType{ID: c.server.id("type"), Name: name}
	c.server.assetTypes = append(c.server.assetTypes, at)
	return at, nil
}

func (c *fakeConnection) GetAssetTypes(_ context.Context) ([]smm.AssetType, error) {
	if err := c.server.fail("GetAssetTypes"); err != nil {
		return nil, err
	}
	return append([]smm.AssetType(nil), c.server.assetTypes...), nil
}

func (c *fakeConnection) CreateAsset(_ context.Context, _ smm.User, name string, _ smm.AssetType) (smm.Asset, error) {
	if err := c.server.fail("CreateAsset"); err != nil {
		return smm.Asset{}, err
	}
	asset := smm.Asset{ID: c.server.id("asset"), Name: name}
	c.server.assets[name] = asset
	return asset, nil
}

func (c *fakeConnection) GetOrCreateAssetStatusValue(_ context.Context, name, _ string) (smm.StatusValue, error) {
	if err := c.server.fail("GetOrCreateAssetStatusValue"); err != nil {
		return smm.StatusValue{}, err
	}
	for _, value := range c.server.statusValues {
		if value.Name == name {
			return value, nil
		}
	}
	value := smm.StatusValue{ID: c.server.id("status"), Name: name}
	c.server.statusValues = append(c.server.statusValues, value)
	return value, nil
}

func (c *fakeConnection) CreateMission(_ context.Context, name, description string) (smm.Mission, error) {
	if err := c.server.fail("CreateMission"); err != nil {
		return nil, err
	}
	state := &fakeMissionState{id: c.server.id("mission"), name: name, description: description}
	c.server.missions[state.id] = state
	return &fakeMission{server: c.server, id: state.id}, nil
}

func (c *fakeConnection) Mission(id, _ string) smm.Mission {
	return &fakeMission{server: c.server, id: id}
}

func (c *fakeConnection) Organization(id, name string) smm.Organization {
	for _, state := range c.server.orgs {
		if state.id == id {
			return &fakeOrganization{server: c.server, state: state}
		}
	}
	return &fakeOrganization{server: c.server, state: &fakeOrgState{id: id, name: name}}
}

type fakeOrganization struct {
	server *fakeServer
	state  *fakeOrgState
}

func (o *fakeOrganization) ID() string   { return o.state.id }
func (o *fakeOrganization) Name() string { return o.state.name }

func (o *fakeOrganization) AddMember(_ context.Context, user smm.User, role smm.Role) error {
	if err := o.server.fail("AddMember"); err != nil {
		return err
	}
	o.state.memberLog = append(o.state.memberLog, fmt.Sprintf("%s:%s", user.Username, role))
	return nil
}

func (o *fakeOrganization) AddAsset(_ context.Context, asset smm.Asset) error {
	if err := o.server.fail("OrgAddAsset"); err != nil {
		return err
	}
	o.state.assets = append(o.state.assets, asset.Name)
	return nil
}

type fakeMission struct {
	server *fakeServer
	id     string
}

func (m *fakeMission) state() *fakeMissionState { return m.server.missions[m.id] }

func (m *fakeMission) ID() string { return m.id }

func (m *fakeMission) AddWaypoint(_ context.Context, _ orb.Point, name string) error {
	if err := m.server.fail("AddWaypoint"); err != nil {
		return err
	}
	m.state().waypoints = append(m.state().waypoints, name)
	return nil
}

func (m *fakeMission) AddOrganization(_ context.Context, org smm.Organization) (smm.MissionOrganization, error) {
	if err := m.server.fail("MissionAddOrganization"); err != nil {
		return nil, err
	}
	state := &fakeMissionOrgState{orgName: org.Name()}
	m.state().orgs = append(m.state().orgs, state)
	return &fakeMissionOrganization{server: m.server, state: state}, nil
}

// Organizations returns fresh handles each call; callers must diff by name,
// never by identity.
func (m *fakeMission) Organizations(_ context.Context) ([]smm.MissionOrganization, error) {
	if err := m.server.fail("MissionOrganizations"); err != nil {
		return nil, err
	}
	orgs := make([]smm.MissionOrganization, 0, len(m.state().orgs))
	for _, state := range m.state().orgs {
		orgs = append(orgs, &fakeMissionOrganization{server: m.server, state: state})
	}
	return orgs, nil
}

func (m *fakeMission) AddAsset(_ context.Context, asset smm.Asset) error {
	if err := m.server.fail("MissionAddAsset"); err != nil {
		return err
	}
	m.server.missionAssetAdds++
	m.state().assetsAdded = append(m.state().assetsAdded, asset.Name)
	return nil
}

func (m *fakeMission) SetAssetStatus(_ context.Context, asset smm.Asset, status smm.StatusValue, _ string) error {
	if err := m.server.fail("SetAssetStatus"); err != nil {
		return err
	}
	m.state().statusLog = append(m.state().statusLog, fmt.Sprintf("%s=%s", asset.Name, status.Name))
	return nil
}

type fakeMissionOrganization struct {
	server *fakeServer
	state  *fakeMissionOrgState
}

func (mo *fakeMissionOrganization) OrganizationName() string { return mo.state.orgName }

func (mo *fakeMissionOrganization) SetCanAddOrganizations(_ context.Context, allowed bool) error {
	if err := mo.server.fail("SetCanAddOrganizations"); err != nil {
		return err
	}
	mo.state.canAdd = allowed
	return nil
}

type fakeVehicle struct {
	spec    VehicleSpec
	started bool
	stopped bool
	stopErr error
}

func (v *fakeVehicle) Start(_ context.Context) error {
	v.started = true
	return nil
}

func (v *fakeVehicle) Stop(_ context.Context) error {
	if v.stopErr != nil {
		return v.stopErr
	}
	v.stopped = true
	return nil
}

type fakeVehicleFactory struct {
	vehicles []*fakeVehicle
	stopErr  error
}

func (f *fakeVehicleFactory) NewVehicle(_ context.Context, spec VehicleSpec) (Vehicle, error) {
	v := &fakeVehicle{spec: spec, stopErr: f.stopErr}
	f.vehicles = append(f.vehicles, v)
	return v, nil
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
