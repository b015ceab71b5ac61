package exercise

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchops/imt-exercises/pkg/config"
	"github.com/searchops/imt-exercises/pkg/utils"
)

func testExercise() *config.Exercise {
	return &config.Exercise{
		Name:        "Alpine Search",
		Description: "Search exercise",
		POIs: []config.POI{
			{Name: "Last Known Position", Location: &config.Location{Latitude: floatPtr(-43.43), Longitude: floatPtr(171.54)}},
			{Name: "No Location"},
			{Location: &config.Location{Latitude: floatPtr(-43.44), Longitude: floatPtr(171.56)}},
			{Name: "Partial", Location: &config.Location{Latitude: floatPtr(-43.45)}},
		},
		Assets: []config.Asset{
			assetDef("Rescue-1", "Aircraft", "Alpha", 1),
			assetDef("Rescue 2", "Helicopter", "Bravo", 5),
			assetDef("Shore/Boat", "Boat", "Alpha", 2),
		},
	}
}

// newTestParticipant provisions a participant against a fresh fake server.
func newTestParticipant(t *testing.T, cfg *config.Exercise) (*Participant, *fakeServer, *fakeVehicleFactory) {
	t.Helper()

	server := newFakeServer()
	factory := &fakeVehicleFactory{}

	runner, err := New(cfg,
		WithCredentialSource(utils.NewStringSource(1)),
		WithClock(newFakeClock().Now),
	)
	require.NoError(t, err)
	require.NoError(t, runner.AddParticipant(context.Background(), &fakeInstance{server: server}, factory))
	return runner.Participants()[0], server, factory
}

func TestProvisioning(t *testing.T) {
	p, server, _ := newTestParticipant(t, testExercise())

	// Monitor account with a 12 character random password
	monitor, ok := server.users[MonitorUsername]
	require.True(t, ok, "monitor account must exist")
	assert.Len(t, monitor.password, 12)
	assert.Equal(t, monitor.password, p.monitorPassword)

	// Full status vocabulary, in order
	require.Len(t, server.statusValues, len(missionAssetStatuses))
	assert.Equal(t, "Awaiting Crew", server.statusValues[0].Name)
	assert.Equal(t, "Returning to Base", server.statusValues[len(server.statusValues)-1].Name)

	// Asset accounts use sanitized names
	for _, username := range []string{"rescue-1", "rescue.2", "shore.boat"} {
		u, ok := server.users[username]
		require.True(t, ok, "account %s must exist", username)
		assert.Len(t, u.password, 10)
	}

	// Organizations resolved once each
	assert.Equal(t, 2, server.createdOrgs, "Alpha and Bravo")

	// Membership dance per asset: elevate, then demote, asset registered in between
	var alpha *fakeOrgState
	for _, org := range server.orgs {
		if org.name == "Alpha" {
			alpha = org
		}
	}
	require.NotNil(t, alpha)
	assert.Equal(t, []string{"rescue-1:A", "rescue-1:M", "shore.boat:A", "shore.boat:M"}, alpha.memberLog)
	assert.Equal(t, []string{"Rescue-1", "Shore/Boat"}, alpha.assets)

	// All assets start not-added
	for _, def := range testExercise().Assets {
		assert.Equal(t, StateNotAdded, p.assets[def.Name].State())
	}
}

func TestProvisioningFailureIsFatal(t *testing.T) {
	server := newFakeServer()
	server.failOn["CreateAsset"] = assert.AnError

	runner, err := New(testExercise(), WithCredentialSource(utils.NewStringSource(1)))
	require.NoError(t, err)

	err = runner.AddParticipant(context.Background(), &fakeInstance{server: server}, &fakeVehicleFactory{})
	require.Error(t, err)
	assert.Empty(t, runner.Participants(), "half-provisioned participant must not be retained")
}

func TestGetOrCreateAssetTypeReusesExisting(t *testing.T) {
	server := newFakeServer()
	conn := &fakeConnection{server: server}
	ctx := context.Background()

	first, err := getOrCreateAssetType(ctx, conn, "Aircraft")
	require.NoError(t, err)
	second, err := getOrCreateAssetType(ctx, conn, "Aircraft")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, server.createdAssetTypes)
}

func TestGetOrCreateOrganizationReusesExisting(t *testing.T) {
	server := newFakeServer()
	conn := &fakeConnection{server: server}
	ctx := context.Background()

	first, err := getOrCreateOrganization(ctx, conn, "Alpha")
	require.NoError(t, err)
	second, err := getOrCreateOrganization(ctx, conn, "Alpha")
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, 1, server.createdOrgs)
}

func TestCreateMissionSkipsIncompletePOIs(t *testing.T) {
	p, server, _ := newTestParticipant(t, testExercise())

	require.NoError(t, p.CreateMission(context.Background()))

	mission := server.mission()
	require.NotNil(t, mission)
	assert.Equal(t, []string{"Last Known Position"}, mission.waypoints)
}

func TestCreateMissionWithoutUmbrellaOrganization(t *testing.T) {
	p, server, _ := newTestParticipant(t, testExercise())

	// No IMT organization exists; the mission starts with no organizations
	require.NoError(t, p.CreateMission(context.Background()))
	assert.Empty(t, server.mission().orgs)
}

func TestCreateMissionGrantsUmbrellaOrganization(t *testing.T) {
	cfg := testExercise()
	server := newFakeServer()
	server.addOrg(UmbrellaOrganization)

	runner, err := New(cfg, WithCredentialSource(utils.NewStringSource(1)))
	require.NoError(t, err)
	require.NoError(t, runner.AddParticipant(context.Background(), &fakeInstance{server: server}, &fakeVehicleFactory{}))
	p := runner.Participants()[0]

	require.NoError(t, p.CreateMission(context.Background()))

	mission := server.mission()
	require.Len(t, mission.orgs, 1)
	assert.Equal(t, UmbrellaOrganization, mission.orgs[0].orgName)
	assert.True(t, mission.orgs[0].canAdd)
}

func TestReconcileActivatesMatchingAssets(t *testing.T) {
	p, server, _ := newTestParticipant(t, testExercise())
	ctx := context.Background()
	clock := newFakeClock()

	require.NoError(t, p.CreateMission(ctx))
	require.NoError(t, p.Reconcile(ctx, clock.Now()))

	// Operator adds Alpha to the mission
	server.joinMission(p.MissionID(), "Alpha")
	require.NoError(t, p.Reconcile(ctx, clock.Now()))

	assert.Equal(t, StateAdded, p.assets["Rescue-1"].State())
	assert.Equal(t, StateAdded, p.assets["Shore/Boat"].State())
	assert.Equal(t, StateNotAdded, p.assets["Rescue 2"].State())
	assert.Equal(t, 2, server.missionAssetAdds)

	// No remote change: the second pass performs no activations
	require.NoError(t, p.Reconcile(ctx, clock.Now()))
	assert.Equal(t, 2, server.missionAssetAdds)
}

func TestReconcilePicksUpMultipleOrganizationsInOnePoll(t *testing.T) {
	p, server, _ := newTestParticipant(t, testExercise())
	ctx := context.Background()
	clock := newFakeClock()

	require.NoError(t, p.CreateMission(ctx))

	// Two organizations appear between polls
	server.joinMission(p.MissionID(), "Alpha")
	server.joinMission(p.MissionID(), "Bravo")
	require.NoError(t, p.Reconcile(ctx, clock.Now()))

	assert.Equal(t, StateAdded, p.assets["Rescue-1"].State())
	assert.Equal(t, StateAdded, p.assets["Rescue 2"].State())
	assert.Equal(t, StateAdded, p.assets["Shore/Boat"].State())
}

func TestReconcileIgnoresUnmatchedOrganizations(t *testing.T) {
	p, server, _ := newTestParticipant(t, testExercise())
	ctx := context.Background()
	clock := newFakeClock()

	require.NoError(t, p.CreateMission(ctx))
	server.joinMission(p.MissionID(), "Charlie")
	require.NoError(t, p.Reconcile(ctx, clock.Now()))

	for name := range p.assets {
		assert.Equal(t, StateNotAdded, p.assets[name].State())
	}
	assert.Zero(t, server.missionAssetAdds)
}

func TestReconcileBeforeMissionCreationIsNoOp(t *testing.T) {
	p, _, _ := newTestParticipant(t, testExercise())
	require.NoError(t, p.Reconcile(context.Background(), newFakeClock().Now()))
}

func TestStopWithNoLaunchedAssets(t *testing.T) {
	p, _, factory := newTestParticipant(t, testExercise())

	require.NoError(t, p.Stop(context.Background()))
	assert.Empty(t, factory.vehicles)
}
