package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/paulmach/orb"
	"github.com/searchops/imt-exercises/pkg/smm"
)

type missionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type statusValueResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type missionOrganizationResponse struct {
	ID                  string               `json:"id"`
	Organization        organizationResponse `json:"organization"`
	CanAddOrganizations bool                 `json:"can_add_organizations"`
}

// mission binds a remote mission to one connection. Handles are rebound per
// poll and carry no state beyond identity.
type mission struct {
	conn *Connection
	id   string
	name string
}

type missionOrganization struct {
	conn      *Connection
	missionID string
	id        string
	orgName   string
}

// GetOrCreateAssetStatusValue resolves a status value by name, creating it
// when absent.
func (c *Connection) GetOrCreateAssetStatusValue(ctx context.Context, name, label string) (smm.StatusValue, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/missions/status-values/", nil)
	if err != nil {
		return smm.StatusValue{}, fmt.Errorf("failed to get asset status values: %w", err)
	}

	var list []statusValueResponse
	if err := decodeResponse(resp, &list); err != nil {
		return smm.StatusValue{}, fmt.Errorf("failed to decode status values response: %w", err)
	}

	for _, value := range list {
		if value.Name == name {
			return smm.StatusValue{ID: value.ID, Name: value.Name}, nil
		}
	}

	body := map[string]string{
		"name":  name,
		"label": label,
	}
	resp, err = c.doRequest(ctx, http.MethodPost, "/api/missions/status-values/", body)
	if err != nil {
		return smm.StatusValue{}, fmt.Errorf("failed to create asset status value %s: %w", name, err)
	}

	var created statusValueResponse
	if err := decodeResponse(resp, &created); err != nil {
		return smm.StatusValue{}, fmt.Errorf("failed to decode status value response: %w", err)
	}

	return smm.StatusValue{ID: created.ID, Name: created.Name}, nil
}

// CreateMission creates a mission on the instance.
func (c *Connection) CreateMission(ctx context.Context, name, description string) (smm.Mission, error) {
	body := map[string]string{
		"name":        name,
		"description": description,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/missions/", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create mission %s: %w", name, err)
	}

	var m missionResponse
	if err := decodeResponse(resp, &m); err != nil {
		return nil, fmt.Errorf("failed to decode mission response: %w", err)
	}

	return &mission{conn: c, id: m.ID, name: m.Name}, nil
}

// Mission rebinds an already-created mission to this connection.
func (c *Connection) Mission(id, name string) smm.Mission {
	return &mission{conn: c, id: id, name: name}
}

func (m *mission) ID() string {
	return m.id
}

// AddWaypoint adds a named waypoint to the mission.
func (m *mission) AddWaypoint(ctx context.Context, point orb.Point, name string) error {
	path := fmt.Sprintf("/api/missions/%s/waypoints/", m.id)
	body := map[string]interface{}{
		"latitude":  point.Lat(),
		"longitude": point.Lon(),
		"label":     name,
	}

	resp, err := m.conn.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("failed to add waypoint %s to mission %s: %w", name, m.name, err)
	}
	closeBody(resp.Body)

	return nil
}

// AddOrganization adds an organization to the mission.
func (m *mission) AddOrganization(ctx context.Context, org smm.Organization) (smm.MissionOrganization, error) {
	path := fmt.Sprintf("/api/missions/%s/organizations/", m.id)
	body := map[string]string{"organization_id": org.ID()}

	resp, err := m.conn.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to add organization %s to mission %s: %w", org.Name(), m.name, err)
	}

	var mo missionOrganizationResponse
	if err := decodeResponse(resp, &mo); err != nil {
		return nil, fmt.Errorf("failed to decode mission organization response: %w", err)
	}

	return &missionOrganization{
		conn:      m.conn,
		missionID: m.id,
		id:        mo.ID,
		orgName:   mo.Organization.Name,
	}, nil
}

// Organizations lists the organizations currently added to the mission.
func (m *mission) Organizations(ctx context.Context) ([]smm.MissionOrganization, error) {
	path := fmt.Sprintf("/api/missions/%s/organizations/", m.id)

	resp, err := m.conn.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get mission organizations: %w", err)
	}

	var list []missionOrganizationResponse
	if err := decodeResponse(resp, &list); err != nil {
		return nil, fmt.Errorf("failed to decode mission organizations response: %w", err)
	}

	orgs := make([]smm.MissionOrganization, 0, len(list))
	for _, mo := range list {
		orgs = append(orgs, &missionOrganization{
			conn:      m.conn,
			missionID: m.id,
			id:        mo.ID,
			orgName:   mo.Organization.Name,
		})
	}
	return orgs, nil
}

// AddAsset adds an asset to the mission. The connected account must own the
// asset or hold an elevated role in its organization.
func (m *mission) AddAsset(ctx context.Context, asset smm.Asset) error {
	path := fmt.Sprintf("/api/missions/%s/assets/", m.id)
	body := map[string]string{"asset_id": asset.ID}

	resp, err := m.conn.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("failed to add asset %s to mission %s: %w", asset.Name, m.name, err)
	}
	closeBody(resp.Body)

	return nil
}

// SetAssetStatus sets the mission status of an asset.
func (m *mission) SetAssetStatus(ctx context.Context, asset smm.Asset, status smm.StatusValue, note string) error {
	path := fmt.Sprintf("/api/missions/%s/assets/%s/status/", m.id, asset.ID)
	body := map[string]string{
		"status_id": status.ID,
		"note":      note,
	}

	resp, err := m.conn.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("failed to set status of asset %s in mission %s: %w", asset.Name, m.name, err)
	}
	closeBody(resp.Body)

	return nil
}

func (mo *missionOrganization) OrganizationName() string {
	return mo.orgName
}

// SetCanAddOrganizations grants or revokes the ability of the organization's
// members to add further organizations to the mission.
func (mo *missionOrganization) SetCanAddOrganizations(ctx context.Context, allowed bool) error {
	path := fmt.Sprintf("/api/missions/%s/organizations/%s/", mo.missionID, mo.id)
	body := map[string]bool{"can_add_organizations": allowed}

	resp, err := mo.conn.doRequest(ctx, http.MethodPatch, path, body)
	if err != nil {
		return fmt.Errorf("failed to update mission organization %s: %w", mo.orgName, err)
	}
	closeBody(resp.Body)

	return nil
}
