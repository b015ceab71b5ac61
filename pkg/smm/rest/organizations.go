package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/searchops/imt-exercises/pkg/smm"
)

type organizationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// organization binds a remote organization to the connection it was fetched
// or rebound on.
type organization struct {
	conn *Connection
	id   string
	name string
}

// CreateOrganization creates a new organization on the instance.
func (c *Connection) CreateOrganization(ctx context.Context, name string) (smm.Organization, error) {
	body := map[string]string{"name": name}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/organizations/", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization %s: %w", name, err)
	}

	var org organizationResponse
	if err := decodeResponse(resp, &org); err != nil {
		return nil, fmt.Errorf("failed to decode organization response: %w", err)
	}

	return &organization{conn: c, id: org.ID, name: org.Name}, nil
}

// GetOrganizations lists organizations visible to the connected account.
func (c *Connection) GetOrganizations(ctx context.Context, includeAll bool) ([]smm.Organization, error) {
	path := "/api/organizations/"
	if includeAll {
		path += "?all=true"
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get organizations: %w", err)
	}

	var list []organizationResponse
	if err := decodeResponse(resp, &list); err != nil {
		return nil, fmt.Errorf("failed to decode organizations response: %w", err)
	}

	orgs := make([]smm.Organization, 0, len(list))
	for _, org := range list {
		orgs = append(orgs, &organization{conn: c, id: org.ID, name: org.Name})
	}
	return orgs, nil
}

// Organization rebinds a known organization to this connection.
func (c *Connection) Organization(id, name string) smm.Organization {
	return &organization{conn: c, id: id, name: name}
}

func (o *organization) ID() string {
	return o.id
}

func (o *organization) Name() string {
	return o.name
}

// AddMember adds an account to the organization with the given role.
// Re-adding an existing member updates the role.
func (o *organization) AddMember(ctx context.Context, user smm.User, role smm.Role) error {
	path := fmt.Sprintf("/api/organizations/%s/members/", o.id)
	body := map[string]string{
		"user_id": user.ID,
		"role":    string(role),
	}

	resp, err := o.conn.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("failed to add member %s to organization %s: %w", user.Username, o.name, err)
	}
	closeBody(resp.Body)

	return nil
}

// AddAsset registers an asset under the organization.
func (o *organization) AddAsset(ctx context.Context, asset smm.Asset) error {
	path := fmt.Sprintf("/api/organizations/%s/assets/", o.id)
	body := map[string]string{"asset_id": asset.ID}

	resp, err := o.conn.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return fmt.Errorf("failed to add asset %s to organization %s: %w", asset.Name, o.name, err)
	}
	closeBody(resp.Body)

	return nil
}
