package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/searchops/imt-exercises/pkg/smm"
)

type assetTypeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type assetResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateAssetType registers a new asset type on the instance.
func (c *Connection) CreateAssetType(ctx context.Context, name, label string) (smm.AssetType, error) {
	body := map[string]string{
		"name":  name,
		"label": label,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/assets/types/", body)
	if err != nil {
		return smm.AssetType{}, fmt.Errorf("failed to create asset type %s: %w", name, err)
	}

	var at assetTypeResponse
	if err := decodeResponse(resp, &at); err != nil {
		return smm.AssetType{}, fmt.Errorf("failed to decode asset type response: %w", err)
	}

	return smm.AssetType{ID: at.ID, Name: at.Name}, nil
}

// GetAssetTypes lists the asset types registered on the instance.
func (c *Connection) GetAssetTypes(ctx context.Context) ([]smm.AssetType, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/assets/types/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset types: %w", err)
	}

	var list []assetTypeResponse
	if err := decodeResponse(resp, &list); err != nil {
		return nil, fmt.Errorf("failed to decode asset types response: %w", err)
	}

	types := make([]smm.AssetType, 0, len(list))
	for _, at := range list {
		types = append(types, smm.AssetType{ID: at.ID, Name: at.Name})
	}
	return types, nil
}

// CreateAsset registers an asset owned by the given account.
func (c *Connection) CreateAsset(ctx context.Context, owner smm.User, name string, assetType smm.AssetType) (smm.Asset, error) {
	body := map[string]string{
		"owner_id": owner.ID,
		"name":     name,
		"type_id":  assetType.ID,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/assets/", body)
	if err != nil {
		return smm.Asset{}, fmt.Errorf("failed to create asset %s: %w", name, err)
	}

	var asset assetResponse
	if err := decodeResponse(resp, &asset); err != nil {
		return smm.Asset{}, fmt.Errorf("failed to decode asset response: %w", err)
	}

	return smm.Asset{ID: asset.ID, Name: asset.Name}, nil
}
