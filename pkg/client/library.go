package client

import (
	"context"
	"net/url"

	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// LibraryClient manages target libraries and screens them.
type LibraryClient struct {
	client *Client
}

// Create creates a library.
func (c *LibraryClient) Create(ctx context.Context, req *types.CreateLibraryRequest) (*types.LibraryResponse, error) {
	var resp types.LibraryResponse
	if err := c.client.post(ctx, "/api/v1/library", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get fetches a library by id.
func (c *LibraryClient) Get(ctx context.Context, id string) (*types.LibraryResponse, error) {
	if id == "" {
		return nil, errors.InvalidParam("library id is required")
	}
	var resp types.LibraryResponse
	if err := c.client.get(ctx, "/api/v1/library/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddMolecule stores a molfile in a library.
func (c *LibraryClient) AddMolecule(ctx context.Context, req *types.AddMoleculeRequest) (*types.MoleculeResponse, error) {
	var resp types.MoleculeResponse
	if err := c.client.post(ctx, "/api/v1/library/molecules", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetMolecule fetches a stored entry, with its molfile when withMolfile is set.
func (c *LibraryClient) GetMolecule(ctx context.Context, id string, withMolfile bool) (*types.MoleculeResponse, error) {
	if id == "" {
		return nil, errors.InvalidParam("molecule id is required")
	}
	path := "/api/v1/library/molecules/" + url.PathEscape(id)
	if withMolfile {
		path += "?molfile=true"
	}
	var resp types.MoleculeResponse
	if err := c.client.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Screen searches every entry of the library synchronously.
func (c *LibraryClient) Screen(ctx context.Context, libraryID string, req *types.ScreenRequest) (*types.ScreenResponse, error) {
	if libraryID == "" {
		return nil, errors.InvalidParam("library id is required")
	}
	var resp types.ScreenResponse
	if err := c.client.post(ctx, "/api/v1/library/"+url.PathEscape(libraryID)+"/screen", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

//Personal.AI order the ending
