package client

import (
	"context"

	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// SubstructureClient runs single-target searches.
type SubstructureClient struct {
	client *Client
}

// Match lists every match of the pattern in the target.
func (c *SubstructureClient) Match(ctx context.Context, req *types.MatchRequest) (*types.MatchResponse, error) {
	var resp types.MatchResponse
	if err := c.client.post(ctx, "/api/v1/substructure/match", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Any reports whether the pattern occurs at least once.
func (c *SubstructureClient) Any(ctx context.Context, req *types.MatchRequest) (*types.MatchResponse, error) {
	var resp types.MatchResponse
	if err := c.client.post(ctx, "/api/v1/substructure/any", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rings reports ring membership per ring size.
func (c *SubstructureClient) Rings(ctx context.Context, req *types.RingsRequest) (*types.RingsResponse, error) {
	var resp types.RingsResponse
	if err := c.client.post(ctx, "/api/v1/substructure/rings", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Aromatic reports the aromatic atoms of the target.
func (c *SubstructureClient) Aromatic(ctx context.Context, req *types.AromaticRequest) (*types.AromaticResponse, error) {
	var resp types.AromaticResponse
	if err := c.client.post(ctx, "/api/v1/substructure/aromatic", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

//Personal.AI order the ending
