package discovery

import (
	"context"
	"fmt"

	"github.com/arjunv/actorlink/internal/model"
)

// GatewaysResponse is the body of GET /gateways.
type GatewaysResponse struct {
	Gateways []GatewayInfo `json:"gateways"`
}

// GatewayInfo describes one gateway as reported by the discovery API.
type GatewayInfo struct {
	Host  string `json:"host"`
	Port  int    `json:"port"`
	Alive bool   `json:"alive"`
}

// GetGateways fetches the current cluster membership.
func (c *Client) GetGateways(ctx context.Context) ([]GatewayInfo, error) {
	var resp GatewaysResponse
	if err := c.get(ctx, "/gateways", &resp); err != nil {
		return nil, fmt.Errorf("get gateways: %w", err)
	}
	return resp.Gateways, nil
}

// GetLiveURIs fetches the current membership and returns only the
// endpoints the API reports as alive, as bare gateway URIs.
func (c *Client) GetLiveURIs(ctx context.Context) ([]model.GatewayURI, error) {
	gateways, err := c.GetGateways(ctx)
	if err != nil {
		return nil, err
	}

	uris := make([]model.GatewayURI, 0, len(gateways))
	for _, g := range gateways {
		if !g.Alive {
			continue
		}
		uris = append(uris, model.GatewayURI(fmt.Sprintf("%s:%d", g.Host, g.Port)))
	}
	return uris, nil
}
