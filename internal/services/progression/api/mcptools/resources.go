package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/storyquest/internal/services/progression/service"
)

const (
	playerURIScheme   = "player://"
	missionsURISuffix = "/missions"
)

// PlayerResourceTemplate describes the player state resource.
func PlayerResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "player",
		Title:       "Player",
		Description: "Player level, wallet, mission sets and encounters. URI format: player://{user_id}",
		MIMEType:    "application/json",
		URITemplate: "player://{user_id}",
	}
}

// PlayerMissionsResourceTemplate describes the active missions resource.
func PlayerMissionsResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "player_missions",
		Title:       "Active missions",
		Description: "Active missions of a player. URI format: player://{user_id}/missions",
		MIMEType:    "application/json",
		URITemplate: "player://{user_id}/missions",
	}
}

// PlayerResourceHandler reads player://{user_id}.
func PlayerResourceHandler(svc *service.Service) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri, userID, err := parsePlayerURI(req, "")
		if err != nil {
			return nil, err
		}
		p, err := svc.GetPlayer(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("read player %s: %w", userID, err)
		}
		return jsonResource(uri, playerView(p))
	}
}

// PlayerMissionsResourceHandler reads player://{user_id}/missions.
func PlayerMissionsResourceHandler(svc *service.Service) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri, userID, err := parsePlayerURI(req, missionsURISuffix)
		if err != nil {
			return nil, err
		}
		missions, err := svc.ListActiveMissions(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("read missions of %s: %w", userID, err)
		}
		return jsonResource(uri, MissionListResult{Missions: missionViews(missions)})
	}
}

// parsePlayerURI extracts the user id from player://{user_id}{suffix}.
func parsePlayerURI(req *mcp.ReadResourceRequest, suffix string) (string, string, error) {
	if req == nil || req.Params == nil || req.Params.URI == "" {
		return "", "", fmt.Errorf("user id is required; use URI format player://{user_id}%s", suffix)
	}
	uri := req.Params.URI
	rest, ok := strings.CutPrefix(uri, playerURIScheme)
	if !ok {
		return "", "", fmt.Errorf("invalid URI %q: expected player://{user_id}%s", uri, suffix)
	}
	if suffix != "" {
		if rest, ok = strings.CutSuffix(rest, suffix); !ok {
			return "", "", fmt.Errorf("invalid URI %q: expected player://{user_id}%s", uri, suffix)
		}
	}
	userID := strings.TrimSpace(rest)
	if userID == "" || strings.Contains(userID, "/") {
		return "", "", fmt.Errorf("invalid URI %q: expected player://{user_id}%s", uri, suffix)
	}
	return uri, userID, nil
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
