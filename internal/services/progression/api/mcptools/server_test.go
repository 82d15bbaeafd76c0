package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
	"github.com/louisbranch/storyquest/internal/services/progression/service"
	"github.com/louisbranch/storyquest/internal/services/progression/storage/sqlite"
)

func newTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "progression.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := service.NewService(store, service.WithRetryDelay(time.Millisecond))
	server := NewServer(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("connect server: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() { _ = clientSession.Close() })
	return clientSession
}

// callTool invokes name and decodes its structured output into out.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if result.IsError || out == nil {
		return result
	}
	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshal %s output: %v", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode %s output: %v", name, err)
	}
	return result
}

func toolErrorText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, " ")
}

func balanceOf(view PlayerView, code string) int {
	for _, balance := range view.Balances {
		if balance.Currency == code {
			return balance.Amount
		}
	}
	return 0
}

func TestNewServerListsTools(t *testing.T) {
	session := newTestSession(t)
	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := make(map[string]bool, len(result.Tools))
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{
		"progression_get_player",
		"progression_spend",
		"progression_verify_ledger",
		"mission_create_from_generation",
		"mission_complete",
		"character_relationships_batch",
	} {
		if !names[want] {
			t.Fatalf("tool %s not registered", want)
		}
	}
}

func TestGetPlayerReturnsStartingWallet(t *testing.T) {
	session := newTestSession(t)
	var out PlayerResult
	callTool(t, session, "progression_get_player", map[string]any{"user_id": "user-1"}, &out)

	if out.Player.UserID != "user-1" || out.Player.Level != 1 {
		t.Fatalf("player = %+v, want user-1 at level 1", out.Player)
	}
	if got := balanceOf(out.Player, "💵"); got != 5000 {
		t.Fatalf("dollars = %d, want 5000", got)
	}
}

func TestSpendInsufficientFundsIsToolError(t *testing.T) {
	session := newTestSession(t)
	result := callTool(t, session, "progression_spend", map[string]any{
		"user_id": "user-1",
		"amounts": []map[string]any{{"currency": "diamonds", "amount": 501}},
	}, nil)
	if !result.IsError {
		t.Fatal("expected tool error")
	}
	if text := toolErrorText(result); !strings.Contains(text, "INSUFFICIENT_FUNDS") {
		t.Fatalf("error text = %q, want INSUFFICIENT_FUNDS", text)
	}

	var report LedgerReportResult
	callTool(t, session, "progression_verify_ledger", map[string]any{"user_id": "user-1"}, &report)
	if !report.Consistent {
		t.Fatalf("ledger report = %+v, want consistent", report)
	}
}

func TestMissionLifecycleThroughTools(t *testing.T) {
	session := newTestSession(t)
	callTool(t, session, "character_encounter", map[string]any{
		"user_id": "user-1", "character_id": "char-vex", "name": "Vex",
	}, &EncounterResult{})

	var created MissionResult
	callTool(t, session, "mission_create", map[string]any{
		"user_id":         "user-1",
		"title":           "Recover the ledger",
		"giver_id":        "char-vex",
		"difficulty":      "medium",
		"reward_currency": "dollars",
		"reward_amount":   1500,
	}, &created)
	if created.Mission.Status != "active" || created.Mission.ID == "" {
		t.Fatalf("created mission = %+v", created.Mission)
	}

	var progressed MissionResult
	callTool(t, session, "mission_update_progress", map[string]any{
		"user_id": "user-1", "mission_id": created.Mission.ID, "progress": 60,
	}, &progressed)
	if progressed.Mission.Progress != 60 {
		t.Fatalf("progress = %d, want 60", progressed.Mission.Progress)
	}

	var done MissionOutcomeResult
	callTool(t, session, "mission_complete", map[string]any{
		"user_id": "user-1", "mission_id": created.Mission.ID,
	}, &done)
	if done.Mission.Status != "completed" || done.Mission.Progress != 100 {
		t.Fatalf("completed mission = %+v", done.Mission)
	}
	if got := balanceOf(done.Player, "💵"); got != 6500 {
		t.Fatalf("dollars = %d, want 6500", got)
	}
	if len(done.Player.Encounters) != 1 || done.Player.Encounters[0].RelationshipLevel != 2 {
		t.Fatalf("encounters = %+v, want giver at +2", done.Player.Encounters)
	}

	again := callTool(t, session, "mission_complete", map[string]any{
		"user_id": "user-1", "mission_id": created.Mission.ID,
	}, nil)
	if !again.IsError || !strings.Contains(toolErrorText(again), "MISSION_NOT_ACTIVE: no change applied") {
		t.Fatalf("second completion = %q, want MISSION_NOT_ACTIVE warning", toolErrorText(again))
	}

	var active MissionListResult
	callTool(t, session, "mission_list_active", map[string]any{"user_id": "user-1"}, &active)
	if len(active.Missions) != 0 {
		t.Fatalf("active missions = %d, want 0", len(active.Missions))
	}
}

func TestMissionGetUnknownReportsNotFound(t *testing.T) {
	session := newTestSession(t)
	var out MissionLookupResult
	result := callTool(t, session, "mission_get", map[string]any{
		"user_id": "user-1", "mission_id": "missing",
	}, &out)
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolErrorText(result))
	}
	if out.Found || out.Mission != nil {
		t.Fatalf("lookup = %+v, want not found", out)
	}
}

func TestPlayerResourceReadsState(t *testing.T) {
	session := newTestSession(t)
	result, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "player://user-1"})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(result.Contents))
	}
	var view PlayerView
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &view); err != nil {
		t.Fatalf("decode resource: %v", err)
	}
	if view.UserID != "user-1" {
		t.Fatalf("user id = %q, want user-1", view.UserID)
	}
}

func TestParsePlayerURI(t *testing.T) {
	tests := []struct {
		uri    string
		suffix string
		want   string
		ok     bool
	}{
		{uri: "player://user-1", want: "user-1", ok: true},
		{uri: "player://user-1/missions", suffix: missionsURISuffix, want: "user-1", ok: true},
		{uri: "player://", ok: false},
		{uri: "player://user-1/missions", ok: false},
		{uri: "campaign://user-1", ok: false},
	}
	for _, tc := range tests {
		req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: tc.uri}}
		_, got, err := parsePlayerURI(req, tc.suffix)
		if tc.ok != (err == nil) {
			t.Fatalf("parsePlayerURI(%q) err = %v, want ok=%v", tc.uri, err, tc.ok)
		}
		if got != tc.want {
			t.Fatalf("parsePlayerURI(%q) = %q, want %q", tc.uri, got, tc.want)
		}
	}
}

func TestParseTransport(t *testing.T) {
	tests := map[string]TransportKind{"": TransportStdio, "stdio": TransportStdio, " HTTP ": TransportHTTP}
	for input, want := range tests {
		got, err := ParseTransport(input)
		if err != nil || got != want {
			t.Fatalf("ParseTransport(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseTransport("grpc"); err == nil {
		t.Fatal("expected error for unsupported transport")
	}
}

func TestRunRequiresService(t *testing.T) {
	if err := Run(context.Background(), nil, Config{}); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func TestToolErrorTextByCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"warning", apperrors.New(apperrors.CodeMissionNotActive, "mission is not active"), "mission_complete: MISSION_NOT_ACTIVE: no change applied: mission is not active"},
		{"retryable", apperrors.New(apperrors.CodeStorageFault, "disk full"), "mission_complete: STORAGE_FAULT: retry later: disk full"},
		{"other", apperrors.New(apperrors.CodeInsufficientFunds, "not enough dollars"), "mission_complete: INSUFFICIENT_FUNDS: not enough dollars"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := toolError("mission_complete", tc.err)
			if err.Error() != tc.want {
				t.Fatalf("error = %q, want %q", err.Error(), tc.want)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v to wrap %v", err, tc.err)
			}
		})
	}
}
