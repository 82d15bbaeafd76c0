package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
	"github.com/louisbranch/storyquest/internal/platform/timeouts"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/evolution"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/mission"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
	"github.com/louisbranch/storyquest/internal/services/progression/service"
)

// PlayerResult wraps a player.
type PlayerResult struct {
	Player PlayerView `json:"player"`
}

// WalletResult is the player after a ledger operation.
type WalletResult struct {
	Player  PlayerView        `json:"player"`
	Entries []LedgerEntryView `json:"entries"`
}

// ExperienceResult is the player after an experience grant.
type ExperienceResult struct {
	Player    PlayerView       `json:"player"`
	LeveledUp bool             `json:"leveled_up"`
	Level     int              `json:"level"`
	Bonus     *LedgerEntryView `json:"bonus,omitempty"`
}

// ChoiceListResult lists recorded choices, oldest first.
type ChoiceListResult struct {
	Choices []ChoiceView `json:"choices"`
}

// ChoiceView is one recorded choice.
type ChoiceView struct {
	ChoiceID   string `json:"choice_id"`
	ChoiceText string `json:"choice_text"`
	NodeID     string `json:"node_id,omitempty"`
	StoryID    string `json:"story_id,omitempty"`
	At         string `json:"at"`
}

// LedgerListResult is one page of ledger entries.
type LedgerListResult struct {
	Entries       []LedgerEntryView `json:"entries"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

// LedgerReportResult compares balances with ledger sums.
type LedgerReportResult struct {
	Balances   []Balance `json:"balances"`
	Totals     []Balance `json:"totals"`
	Consistent bool      `json:"consistent"`
}

// MissionResult wraps a mission.
type MissionResult struct {
	Mission MissionView `json:"mission"`
}

// MissionLookupResult reports a mission when found.
type MissionLookupResult struct {
	Found   bool         `json:"found"`
	Mission *MissionView `json:"mission,omitempty"`
}

// MissionListResult is one page of missions.
type MissionListResult struct {
	Missions      []MissionView `json:"missions"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

// GeneratedMissionResult is a mission created from generator output.
type GeneratedMissionResult struct {
	Mission    MissionView `json:"mission"`
	Source     string      `json:"source" jsonschema:"payload or text"`
	GiverName  string      `json:"giver_name,omitempty"`
	TargetName string      `json:"target_name,omitempty"`
}

// MissionOutcomeResult describes a completed or failed mission.
type MissionOutcomeResult struct {
	Mission   MissionView      `json:"mission"`
	Player    PlayerView       `json:"player"`
	Reward    *LedgerEntryView `json:"reward,omitempty"`
	LeveledUp bool             `json:"leveled_up"`
	Skipped   []string         `json:"skipped" jsonschema:"characters whose relationship effect was skipped"`
}

// EncounterResult wraps an encounter.
type EncounterResult struct {
	Encounter EncounterView `json:"encounter"`
}

// EvolutionResult wraps a character evolution record.
type EvolutionResult struct {
	Evolution EvolutionView `json:"evolution"`
}

// EvolutionLookupResult reports a record when found.
type EvolutionLookupResult struct {
	Found     bool           `json:"found"`
	Evolution *EvolutionView `json:"evolution,omitempty"`
}

// EvolutionListResult lists a story's character records.
type EvolutionListResult struct {
	Evolutions []EvolutionView `json:"evolutions"`
}

// TraitResult reports whether a trait was added.
type TraitResult struct {
	Added bool `json:"added"`
}

// EdgeResult is a stored relationship edge.
type EdgeResult struct {
	TargetID string   `json:"target_id"`
	Edge     EdgeView `json:"edge"`
}

// BatchResult lists updated and skipped characters.
type BatchResult struct {
	Updated []string `json:"updated"`
	Skipped []string `json:"skipped"`
}

// addTool registers a tool whose handler only needs the decoded input.
// Failures are reported as tool errors prefixed with the error code.
func addTool[In, Out any](server *mcp.Server, name, description string, run func(context.Context, In) (Out, error)) {
	mcp.AddTool(server, &mcp.Tool{Name: name, Description: description}, func(ctx context.Context, _ *mcp.CallToolRequest, input In) (*mcp.CallToolResult, Out, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.Request)
		defer cancel()
		out, err := run(runCtx, input)
		if err != nil {
			var zero Out
			return nil, zero, toolError(name, err)
		}
		return nil, out, nil
	})
}

// toolError prefixes err with the tool name and its code, and tells the
// client whether the call was a no-op or may be retried.
func toolError(name string, err error) error {
	code := apperrors.CodeOf(err)
	switch {
	case code.Warning():
		return fmt.Errorf("%s: %s: no change applied: %w", name, code, err)
	case code.Retryable():
		return fmt.Errorf("%s: %s: retry later: %w", name, code, err)
	default:
		return fmt.Errorf("%s: %s: %w", name, code, err)
	}
}

func registerLedgerTools(server *mcp.Server, svc *service.Service) {
	addTool(server, "progression_get_player", "Returns the player's level, wallet, missions and encounters, creating the player on first use",
		func(ctx context.Context, in UserInput) (PlayerResult, error) {
			p, err := svc.GetPlayer(ctx, in.UserID)
			if err != nil {
				return PlayerResult{}, err
			}
			return PlayerResult{Player: playerView(p)}, nil
		})
	addTool(server, "progression_spend", "Debits every listed currency or nothing at all",
		func(ctx context.Context, in SpendInput) (WalletResult, error) {
			amounts, err := requirements(in.Amounts)
			if err != nil {
				return WalletResult{}, err
			}
			result, err := svc.Spend(ctx, in.UserID, amounts, ledger.Memo{
				Type:        orDefault(in.Type, ledger.TypeChoiceCost),
				Description: in.Description,
				StoryID:     in.StoryID,
				StoryNodeID: in.StoryNodeID,
			})
			if err != nil {
				return WalletResult{}, err
			}
			return WalletResult{Player: playerView(result.Player), Entries: ledgerViews(result.Entries)}, nil
		})
	addTool(server, "progression_credit", "Credits a positive amount of one currency",
		func(ctx context.Context, in CreditInput) (WalletResult, error) {
			result, err := svc.Credit(ctx, in.UserID, parseCurrency(in.Currency), in.Amount, ledger.Memo{
				Type:        orDefault(in.Type, ledger.TypeMissionReward),
				Description: in.Description,
				StoryID:     in.StoryID,
			})
			if err != nil {
				return WalletResult{}, err
			}
			return WalletResult{Player: playerView(result.Player), Entries: ledgerViews(result.Entries)}, nil
		})
	addTool(server, "progression_add_experience", "Grants experience points and pays the level-up bonus",
		func(ctx context.Context, in ExperienceInput) (ExperienceResult, error) {
			result, err := svc.AddExperience(ctx, in.UserID, in.Points, in.Reason)
			if err != nil {
				return ExperienceResult{}, err
			}
			out := ExperienceResult{
				Player:    playerView(result.Player),
				LeveledUp: result.Progress.LeveledUp,
				Level:     result.Player.Level,
			}
			if result.Progress.Bonus != nil {
				out.Bonus = &ledgerViews([]ledger.Entry{*result.Progress.Bonus})[0]
			}
			return out, nil
		})
	addTool(server, "progression_record_choice", "Pays a story choice's cost and records it in the choice history",
		func(ctx context.Context, in ChoiceInput) (WalletResult, error) {
			cost, err := requirements(in.Cost)
			if err != nil {
				return WalletResult{}, err
			}
			result, err := svc.RecordChoice(ctx, in.UserID, player.Choice{
				ChoiceID:   in.ChoiceID,
				ChoiceText: in.ChoiceText,
				NodeID:     in.NodeID,
				StoryID:    in.StoryID,
			}, cost)
			if err != nil {
				return WalletResult{}, err
			}
			return WalletResult{Player: playerView(result.Player), Entries: ledgerViews(result.Entries)}, nil
		})
	addTool(server, "progression_list_choices", "Lists the most recent story choices, oldest first",
		func(ctx context.Context, in ChoiceListInput) (ChoiceListResult, error) {
			choices, err := svc.ListChoices(ctx, in.UserID, in.Limit)
			if err != nil {
				return ChoiceListResult{}, err
			}
			out := ChoiceListResult{Choices: make([]ChoiceView, 0, len(choices))}
			for _, choice := range choices {
				out.Choices = append(out.Choices, ChoiceView{
					ChoiceID:   choice.ChoiceID,
					ChoiceText: choice.ChoiceText,
					NodeID:     choice.NodeID,
					StoryID:    choice.StoryID,
					At:         formatTime(choice.At),
				})
			}
			return out, nil
		})
	addTool(server, "progression_list_ledger", "Pages through ledger entries; filter fields: type, from_currency, to_currency, amount, story_id, story_node_id, at",
		func(ctx context.Context, in PageInput) (LedgerListResult, error) {
			page, err := svc.ListLedger(ctx, in.UserID, in.Filter, in.PageSize, in.PageToken)
			if err != nil {
				return LedgerListResult{}, err
			}
			return LedgerListResult{Entries: ledgerViews(page.Entries), NextPageToken: page.NextPageToken}, nil
		})
	addTool(server, "progression_verify_ledger", "Checks that every balance equals the sum of its ledger entries",
		func(ctx context.Context, in UserInput) (LedgerReportResult, error) {
			report, err := svc.VerifyLedger(ctx, in.UserID)
			if err != nil {
				return LedgerReportResult{}, err
			}
			return LedgerReportResult{
				Balances:   balancesView(report.Balances),
				Totals:     balancesView(report.Totals),
				Consistent: report.Consistent,
			}, nil
		})
}

func registerMissionTools(server *mcp.Server, svc *service.Service) {
	addTool(server, "mission_create", "Creates an active mission from resolved fields",
		func(ctx context.Context, in MissionCreateInput) (MissionResult, error) {
			m, err := svc.CreateMission(ctx, in.UserID, mission.Draft{
				Title:             in.Title,
				Description:       in.Description,
				GiverCharacterID:  in.GiverID,
				TargetCharacterID: in.TargetID,
				Objective:         in.Objective,
				Difficulty:        mission.Difficulty(strings.ToLower(strings.TrimSpace(in.Difficulty))),
				RewardCurrency:    parseCurrency(in.RewardCurrency),
				RewardAmount:      in.RewardAmount,
				DeadlineText:      in.Deadline,
				StoryID:           in.StoryID,
			})
			if err != nil {
				return MissionResult{}, err
			}
			return MissionResult{Mission: missionView(m)}, nil
		})
	addTool(server, "mission_create_from_generation", "Extracts a mission from generator output and creates it",
		func(ctx context.Context, in MissionGenerateInput) (GeneratedMissionResult, error) {
			generated, err := svc.CreateMissionFromGeneration(ctx, in.UserID, in.StoryID, in.Output)
			if err != nil {
				return GeneratedMissionResult{}, err
			}
			return GeneratedMissionResult{
				Mission:    missionView(generated.Mission),
				Source:     string(generated.Record.Source),
				GiverName:  generated.Record.GiverName,
				TargetName: generated.Record.TargetName,
			}, nil
		})
	addTool(server, "mission_update_progress", "Sets progress (0-100) on an active mission",
		func(ctx context.Context, in MissionProgressInput) (MissionResult, error) {
			m, err := svc.UpdateMissionProgress(ctx, in.UserID, in.MissionID, in.Progress, in.Description)
			if err != nil {
				return MissionResult{}, err
			}
			return MissionResult{Mission: missionView(m)}, nil
		})
	addTool(server, "mission_complete", "Completes an active mission and pays its reward, experience and relationship effects",
		func(ctx context.Context, in MissionInput) (MissionOutcomeResult, error) {
			result, err := svc.CompleteMission(ctx, in.UserID, in.MissionID)
			if err != nil {
				return MissionOutcomeResult{}, err
			}
			reward := ledgerViews([]ledger.Entry{result.Reward})[0]
			return MissionOutcomeResult{
				Mission:   missionView(result.Mission),
				Player:    playerView(result.Player),
				Reward:    &reward,
				LeveledUp: result.Progress.LeveledUp,
				Skipped:   nonNil(result.Skipped),
			}, nil
		})
	addTool(server, "mission_fail", "Fails an active mission and worsens the giver relationship",
		func(ctx context.Context, in MissionFailInput) (MissionOutcomeResult, error) {
			result, err := svc.FailMission(ctx, in.UserID, in.MissionID, in.Reason)
			if err != nil {
				return MissionOutcomeResult{}, err
			}
			return MissionOutcomeResult{
				Mission: missionView(result.Mission),
				Player:  playerView(result.Player),
				Skipped: nonNil(result.Skipped),
			}, nil
		})
	addTool(server, "mission_get", "Returns a mission when it exists",
		func(ctx context.Context, in MissionInput) (MissionLookupResult, error) {
			m, found, err := svc.GetMission(ctx, in.UserID, in.MissionID)
			if err != nil || !found {
				return MissionLookupResult{}, err
			}
			view := missionView(m)
			return MissionLookupResult{Found: true, Mission: &view}, nil
		})
	addTool(server, "mission_list_active", "Lists the player's active missions",
		func(ctx context.Context, in UserInput) (MissionListResult, error) {
			missions, err := svc.ListActiveMissions(ctx, in.UserID)
			if err != nil {
				return MissionListResult{}, err
			}
			return MissionListResult{Missions: missionViews(missions)}, nil
		})
	addTool(server, "mission_list", "Pages through missions; filter fields: status, difficulty, reward_currency, reward_amount, story_id, giver_id, target_id, created_at",
		func(ctx context.Context, in PageInput) (MissionListResult, error) {
			page, err := svc.ListMissions(ctx, in.UserID, in.Filter, in.PageSize, in.PageToken)
			if err != nil {
				return MissionListResult{}, err
			}
			return MissionListResult{Missions: missionViews(page.Missions), NextPageToken: page.NextPageToken}, nil
		})
}

func registerCharacterTools(server *mcp.Server, svc *service.Service) {
	addTool(server, "character_encounter", "Records that the player met a character",
		func(ctx context.Context, in EncounterInput) (EncounterResult, error) {
			encounter, err := svc.EncounterCharacter(ctx, in.UserID, in.CharacterID, in.Name, in.InitialRelationship)
			if err != nil {
				return EncounterResult{}, err
			}
			return EncounterResult{Encounter: encounterView(encounter)}, nil
		})
	addTool(server, "character_relationship_change", "Adjusts the player's relationship level with an encountered character",
		func(ctx context.Context, in RelationshipChangeInput) (EncounterResult, error) {
			encounter, err := svc.ChangeRelationship(ctx, in.UserID, in.CharacterID, in.Delta, in.Reason)
			if err != nil {
				return EncounterResult{}, err
			}
			return EncounterResult{Encounter: encounterView(encounter)}, nil
		})
	addTool(server, "character_evolution_ensure", "Returns the character's story record, creating it with the given role",
		func(ctx context.Context, in CharacterRoleInput) (EvolutionResult, error) {
			e, err := svc.EnsureCharacterEvolution(ctx, key(in.UserID, in.StoryID, in.CharacterID), in.Role)
			if err != nil {
				return EvolutionResult{}, err
			}
			return EvolutionResult{Evolution: evolutionView(e)}, nil
		})
	addTool(server, "character_evolution_get", "Returns the character's story record when it exists",
		func(ctx context.Context, in CharacterInput) (EvolutionLookupResult, error) {
			e, found, err := svc.GetCharacterEvolution(ctx, key(in.UserID, in.StoryID, in.CharacterID))
			if err != nil || !found {
				return EvolutionLookupResult{}, err
			}
			view := evolutionView(e)
			return EvolutionLookupResult{Found: true, Evolution: &view}, nil
		})
	addTool(server, "character_evolution_list", "Lists every character record of a story",
		func(ctx context.Context, in StoryInput) (EvolutionListResult, error) {
			records, err := svc.ListStoryEvolutions(ctx, in.UserID, in.StoryID)
			if err != nil {
				return EvolutionListResult{}, err
			}
			out := EvolutionListResult{Evolutions: make([]EvolutionView, 0, len(records))}
			for _, record := range records {
				out.Evolutions = append(out.Evolutions, evolutionView(record))
			}
			return out, nil
		})
	addTool(server, "character_trait_add", "Adds a trait once",
		func(ctx context.Context, in TraitInput) (TraitResult, error) {
			added, err := svc.AddTrait(ctx, key(in.UserID, in.StoryID, in.CharacterID), in.Trait, in.Reason)
			if err != nil {
				return TraitResult{}, err
			}
			return TraitResult{Added: added}, nil
		})
	addTool(server, "character_role_update", "Changes the character's role",
		func(ctx context.Context, in CharacterRoleInput) (EvolutionResult, error) {
			e, err := svc.UpdateRole(ctx, key(in.UserID, in.StoryID, in.CharacterID), in.Role, in.Reason)
			if err != nil {
				return EvolutionResult{}, err
			}
			return EvolutionResult{Evolution: evolutionView(e)}, nil
		})
	addTool(server, "character_status_set", "Marks the character active, deceased or missing",
		func(ctx context.Context, in StatusInput) (EvolutionResult, error) {
			e, err := svc.SetCharacterStatus(ctx, key(in.UserID, in.StoryID, in.CharacterID), in.Status, in.Reason)
			if err != nil {
				return EvolutionResult{}, err
			}
			return EvolutionResult{Evolution: evolutionView(e)}, nil
		})
	addTool(server, "character_relationship_add", "Upserts a one-way relationship edge to another character",
		func(ctx context.Context, in EdgeInput) (EdgeResult, error) {
			edge, err := svc.AddRelationship(ctx, key(in.UserID, in.StoryID, in.CharacterID), in.TargetID, in.Type, in.Strength)
			if err != nil {
				return EdgeResult{}, err
			}
			return EdgeResult{TargetID: strings.TrimSpace(in.TargetID), Edge: edgeView(edge)}, nil
		})
	addTool(server, "character_plot_contribution_add", "Records the character's part in a plot point",
		func(ctx context.Context, in PlotContributionInput) (EvolutionResult, error) {
			e, err := svc.AddPlotContribution(ctx, key(in.UserID, in.StoryID, in.CharacterID), in.PlotPoint, in.Importance)
			if err != nil {
				return EvolutionResult{}, err
			}
			return EvolutionResult{Evolution: evolutionView(e)}, nil
		})
	addTool(server, "character_story_interaction", "Logs a preview of a story passage the character took part in",
		func(ctx context.Context, in InteractionInput) (EvolutionResult, error) {
			e, err := svc.RecordStoryInteraction(ctx, key(in.UserID, in.StoryID, in.CharacterID), in.Context)
			if err != nil {
				return EvolutionResult{}, err
			}
			return EvolutionResult{Evolution: evolutionView(e)}, nil
		})
	addTool(server, "character_relationships_batch", "Applies a protagonist's relationship changes in both directions; unknown targets are skipped",
		func(ctx context.Context, in BatchInput) (BatchResult, error) {
			changes := make(map[string]evolution.RelationshipChange, len(in.Changes))
			for _, change := range in.Changes {
				changes[strings.TrimSpace(change.TargetID)] = evolution.RelationshipChange{
					Type:          change.Type,
					Amount:        change.Amount,
					InverseType:   change.InverseType,
					InverseAmount: change.InverseAmount,
				}
			}
			result, err := svc.UpdateCharacterRelationships(ctx, in.UserID, in.StoryID, in.ProtagonistID, changes)
			if err != nil {
				return BatchResult{}, err
			}
			return BatchResult{Updated: nonNil(result.Updated), Skipped: nonNil(result.Skipped)}, nil
		})
}

func key(userID, storyID, characterID string) evolution.Key {
	return evolution.Key{UserID: userID, StoryID: storyID, CharacterID: characterID}
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}

// parseCurrency maps names to symbols. Empty selects the default currency.
func parseCurrency(value string) currency.Code {
	code, ok := currency.Parse(value)
	if !ok {
		return currency.Default
	}
	return code
}

// requirements folds a balance list into a currency map, summing repeats.
func requirements(amounts []Balance) (map[currency.Code]int, error) {
	out := make(map[currency.Code]int, len(amounts))
	for _, amount := range amounts {
		code, ok := currency.Parse(amount.Currency)
		if !ok {
			return nil, apperrors.New(apperrors.CodeInvalidArgument, "currency is required")
		}
		out[code] += amount.Amount
	}
	return out, nil
}
