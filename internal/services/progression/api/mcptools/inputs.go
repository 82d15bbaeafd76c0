package mcptools

// UserInput identifies the player.
type UserInput struct {
	UserID string `json:"user_id" jsonschema:"player user identifier"`
}

// PageInput filters and pages a listing.
type PageInput struct {
	UserID    string `json:"user_id" jsonschema:"player user identifier"`
	Filter    string `json:"filter,omitempty" jsonschema:"AIP-160 filter expression"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum results per page (default 50, max 200)"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
}

// SpendInput debits one or more currencies at once.
type SpendInput struct {
	UserID      string    `json:"user_id" jsonschema:"player user identifier"`
	Amounts     []Balance `json:"amounts" jsonschema:"currencies and amounts to debit"`
	Type        string    `json:"type,omitempty" jsonschema:"ledger entry type (default choice_cost)"`
	Description string    `json:"description,omitempty" jsonschema:"ledger description"`
	StoryID     string    `json:"story_id,omitempty" jsonschema:"story the spend belongs to"`
	StoryNodeID string    `json:"story_node_id,omitempty" jsonschema:"story node the spend belongs to"`
}

// CreditInput adds one currency.
type CreditInput struct {
	UserID      string `json:"user_id" jsonschema:"player user identifier"`
	Currency    string `json:"currency" jsonschema:"currency symbol or name (dollars, euros, pounds, yen, diamonds)"`
	Amount      int    `json:"amount" jsonschema:"positive amount to credit"`
	Type        string `json:"type,omitempty" jsonschema:"ledger entry type (default mission_reward)"`
	Description string `json:"description,omitempty" jsonschema:"ledger description"`
	StoryID     string `json:"story_id,omitempty" jsonschema:"story the credit belongs to"`
}

// ExperienceInput grants experience points.
type ExperienceInput struct {
	UserID string `json:"user_id" jsonschema:"player user identifier"`
	Points int    `json:"points" jsonschema:"non-negative experience points"`
	Reason string `json:"reason,omitempty" jsonschema:"why the points were granted"`
}

// ChoiceInput records a story choice and its cost.
type ChoiceInput struct {
	UserID     string    `json:"user_id" jsonschema:"player user identifier"`
	ChoiceID   string    `json:"choice_id" jsonschema:"choice identifier"`
	ChoiceText string    `json:"choice_text" jsonschema:"choice text shown to the player"`
	NodeID     string    `json:"node_id,omitempty" jsonschema:"story node reached by the choice"`
	StoryID    string    `json:"story_id,omitempty" jsonschema:"story identifier"`
	Cost       []Balance `json:"cost,omitempty" jsonschema:"currency requirements of the choice"`
}

// ChoiceListInput lists recent choices.
type ChoiceListInput struct {
	UserID string `json:"user_id" jsonschema:"player user identifier"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of choices (default 50)"`
}

// MissionCreateInput creates a mission from resolved fields.
type MissionCreateInput struct {
	UserID         string `json:"user_id" jsonschema:"player user identifier"`
	StoryID        string `json:"story_id,omitempty" jsonschema:"story identifier"`
	Title          string `json:"title,omitempty" jsonschema:"mission title"`
	Description    string `json:"description,omitempty" jsonschema:"mission description"`
	GiverID        string `json:"giver_id,omitempty" jsonschema:"giver character identifier"`
	TargetID       string `json:"target_id,omitempty" jsonschema:"target character identifier"`
	Objective      string `json:"objective,omitempty" jsonschema:"mission objective"`
	Difficulty     string `json:"difficulty,omitempty" jsonschema:"easy, medium or hard (default medium)"`
	RewardCurrency string `json:"reward_currency,omitempty" jsonschema:"reward currency symbol or name"`
	RewardAmount   int    `json:"reward_amount" jsonschema:"positive reward amount"`
	Deadline       string `json:"deadline,omitempty" jsonschema:"deadline text"`
}

// MissionGenerateInput creates a mission from raw generator output.
type MissionGenerateInput struct {
	UserID  string `json:"user_id" jsonschema:"player user identifier"`
	StoryID string `json:"story_id,omitempty" jsonschema:"story identifier"`
	Output  string `json:"output" jsonschema:"generator output: JSON with a mission or story field, or narrative text"`
}

// MissionInput references a mission.
type MissionInput struct {
	UserID    string `json:"user_id" jsonschema:"player user identifier"`
	MissionID string `json:"mission_id" jsonschema:"mission identifier"`
}

// MissionProgressInput advances an active mission.
type MissionProgressInput struct {
	UserID      string `json:"user_id" jsonschema:"player user identifier"`
	MissionID   string `json:"mission_id" jsonschema:"mission identifier"`
	Progress    int    `json:"progress" jsonschema:"progress between 0 and 100"`
	Description string `json:"description,omitempty" jsonschema:"what happened"`
}

// MissionFailInput fails an active mission.
type MissionFailInput struct {
	UserID    string `json:"user_id" jsonschema:"player user identifier"`
	MissionID string `json:"mission_id" jsonschema:"mission identifier"`
	Reason    string `json:"reason,omitempty" jsonschema:"why the mission failed"`
}

// EncounterInput records meeting a character.
type EncounterInput struct {
	UserID              string `json:"user_id" jsonschema:"player user identifier"`
	CharacterID         string `json:"character_id" jsonschema:"character identifier"`
	Name                string `json:"name,omitempty" jsonschema:"character name"`
	InitialRelationship int    `json:"initial_relationship,omitempty" jsonschema:"relationship level on first encounter"`
}

// RelationshipChangeInput adjusts the player's standing with a character.
type RelationshipChangeInput struct {
	UserID      string `json:"user_id" jsonschema:"player user identifier"`
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Delta       int    `json:"delta" jsonschema:"signed relationship change"`
	Reason      string `json:"reason,omitempty" jsonschema:"why the relationship changed"`
}

// CharacterInput references a character's record in one story.
type CharacterInput struct {
	UserID      string `json:"user_id" jsonschema:"player user identifier"`
	StoryID     string `json:"story_id" jsonschema:"story identifier"`
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
}

// StoryInput references one of the player's stories.
type StoryInput struct {
	UserID  string `json:"user_id" jsonschema:"player user identifier"`
	StoryID string `json:"story_id" jsonschema:"story identifier"`
}

// CharacterRoleInput creates a record or changes the role.
type CharacterRoleInput struct {
	UserID      string `json:"user_id" jsonschema:"player user identifier"`
	StoryID     string `json:"story_id" jsonschema:"story identifier"`
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Role        string `json:"role,omitempty" jsonschema:"character role in the story"`
	Reason      string `json:"reason,omitempty" jsonschema:"why the role changed"`
}

// TraitInput adds a trait.
type TraitInput struct {
	UserID      string `json:"user_id" jsonschema:"player user identifier"`
	StoryID     string `json:"story_id" jsonschema:"story identifier"`
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Trait       string `json:"trait" jsonschema:"trait to add"`
	Reason      string `json:"reason,omitempty" jsonschema:"why the trait was gained"`
}

// StatusInput changes a character's status.
type StatusInput struct {
	UserID      string `json:"user_id" jsonschema:"player user identifier"`
	StoryID     string `json:"story_id" jsonschema:"story identifier"`
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Status      string `json:"status" jsonschema:"active, deceased or missing"`
	Reason      string `json:"reason,omitempty" jsonschema:"why the status changed"`
}

// EdgeInput upserts a directed relationship edge.
type EdgeInput struct {
	UserID      string `json:"user_id" jsonschema:"player user identifier"`
	StoryID     string `json:"story_id" jsonschema:"story identifier"`
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	TargetID    string `json:"target_id" jsonschema:"target character identifier"`
	Type        string `json:"type,omitempty" jsonschema:"relationship type (default neutral)"`
	Strength    int    `json:"strength" jsonschema:"strength between -10 and 10"`
}

// PlotContributionInput records a plot contribution.
type PlotContributionInput struct {
	UserID      string `json:"user_id" jsonschema:"player user identifier"`
	StoryID     string `json:"story_id" jsonschema:"story identifier"`
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	PlotPoint   string `json:"plot_point" jsonschema:"plot point"`
	Importance  int    `json:"importance" jsonschema:"importance between 1 and 5"`
}

// InteractionInput logs a story passage.
type InteractionInput struct {
	UserID      string `json:"user_id" jsonschema:"player user identifier"`
	StoryID     string `json:"story_id" jsonschema:"story identifier"`
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	Context     string `json:"context" jsonschema:"story passage the character took part in"`
}

// BatchChange is one target of a relationship batch.
type BatchChange struct {
	TargetID      string  `json:"target_id" jsonschema:"target character identifier"`
	Type          string  `json:"type,omitempty" jsonschema:"protagonist to target relationship type"`
	Amount        int     `json:"amount" jsonschema:"protagonist to target strength"`
	InverseType   *string `json:"inverse_type,omitempty" jsonschema:"target to protagonist type (defaults to type)"`
	InverseAmount *int    `json:"inverse_amount,omitempty" jsonschema:"target to protagonist strength (defaults to amount)"`
}

// BatchInput applies relationship changes in both directions.
type BatchInput struct {
	UserID        string        `json:"user_id" jsonschema:"player user identifier"`
	StoryID       string        `json:"story_id" jsonschema:"story identifier"`
	ProtagonistID string        `json:"protagonist_id" jsonschema:"protagonist character identifier"`
	Changes       []BatchChange `json:"changes" jsonschema:"changes per target character"`
}
