package net

// Message types for the JSON protocol over TCP.

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`

	// For "notify"
	Event *EventView `json:"event,omitempty"`

	// For "choose_action"
	Slot    string       `json:"slot,omitempty"`
	Actions []ActionView `json:"actions,omitempty"`
	State   *StateView   `json:"state,omitempty"`

	// For "choose_replacement"
	Prompt     string          `json:"prompt,omitempty"`
	Candidates []CombatantView `json:"candidates,omitempty"`

	// For "game_over"
	Winner int    `json:"winner,omitempty"`
	Result string `json:"result,omitempty"`
}

// EventView is a simplified battle event for the client.
type EventView struct {
	Turn    int    `json:"turn"`
	Phase   string `json:"phase"`
	Player  int    `json:"player"`
	Type    string `json:"type"`
	Subject string `json:"subject,omitempty"`
	Key     string `json:"key,omitempty"`
	Details string `json:"details"`
}

// ActionView is a numbered action choice.
type ActionView struct {
	Index int    `json:"index"`
	Desc  string `json:"desc"`
}

// MoveView is one known move and its remaining uses.
type MoveView struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	PP    int    `json:"pp"`
	MaxPP int    `json:"max_pp"`
}

// CombatantView describes a combatant. Moves are only filled for the
// viewer's own side.
type CombatantView struct {
	Index   int        `json:"index"`
	Name    string     `json:"name"`
	Level   int        `json:"level"`
	HP      int        `json:"hp"`
	MaxHP   int        `json:"max_hp"`
	Status  string     `json:"status,omitempty"`
	Fainted bool       `json:"fainted,omitempty"`
	Moves   []MoveView `json:"moves,omitempty"`
}

// SlotView is one active position on the field.
type SlotView struct {
	Slot      string         `json:"slot"`
	Empty     bool           `json:"empty,omitempty"`
	Combatant *CombatantView `json:"combatant,omitempty"`
	Stages    map[string]int `json:"stages,omitempty"`
	Volatiles []string       `json:"volatiles,omitempty"`
	Charging  string         `json:"charging,omitempty"`
}

// SideView shows one side of the field.
type SideView struct {
	Name  string          `json:"name"`
	Slots []SlotView      `json:"slots"`
	Party []CombatantView `json:"party"`
}

// StateView is the battle state from one player's perspective.
type StateView struct {
	You      SideView `json:"you"`
	Opponent SideView `json:"opponent"`
	Turn     int      `json:"turn"`
	Weather  string   `json:"weather,omitempty"`
	Terrain  string   `json:"terrain,omitempty"`
}

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`

	// For "action" and "replacement"
	Index int `json:"index,omitempty"`

	// For "join" (initial handshake)
	TeamNumber int `json:"team_number,omitempty"`
}
