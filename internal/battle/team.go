package battle

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed content/teams.yaml
var defaultTeamsYAML []byte

// TeamFile represents the top-level YAML structure.
type TeamFile struct {
	Teams []TeamEntry `yaml:"teams"`
}

// TeamEntry represents a single team in the YAML file.
type TeamEntry struct {
	Name    string        `yaml:"name"`
	Members []MemberEntry `yaml:"members"`
}

// MemberEntry represents one combatant on a team.
type MemberEntry struct {
	Species  string   `yaml:"species"`
	Nickname string   `yaml:"nickname"`
	Level    int      `yaml:"level"`
	Ability  string   `yaml:"ability"`
	Item     string   `yaml:"item"`
	Moves    []string `yaml:"moves"`
}

// Team is a named list of freshly built combatants.
type Team struct {
	Name    string
	Members []*Combatant
}

// ParseTeams parses team YAML and builds combatants from the catalog. Every
// call returns new combatants.
func ParseTeams(data []byte, cat *Catalog) ([]Team, error) {
	var tf TeamFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse team YAML: %w", err)
	}
	teams := make([]Team, 0, len(tf.Teams))
	for _, entry := range tf.Teams {
		t, err := entry.build(cat)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func (e TeamEntry) build(cat *Catalog) (Team, error) {
	t := Team{Name: e.Name}
	for _, m := range e.Members {
		level := m.Level
		if level == 0 {
			level = 50
		}
		c, err := cat.NewCombatant(m.Species, level, m.Moves...)
		if err != nil {
			return Team{}, fmt.Errorf("team %q: %w", e.Name, err)
		}
		if m.Nickname != "" {
			c.Name = m.Nickname
		}
		c.Ability = m.Ability
		c.Item = m.Item
		t.Members = append(t.Members, c)
	}
	return t, nil
}

// ParseTeamFile parses a YAML team file and returns a map of team name → combatants.
func ParseTeamFile(path string, cat *Catalog) (map[string][]*Combatant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	teams, err := ParseTeams(data, cat)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]*Combatant, len(teams))
	for _, t := range teams {
		out[t.Name] = t.Members
	}
	return out, nil
}

// LoadTeams builds every team in the team file. An empty path reads the
// built-in teams.
func LoadTeams(path string, cat *Catalog) ([]Team, error) {
	if path == "" {
		return ParseTeams(defaultTeamsYAML, cat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTeams(data, cat)
}

// TeamByNumber returns the Nth team (1-indexed) from the team file. An empty
// path reads the built-in teams.
func TeamByNumber(path string, n int, cat *Catalog) (string, []*Combatant, error) {
	teams, err := LoadTeams(path, cat)
	if err != nil {
		return "", nil, err
	}
	if n < 1 || n > len(teams) {
		return "", nil, fmt.Errorf("team %d not found (have %d teams)", n, len(teams))
	}
	t := teams[n-1]
	return t.Name, t.Members, nil
}

// DefaultTeams builds the built-in teams.
func DefaultTeams(cat *Catalog) ([]Team, error) {
	return ParseTeams(defaultTeamsYAML, cat)
}
