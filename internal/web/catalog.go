package web

import (
	"github.com/peterkuimelis/monbattle/internal/battle"
)

// MoveInfo is the JSON representation of a move for the /api/moves endpoint.
type MoveInfo struct {
	Name      string   `json:"name"`
	Type      string   `json:"type,omitempty"`
	Category  string   `json:"category"`
	Power     int      `json:"power,omitempty"`
	Accuracy  int      `json:"accuracy,omitempty"`
	PP        int      `json:"pp"`
	Priority  int      `json:"priority,omitempty"`
	Contact   bool     `json:"contact,omitempty"`
	TwoTurn   bool     `json:"twoTurn,omitempty"`
	Recharge  bool     `json:"recharge,omitempty"`
	Effects   []string `json:"effects,omitempty"`
	NeverMiss bool     `json:"neverMiss,omitempty"`
}

// MemberInfo is one team member for the /api/teams endpoint.
type MemberInfo struct {
	Name    string   `json:"name"`
	Level   int      `json:"level"`
	MaxHP   int      `json:"maxHp"`
	Ability string   `json:"ability,omitempty"`
	Item    string   `json:"item,omitempty"`
	Moves   []string `json:"moves"`
}

// TeamInfo is the JSON representation of a team for the /api/teams endpoint.
type TeamInfo struct {
	Number  int          `json:"number"`
	Name    string       `json:"name"`
	Members []MemberInfo `json:"members"`
}

func moveInfos(cat *battle.Catalog) ([]MoveInfo, error) {
	names := cat.MoveNames()
	moves := make([]MoveInfo, 0, len(names))
	for _, name := range names {
		m, err := cat.Move(name)
		if err != nil {
			return nil, err
		}
		mi := MoveInfo{
			Name:      m.Name,
			Type:      m.Type,
			Category:  m.Category.String(),
			Power:     m.Power,
			Accuracy:  m.Accuracy,
			PP:        m.PP,
			Priority:  m.Priority,
			Contact:   m.Contact,
			TwoTurn:   m.Charge != nil,
			Recharge:  m.Recharge,
			NeverMiss: m.NeverMiss || m.Accuracy == 0,
		}
		for _, e := range m.Effects {
			mi.Effects = append(mi.Effects, e.Kind().String())
		}
		moves = append(moves, mi)
	}
	return moves, nil
}

func teamInfos(teams []battle.Team) []TeamInfo {
	infos := make([]TeamInfo, 0, len(teams))
	for i, t := range teams {
		ti := TeamInfo{Number: i + 1, Name: t.Name}
		for _, c := range t.Members {
			mi := MemberInfo{Name: c.Name, Level: c.Level, MaxHP: c.MaxHP, Ability: c.Ability, Item: c.Item}
			for _, m := range c.Moves {
				mi.Moves = append(mi.Moves, m.Def.Name)
			}
			ti.Members = append(ti.Members, mi)
		}
		infos = append(infos, ti)
	}
	return infos
}
