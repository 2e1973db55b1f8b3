package battle

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed content/catalog.yaml
var defaultCatalogYAML []byte

var (
	ErrUnknownMove    = errors.New("unknown move")
	ErrUnknownSpecies = errors.New("unknown species")
)

// Catalog is immutable move and species content, keyed by name. It is shared
// read-only across battles.
type Catalog struct {
	moves   map[string]*MoveDef
	species map[string]*Species
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded catalog, loading it on first use.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := LoadCatalog(defaultCatalogYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// --- YAML shape ---

type catalogFile struct {
	Species []speciesEntry `yaml:"species"`
	Moves   []moveEntry    `yaml:"moves"`
}

type speciesEntry struct {
	Name      string   `yaml:"name"`
	Types     []string `yaml:"types"`
	HP        int      `yaml:"hp"`
	Attack    int      `yaml:"attack"`
	Defense   int      `yaml:"defense"`
	SpAttack  int      `yaml:"sp_attack"`
	SpDefense int      `yaml:"sp_defense"`
	Speed     int      `yaml:"speed"`
}

type moveEntry struct {
	Name          string        `yaml:"name"`
	Type          string        `yaml:"type"`
	Category      string        `yaml:"category"`
	Power         int           `yaml:"power"`
	Accuracy      int           `yaml:"accuracy"`
	NeverMiss     bool          `yaml:"never_miss"`
	PP            int           `yaml:"pp"`
	Priority      int           `yaml:"priority"`
	Contact       bool          `yaml:"contact"`
	BypassProtect bool          `yaml:"bypass_protect"`
	Self          bool          `yaml:"self"`
	Focus         bool          `yaml:"focus"`
	Recharge      bool          `yaml:"recharge"`
	Charge        *chargeEntry  `yaml:"charge"`
	HitsDodge     []string      `yaml:"hits"`
	Effects       []effectEntry `yaml:"effects"`
}

type chargeEntry struct {
	Message string `yaml:"message"`
	Dodge   string `yaml:"dodge"`
	SkipIn  string `yaml:"skip_in"`
}

type effectEntry struct {
	Kind     string `yaml:"kind"`
	Status   string `yaml:"status"`
	Stat     string `yaml:"stat"`
	Stages   int    `yaml:"stages"`
	Chance   int    `yaml:"chance"`
	Self     bool   `yaml:"self"`
	Percent  int    `yaml:"percent"`
	Amount   int    `yaml:"amount"`
	Category string `yaml:"category"`
	Volatile string `yaml:"volatile"`
	Weather  string `yaml:"weather"`
	Terrain  string `yaml:"terrain"`
	Turns    int    `yaml:"turns"`
}

// LoadCatalogFile reads a catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadCatalog(data)
}

// LoadCatalog parses catalog YAML.
func LoadCatalog(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	c := &Catalog{
		moves:   make(map[string]*MoveDef, len(cf.Moves)),
		species: make(map[string]*Species, len(cf.Species)),
	}
	for _, s := range cf.Species {
		if s.Name == "" {
			return nil, errors.New("parse catalog: species without a name")
		}
		c.species[catalogKey(s.Name)] = &Species{
			Name:      s.Name,
			Types:     s.Types,
			HP:        s.HP,
			Attack:    s.Attack,
			Defense:   s.Defense,
			SpAttack:  s.SpAttack,
			SpDefense: s.SpDefense,
			Speed:     s.Speed,
		}
	}
	for _, m := range cf.Moves {
		def, err := m.build()
		if err != nil {
			return nil, fmt.Errorf("parse catalog: move %q: %w", m.Name, err)
		}
		c.moves[catalogKey(m.Name)] = def
	}
	return c, nil
}

func catalogKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Move looks up a move definition by name (case-insensitive).
func (c *Catalog) Move(name string) (*MoveDef, error) {
	m, ok := c.moves[catalogKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMove, name)
	}
	return m, nil
}

// Species looks up a species by name (case-insensitive).
func (c *Catalog) Species(name string) (*Species, error) {
	s, ok := c.species[catalogKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
	}
	return s, nil
}

// MoveNames returns all move names, sorted.
func (c *Catalog) MoveNames() []string {
	names := make([]string, 0, len(c.moves))
	for _, m := range c.moves {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// SpeciesNames returns all species names, sorted.
func (c *Catalog) SpeciesNames() []string {
	names := make([]string, 0, len(c.species))
	for _, s := range c.species {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// NewCombatant builds a fresh combatant from catalog content.
func (c *Catalog) NewCombatant(species string, level int, moves ...string) (*Combatant, error) {
	sp, err := c.Species(species)
	if err != nil {
		return nil, err
	}
	defs := make([]*MoveDef, 0, len(moves))
	for _, name := range moves {
		m, err := c.Move(name)
		if err != nil {
			return nil, err
		}
		defs = append(defs, m)
	}
	return NewCombatant(sp, level, defs...), nil
}

// --- Entry conversion ---

func (m moveEntry) build() (*MoveDef, error) {
	cat, err := parseCategory(m.Category)
	if err != nil {
		return nil, err
	}
	def := &MoveDef{
		Name:          m.Name,
		Type:          m.Type,
		Category:      cat,
		Power:         m.Power,
		Accuracy:      m.Accuracy,
		NeverMiss:     m.NeverMiss,
		PP:            m.PP,
		Priority:      m.Priority,
		Contact:       m.Contact,
		BypassProtect: m.BypassProtect,
		SelfTarget:    m.Self,
		Focus:         m.Focus,
		Recharge:      m.Recharge,
	}
	if m.Charge != nil {
		dodge, err := parseDodge(m.Charge.Dodge)
		if err != nil {
			return nil, err
		}
		skip, err := parseWeather(m.Charge.SkipIn)
		if err != nil {
			return nil, err
		}
		def.Charge = &ChargeSpec{Message: m.Charge.Message, Dodge: dodge, SkipIn: skip}
	}
	for _, h := range m.HitsDodge {
		d, err := parseDodge(h)
		if err != nil {
			return nil, err
		}
		def.HitsDodge = append(def.HitsDodge, d)
	}
	for _, e := range m.Effects {
		eff, err := e.build()
		if err != nil {
			return nil, err
		}
		def.Effects = append(def.Effects, eff)
	}
	return def, nil
}

func (e effectEntry) build() (Effect, error) {
	switch e.Kind {
	case "damage":
		return DamageEffect{}, nil
	case "status":
		s, err := parseStatus(e.Status)
		if err != nil {
			return nil, err
		}
		return StatusEffect{Status: s, Chance: e.Chance}, nil
	case "stat_change":
		s, err := parseStat(e.Stat)
		if err != nil {
			return nil, err
		}
		return StatChangeEffect{Stat: s, Stages: e.Stages, Chance: e.Chance, Self: e.Self}, nil
	case "recoil":
		return RecoilEffect{Percent: e.Percent}, nil
	case "drain":
		return DrainEffect{Percent: e.Percent}, nil
	case "protect":
		return ProtectEffect{}, nil
	case "counter":
		cat, err := parseCategory(e.Category)
		if err != nil {
			return nil, err
		}
		return CounterEffect{Category: cat}, nil
	case "heal":
		return HealEffect{Amount: e.Amount, Percent: e.Percent}, nil
	case "volatile":
		v, err := parseVolatile(e.Volatile)
		if err != nil {
			return nil, err
		}
		return VolatileEffect{Volatile: v, Chance: e.Chance, Self: e.Self}, nil
	case "weather":
		w, err := parseWeather(e.Weather)
		if err != nil {
			return nil, err
		}
		return WeatherEffect{Weather: w, Turns: e.Turns}, nil
	case "terrain":
		t, err := parseTerrain(e.Terrain)
		if err != nil {
			return nil, err
		}
		return TerrainEffect{Terrain: t, Turns: e.Turns}, nil
	default:
		return nil, fmt.Errorf("unknown effect kind %q", e.Kind)
	}
}

func parseCategory(s string) (Category, error) {
	switch s {
	case "physical":
		return CategoryPhysical, nil
	case "special":
		return CategorySpecial, nil
	case "status", "":
		return CategoryStatus, nil
	default:
		return 0, fmt.Errorf("unknown category %q", s)
	}
}

func parseStatus(s string) (Status, error) {
	switch s {
	case "burn":
		return StatusBurn, nil
	case "poison":
		return StatusPoison, nil
	case "paralysis":
		return StatusParalysis, nil
	case "sleep":
		return StatusSleep, nil
	case "freeze":
		return StatusFreeze, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}

func parseStat(s string) (Stat, error) {
	switch s {
	case "attack":
		return StatAttack, nil
	case "defense":
		return StatDefense, nil
	case "sp_attack":
		return StatSpAttack, nil
	case "sp_defense":
		return StatSpDefense, nil
	case "speed":
		return StatSpeed, nil
	case "accuracy":
		return StatAccuracy, nil
	case "evasion":
		return StatEvasion, nil
	default:
		return 0, fmt.Errorf("unknown stat %q", s)
	}
}

func parseVolatile(s string) (Volatile, error) {
	switch s {
	case "flinch":
		return VolatileFlinch, nil
	case "confused":
		return VolatileConfused, nil
	case "protected":
		return VolatileProtected, nil
	case "recharge":
		return VolatileRecharge, nil
	default:
		return 0, fmt.Errorf("unknown volatile %q", s)
	}
}

func parseWeather(s string) (Weather, error) {
	switch s {
	case "":
		return WeatherNone, nil
	case "rain":
		return WeatherRain, nil
	case "sun":
		return WeatherSun, nil
	case "sandstorm":
		return WeatherSandstorm, nil
	case "hail":
		return WeatherHail, nil
	default:
		return 0, fmt.Errorf("unknown weather %q", s)
	}
}

func parseTerrain(s string) (Terrain, error) {
	switch s {
	case "electric":
		return TerrainElectric, nil
	case "grassy":
		return TerrainGrassy, nil
	case "misty":
		return TerrainMisty, nil
	case "psychic":
		return TerrainPsychic, nil
	default:
		return 0, fmt.Errorf("unknown terrain %q", s)
	}
}

func parseDodge(s string) (DodgeState, error) {
	switch s {
	case "":
		return DodgeNone, nil
	case "airborne":
		return DodgeAirborne, nil
	case "underground":
		return DodgeUnderground, nil
	case "underwater":
		return DodgeUnderwater, nil
	case "vanished":
		return DodgeVanished, nil
	default:
		return 0, fmt.Errorf("unknown dodge state %q", s)
	}
}
