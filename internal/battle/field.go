package battle

import "fmt"

// SlotRef is a stable index into the field: which side, which active position.
type SlotRef struct {
	Side  int
	Index int
}

func (r SlotRef) String() string {
	return fmt.Sprintf("P%d/%d", r.Side+1, r.Index+1)
}

// Ref returns a pointer to a copy of r, for actions whose source is optional.
func (r SlotRef) Ref() *SlotRef {
	return &r
}

// Slot is one active battle position.
type Slot struct {
	Ref       SlotRef
	Combatant *Combatant

	// Per-turn counters, cleared at end of turn.
	PhysicalDamageTaken int
	SpecialDamageTaken  int
	LastPhysicalFrom    *SlotRef
	LastSpecialFrom     *SlotRef

	// Consecutive uses of a protection move; reset on a turn without one.
	ProtectCount      int
	ProtectedThisTurn bool

	Volatiles map[Volatile]bool

	// Multi-turn and focus bookkeeping.
	Charging     *MoveDef
	Dodge        DodgeState
	Focusing     bool
	FocusBroken  bool
	InactiveTurn bool // toggled by loafing abilities
}

func newSlot(ref SlotRef) *Slot {
	return &Slot{Ref: ref, Volatiles: make(map[Volatile]bool)}
}

// Empty reports whether no combatant occupies the slot.
func (s *Slot) Empty() bool {
	return s.Combatant == nil
}

// Active reports whether the slot holds a combatant that can still fight.
func (s *Slot) Active() bool {
	return s.Combatant != nil && !s.Combatant.Fainted()
}

func (s *Slot) Has(v Volatile) bool {
	return s.Volatiles[v]
}

func (s *Slot) Add(v Volatile) {
	s.Volatiles[v] = true
}

func (s *Slot) Remove(v Volatile) {
	delete(s.Volatiles, v)
}

// DamageTaken returns the damage taken this turn in the given category.
func (s *Slot) DamageTaken(c Category) int {
	switch c {
	case CategoryPhysical:
		return s.PhysicalDamageTaken
	case CategorySpecial:
		return s.SpecialDamageTaken
	default:
		return 0
	}
}

// LastAttacker returns the slot that last dealt damage of the given category.
func (s *Slot) LastAttacker(c Category) *SlotRef {
	switch c {
	case CategoryPhysical:
		return s.LastPhysicalFrom
	case CategorySpecial:
		return s.LastSpecialFrom
	default:
		return nil
	}
}

// recordHit tracks damage received this turn for counter-style effects.
func (s *Slot) recordHit(c Category, amount int, from *SlotRef) {
	switch c {
	case CategoryPhysical:
		s.PhysicalDamageTaken += amount
		s.LastPhysicalFrom = from
	case CategorySpecial:
		s.SpecialDamageTaken += amount
		s.LastSpecialFrom = from
	}
}

// clearMoveState drops charge, dodge and focus bookkeeping.
func (s *Slot) clearMoveState() {
	s.Charging = nil
	s.Dodge = DodgeNone
	s.Focusing = false
	s.FocusBroken = false
}

// endTurn clears per-turn counters and one-turn volatiles.
func (s *Slot) endTurn() {
	s.PhysicalDamageTaken = 0
	s.SpecialDamageTaken = 0
	s.LastPhysicalFrom = nil
	s.LastSpecialFrom = nil
	if !s.ProtectedThisTurn {
		s.ProtectCount = 0
	}
	s.ProtectedThisTurn = false
	s.Focusing = false
	s.FocusBroken = false
	for v := range s.Volatiles {
		if v.oneTurn() {
			delete(s.Volatiles, v)
		}
	}
}

// switchOut resets everything tied to the slot's current occupant.
func (s *Slot) switchOut() {
	if s.Combatant != nil {
		s.Combatant.ResetStages()
	}
	s.Volatiles = make(map[Volatile]bool)
	s.ProtectCount = 0
	s.ProtectedThisTurn = false
	s.InactiveTurn = false
	s.clearMoveState()
}

// Side is one team: its active slots and its full party.
type Side struct {
	Name  string
	Slots []*Slot
	Party []*Combatant
}

// Usable returns party indices of combatants that can fight and are not active.
func (sd *Side) Usable() []int {
	var idx []int
	for i, c := range sd.Party {
		if c.Fainted() || sd.isActive(c) {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

func (sd *Side) isActive(c *Combatant) bool {
	for _, s := range sd.Slots {
		if s.Combatant == c {
			return true
		}
	}
	return false
}

// Defeated reports whether the side has no combatant left that can fight.
func (sd *Side) Defeated() bool {
	for _, c := range sd.Party {
		if !c.Fainted() {
			return false
		}
	}
	return true
}

// Field is the shared mutable state of one battle.
type Field struct {
	Sides        [2]*Side
	Weather      Weather
	WeatherTurns int
	Terrain      Terrain
	TerrainTurns int
	Turn         int
}

// NewField creates a field with slotsPerSide active positions per side and
// sends the first combatants of each party into them.
func NewField(party0, party1 []*Combatant, slotsPerSide int) *Field {
	if slotsPerSide < 1 {
		slotsPerSide = 1
	}
	f := &Field{}
	for side, party := range [2][]*Combatant{party0, party1} {
		sd := &Side{Name: fmt.Sprintf("P%d", side+1), Party: party}
		for i := 0; i < slotsPerSide; i++ {
			s := newSlot(SlotRef{Side: side, Index: i})
			if i < len(party) {
				s.Combatant = party[i]
			}
			sd.Slots = append(sd.Slots, s)
		}
		f.Sides[side] = sd
	}
	return f
}

// Slot resolves a slot reference. Returns nil for an out-of-range reference.
func (f *Field) Slot(ref SlotRef) *Slot {
	if ref.Side < 0 || ref.Side > 1 {
		return nil
	}
	sd := f.Sides[ref.Side]
	if sd == nil || ref.Index < 0 || ref.Index >= len(sd.Slots) {
		return nil
	}
	return sd.Slots[ref.Index]
}

// Combatant returns the occupant of a slot, or nil.
func (f *Field) Combatant(ref SlotRef) *Combatant {
	s := f.Slot(ref)
	if s == nil {
		return nil
	}
	return s.Combatant
}

// Opponents returns slot references on the other side.
func (f *Field) Opponents(side int) []SlotRef {
	var refs []SlotRef
	for _, s := range f.Sides[1-side].Slots {
		refs = append(refs, s.Ref)
	}
	return refs
}

// AllSlots returns every slot on the field, side 0 first.
func (f *Field) AllSlots() []*Slot {
	var out []*Slot
	for _, sd := range f.Sides {
		out = append(out, sd.Slots...)
	}
	return out
}

// nameAt returns the occupant's name for narration.
func (f *Field) nameAt(ref SlotRef) string {
	if c := f.Combatant(ref); c != nil {
		return c.Name
	}
	return "(empty)"
}
