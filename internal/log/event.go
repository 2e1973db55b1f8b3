package log

// EventType enumerates all observable battle events.
type EventType int

const (
	EventBattleStart EventType = iota
	EventBattleEnd
	EventTurnStart
	EventTurnEnd
	EventActionExecuted // one per action queue pop
	EventStepExecuted   // one per pipeline stage run
	EventMessage
	EventDamage
	EventHeal
	EventStatus
	EventVolatile
	EventStatChange
	EventFaint
	EventSwitch
	EventWeather
	EventTerrain
)

func (e EventType) String() string {
	switch e {
	case EventBattleStart:
		return "BattleStart"
	case EventBattleEnd:
		return "BattleEnd"
	case EventTurnStart:
		return "TurnStart"
	case EventTurnEnd:
		return "TurnEnd"
	case EventActionExecuted:
		return "ActionExecuted"
	case EventStepExecuted:
		return "StepExecuted"
	case EventMessage:
		return "Message"
	case EventDamage:
		return "Damage"
	case EventHeal:
		return "Heal"
	case EventStatus:
		return "Status"
	case EventVolatile:
		return "Volatile"
	case EventStatChange:
		return "StatChange"
	case EventFaint:
		return "Faint"
	case EventSwitch:
		return "Switch"
	case EventWeather:
		return "Weather"
	case EventTerrain:
		return "Terrain"
	default:
		return "Unknown"
	}
}

// IsTrace reports whether the event is an engine bookkeeping notification
// rather than something a player would read.
func (e EventType) IsTrace() bool {
	return e == EventActionExecuted || e == EventStepExecuted
}

// GameEvent represents a single observable event in a battle.
type GameEvent struct {
	Seq     int       // monotonic sequence number
	Turn    int       // which turn (1-based, 0 before the first turn)
	Phase   string    // "Start", "Action", "End of Turn"
	Player  int       // acting side (0 or 1), -1 for system events
	Type    EventType // event type
	Subject string    // combatant or move name (if applicable)
	Key     string    // message template key (for EventMessage)
	Args    []string  // message template arguments
	Details string    // human-readable detail string
}
