package battle

import (
	"sort"

	"go.uber.org/zap"

	"github.com/peterkuimelis/monbattle/internal/log"
	"github.com/peterkuimelis/monbattle/internal/rng"
)

// ExecutionContext is the mutable record shared by every stage of one move
// attempt. Once stopped it stays stopped.
type ExecutionContext struct {
	User   SlotRef
	Target SlotRef
	Move   *MoveInstance
	Field  *Field

	Actions     []Action
	PPConsumed  bool
	MultiTurn   bool
	Focus       bool
	DamageDealt int

	stopped bool
}

func newExecutionContext(f *Field, user, target SlotRef, mv *MoveInstance) *ExecutionContext {
	ec := &ExecutionContext{User: user, Target: target, Move: mv, Field: f}
	if mv != nil && mv.Def != nil {
		ec.MultiTurn = mv.Def.Charge != nil
		ec.Focus = mv.Def.Focus
	}
	return ec
}

// Stop halts the pipeline after the current stage.
func (ec *ExecutionContext) Stop() { ec.stopped = true }

func (ec *ExecutionContext) Stopped() bool { return ec.stopped }

// Emit appends actions to the pipeline output.
func (ec *ExecutionContext) Emit(actions ...Action) {
	ec.Actions = append(ec.Actions, actions...)
}

// Message emits a message attributed to the user.
func (ec *ExecutionContext) Message(key string, args ...string) {
	ec.Emit(NewMessage(ec.User.Ref(), key, args...))
}

func (ec *ExecutionContext) UserSlot() *Slot   { return ec.Field.Slot(ec.User) }
func (ec *ExecutionContext) TargetSlot() *Slot { return ec.Field.Slot(ec.Target) }

func (ec *ExecutionContext) UserName() string   { return ec.Field.nameAt(ec.User) }
func (ec *ExecutionContext) TargetName() string { return ec.Field.nameAt(ec.Target) }

// MoveDef returns the definition of the move being executed.
func (ec *ExecutionContext) MoveDef() *MoveDef { return ec.Move.Def }

// StageResult is the outcome of one stage.
type StageResult int

const (
	Continue StageResult = iota
	Stop
)

// Stage is one step of move resolution. Stages run in ascending Priority.
type Stage interface {
	Name() string
	Priority() int
	Run(ec *ExecutionContext) StageResult
}

// Stage priorities.
const (
	PriorityInitialValidation   = 10
	PriorityCancelConflicts     = 20
	PriorityBeforeMove          = 30
	PriorityExecutionValidation = 40
	PrioritySpecialBehavior     = 50
	PriorityPPConsumption       = 60
	PriorityProtectionCheck     = 70
	PrioritySemiInvulnerable    = 80
	PriorityAccuracyCheck       = 90
	PriorityEffectProcessing    = 100
	PriorityAfterMove           = 110
)

// PipelineDeps are the collaborators shared by the stages.
type PipelineDeps struct {
	Rand       rng.Source
	Accuracy   *AccuracyEvaluator
	Dispatcher *Dispatcher
	Logger     *zap.Logger
}

// Pipeline turns a move attempt into an ordered list of actions.
type Pipeline struct {
	stages []Stage
	logger *zap.Logger

	// Observer, if set, receives one EventStepExecuted per stage run.
	Observer func(log.GameEvent)
}

// NewPipeline builds the standard stage sequence. Rand is required; missing
// evaluator and dispatcher are built from it.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Rand == nil {
		panic("battle: NewPipeline requires a randomness source")
	}
	if deps.Accuracy == nil {
		deps.Accuracy = NewAccuracyEvaluator(deps.Rand)
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = NewDispatcher(deps.Rand, nil)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	p := &Pipeline{logger: deps.Logger}
	p.stages = []Stage{
		initialValidation{},
		cancelConflicts{},
		beforeMove{},
		executionValidation{src: deps.Rand},
		specialBehavior{},
		ppConsumption{},
		protectionCheck{},
		semiInvulnerableCheck{},
		accuracyCheck{eval: deps.Accuracy, logger: deps.Logger},
		effectProcessing{dispatcher: deps.Dispatcher, logger: deps.Logger},
		afterMove{},
	}
	sort.SliceStable(p.stages, func(i, j int) bool {
		return p.stages[i].Priority() < p.stages[j].Priority()
	})
	return p
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Execute runs every stage in order until one stops, and returns the actions
// the attempt produced.
func (p *Pipeline) Execute(f *Field, user, target SlotRef, mv *MoveInstance) []Action {
	ec := newExecutionContext(f, user, target, mv)
	moveName := "(none)"
	if mv != nil && mv.Def != nil {
		moveName = mv.Def.Name
	}
	for _, s := range p.stages {
		if s.Run(ec) == Stop {
			ec.Stop()
		}
		if p.Observer != nil {
			p.Observer(log.NewStepExecutedEvent(user.Side, moveName, s.Name(), ec.Stopped()))
		}
		if ec.Stopped() {
			p.logger.Debug("pipeline stopped",
				zap.String("move", moveName),
				zap.String("stage", s.Name()),
				zap.Stringer("user", user),
				zap.Int("actions", len(ec.Actions)))
			break
		}
	}
	return ec.Actions
}
