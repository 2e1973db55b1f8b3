package battle

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/peterkuimelis/monbattle/internal/log"
)

var (
	ErrNilAction    = errors.New("battle: nil action")
	ErrNilActions   = errors.New("battle: nil action list")
	ErrRunawayChain = errors.New("battle: runaway reaction chain")
)

// MaxActionsPerProcess is the number of actions a single Process call may run.
// Popping one more fails with ErrRunawayChain.
const MaxActionsPerProcess = 999

// Queue is the work-list that drives all state mutation. Reactions returned by
// an action's logic run before anything queued earlier.
type Queue struct {
	items []Action

	// Observer, if set, receives one EventActionExecuted per popped action.
	Observer func(log.GameEvent)

	logger *zap.Logger
}

// NewQueue returns an empty queue. A nil logger disables debug output.
func NewQueue(logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{logger: logger}
}

// Enqueue appends an action to the back of the queue.
func (q *Queue) Enqueue(a Action) error {
	if a == nil {
		return ErrNilAction
	}
	q.items = append(q.items, a)
	return nil
}

// EnqueueRange appends actions in order, skipping nil entries.
func (q *Queue) EnqueueRange(actions []Action) {
	for _, a := range actions {
		if a != nil {
			q.items = append(q.items, a)
		}
	}
}

// InsertAtFront places actions at the head of the queue, keeping their order.
// Later calls run before earlier ones. Nil entries are skipped.
func (q *Queue) InsertAtFront(actions []Action) error {
	if actions == nil {
		return ErrNilActions
	}
	q.splice(actions)
	return nil
}

func (q *Queue) splice(actions []Action) {
	front := make([]Action, 0, len(actions))
	for _, a := range actions {
		if a != nil {
			front = append(front, a)
		}
	}
	if len(front) == 0 {
		return
	}
	q.items = slices.Insert(q.items, 0, front...)
}

// Process drains the queue: pop, run logic, splice reactions to the front, then
// present the popped action. p may be nil to skip presentation.
func (q *Queue) Process(ctx context.Context, f *Field, p Presenter) error {
	count := 0
	for len(q.items) > 0 {
		a := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]

		count++
		if count > MaxActionsPerProcess {
			pending := len(q.items)
			q.Clear()
			q.logger.Error("reaction chain exceeded limit",
				zap.String("action", actionName(a)),
				zap.Int("limit", MaxActionsPerProcess),
				zap.Int("pending", pending))
			return fmt.Errorf("action %s after %d actions: %w", actionName(a), MaxActionsPerProcess, ErrRunawayChain)
		}

		reactions := a.Logic(f)
		q.splice(reactions)

		q.logger.Debug("action executed",
			zap.Int("n", count),
			zap.String("action", actionName(a)),
			zap.Int("reactions", len(reactions)),
			zap.Int("queued", len(q.items)))
		if q.Observer != nil {
			player := -1
			if src := a.Source(); src != nil {
				player = src.Side
			}
			q.Observer(log.NewActionExecutedEvent(player, actionName(a), count))
		}

		if p != nil {
			if err := a.Present(ctx, p); err != nil {
				return fmt.Errorf("present %s: %w", actionName(a), err)
			}
		}
	}
	return nil
}

// Clear empties the queue.
func (q *Queue) Clear() {
	clear(q.items)
	q.items = q.items[:0]
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}
