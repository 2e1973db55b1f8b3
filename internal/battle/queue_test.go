package battle

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/peterkuimelis/monbattle/internal/log"
)

// traceAction records its id when its logic runs and yields fixed reactions.
type traceAction struct {
	id        string
	trace     *[]string
	reactions []Action
}

func (a *traceAction) Source() *SlotRef { return nil }

func (a *traceAction) Logic(f *Field) []Action {
	*a.trace = append(*a.trace, a.id)
	return a.reactions
}

func (a *traceAction) Present(ctx context.Context, p Presenter) error {
	return p.Present(ctx, log.NewTextEvent(-1, "present "+a.id))
}

// loopAction yields a fresh copy of itself forever.
type loopAction struct {
	runs *int
}

func (a *loopAction) Source() *SlotRef { return nil }

func (a *loopAction) Logic(f *Field) []Action {
	*a.runs++
	return []Action{&loopAction{runs: a.runs}}
}

func (a *loopAction) Present(ctx context.Context, p Presenter) error { return nil }

func newTrace(trace *[]string, id string, reactions ...Action) *traceAction {
	return &traceAction{id: id, trace: trace, reactions: reactions}
}

func emptyField() *Field {
	return singlesField(mon("A", 50), mon("B", 50))
}

func TestQueueReactionsInterleave(t *testing.T) {
	var trace []string
	q := NewQueue(nil)
	q.Enqueue(newTrace(&trace, "A1", newTrace(&trace, "R1")))
	q.Enqueue(newTrace(&trace, "A2", newTrace(&trace, "R2")))

	if err := q.Process(context.Background(), emptyField(), nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []string{"A1", "R1", "A2", "R2"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("order = %v, want %v", trace, want)
	}
}

func TestQueueNestedReactionsResolveDepthFirst(t *testing.T) {
	var trace []string
	q := NewQueue(nil)
	c := newTrace(&trace, "C")
	b := newTrace(&trace, "B", c)
	q.Enqueue(newTrace(&trace, "A", b))
	q.Enqueue(newTrace(&trace, "D"))

	if err := q.Process(context.Background(), emptyField(), nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []string{"A", "B", "C", "D"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("order = %v, want %v", trace, want)
	}
}

func TestQueueInsertAtFrontStacks(t *testing.T) {
	var trace []string
	q := NewQueue(nil)
	if err := q.InsertAtFront([]Action{newTrace(&trace, "3")}); err != nil {
		t.Fatal(err)
	}
	if err := q.InsertAtFront([]Action{newTrace(&trace, "1"), newTrace(&trace, "2")}); err != nil {
		t.Fatal(err)
	}
	q.Enqueue(newTrace(&trace, "4"))

	if q.Len() != 4 {
		t.Fatalf("Len = %d, want 4", q.Len())
	}
	if err := q.Process(context.Background(), emptyField(), nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []string{"1", "2", "3", "4"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("order = %v, want %v", trace, want)
	}
}

func TestQueueRunawayChain(t *testing.T) {
	runs := 0
	q := NewQueue(nil)
	q.Enqueue(&loopAction{runs: &runs})

	err := q.Process(context.Background(), emptyField(), nil)
	if !errors.Is(err, ErrRunawayChain) {
		t.Fatalf("expected ErrRunawayChain, got %v", err)
	}
	if runs != MaxActionsPerProcess {
		t.Errorf("logic ran %d times, want %d", runs, MaxActionsPerProcess)
	}
	if !q.IsEmpty() {
		t.Errorf("queue not cleared after runaway chain: %d left", q.Len())
	}
}

func TestQueueExactlyAtLimitSucceeds(t *testing.T) {
	var trace []string
	q := NewQueue(nil)
	for i := 0; i < MaxActionsPerProcess; i++ {
		q.Enqueue(newTrace(&trace, "x"))
	}
	if err := q.Process(context.Background(), emptyField(), nil); err != nil {
		t.Fatalf("Process of %d actions: %v", MaxActionsPerProcess, err)
	}
	if len(trace) != MaxActionsPerProcess {
		t.Errorf("ran %d actions", len(trace))
	}
}

func TestQueueNilHandling(t *testing.T) {
	var trace []string
	q := NewQueue(nil)

	if err := q.Enqueue(nil); !errors.Is(err, ErrNilAction) {
		t.Errorf("Enqueue(nil) = %v, want ErrNilAction", err)
	}
	if err := q.InsertAtFront(nil); !errors.Is(err, ErrNilActions) {
		t.Errorf("InsertAtFront(nil) = %v, want ErrNilActions", err)
	}

	q.EnqueueRange([]Action{nil, newTrace(&trace, "a"), nil})
	if err := q.InsertAtFront([]Action{nil, newTrace(&trace, "b")}); err != nil {
		t.Fatalf("InsertAtFront with nil entry: %v", err)
	}
	if err := q.InsertAtFront([]Action{}); err != nil {
		t.Fatalf("InsertAtFront(empty): %v", err)
	}
	if q.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (nil entries skipped)", q.Len())
	}

	// Reactions may contain nil entries too.
	q.Enqueue(newTrace(&trace, "c", nil, newTrace(&trace, "d")))
	if err := q.Process(context.Background(), emptyField(), nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []string{"b", "a", "c", "d"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("order = %v, want %v", trace, want)
	}
}

func TestQueueClearAndReuse(t *testing.T) {
	var trace []string
	q := NewQueue(nil)
	q.Clear()
	q.Clear()
	if !q.IsEmpty() {
		t.Fatal("new queue not empty after Clear")
	}

	q.Enqueue(newTrace(&trace, "dropped"))
	q.Clear()
	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("Len after Clear = %d", q.Len())
	}

	for round := 0; round < 2; round++ {
		trace = nil
		q.Enqueue(newTrace(&trace, "A1", newTrace(&trace, "R1")))
		q.Enqueue(newTrace(&trace, "A2"))
		if err := q.Process(context.Background(), emptyField(), nil); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		want := []string{"A1", "R1", "A2"}
		if !reflect.DeepEqual(trace, want) {
			t.Errorf("round %d: order = %v, want %v", round, trace, want)
		}
		if !q.IsEmpty() {
			t.Errorf("round %d: queue not drained", round)
		}
	}
}

func TestQueuePresentsAfterLogic(t *testing.T) {
	var trace []string
	var presented []string
	p := PresenterFunc(func(ctx context.Context, ev log.GameEvent) error {
		// Interleave presentation with the logic trace.
		trace = append(trace, ev.Details)
		presented = append(presented, ev.Details)
		return nil
	})

	q := NewQueue(nil)
	q.Enqueue(newTrace(&trace, "A", newTrace(&trace, "R")))
	if err := q.Process(context.Background(), emptyField(), p); err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []string{"A", "present A", "R", "present R"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("sequence = %v, want %v", trace, want)
	}
	if len(presented) != 2 {
		t.Errorf("presented %d actions, want 2", len(presented))
	}
}

func TestQueuePresentErrorAborts(t *testing.T) {
	var trace []string
	boom := errors.New("renderer gone")
	p := PresenterFunc(func(ctx context.Context, ev log.GameEvent) error { return boom })

	q := NewQueue(nil)
	q.Enqueue(newTrace(&trace, "A"))
	q.Enqueue(newTrace(&trace, "B"))
	err := q.Process(context.Background(), emptyField(), p)
	if !errors.Is(err, boom) {
		t.Fatalf("expected presenter error, got %v", err)
	}
	if !reflect.DeepEqual(trace, []string{"A"}) {
		t.Errorf("trace = %v, want [A]", trace)
	}
}

func TestQueueObserverOncePerPop(t *testing.T) {
	var trace []string
	var observed []log.GameEvent
	q := NewQueue(nil)
	q.Observer = func(ev log.GameEvent) { observed = append(observed, ev) }
	q.Enqueue(newTrace(&trace, "A", newTrace(&trace, "R")))
	q.Enqueue(newTrace(&trace, "B"))

	if err := q.Process(context.Background(), emptyField(), nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(observed) != 3 {
		t.Fatalf("observed %d events, want 3", len(observed))
	}
	for i, ev := range observed {
		if ev.Type != log.EventActionExecuted {
			t.Errorf("event %d type = %s", i, ev.Type)
		}
	}
	if observed[0].Subject != "trace" {
		t.Errorf("action name = %q, want %q", observed[0].Subject, "trace")
	}
}
