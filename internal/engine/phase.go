package engine

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/felixgeelhaar/statekit"

	"github.com/unbound-force/mimic/internal/taxonomy"
)

// Phase events.
const (
	eventBeginRecord        statekit.EventType = "BEGIN_RECORD"
	eventEndRecord          statekit.EventType = "END_RECORD"
	eventBeginVerify        statekit.EventType = "BEGIN_VERIFY"
	eventBeginVerifyOrdered statekit.EventType = "BEGIN_VERIFY_ORDERED"
	eventEndVerify          statekit.EventType = "END_VERIFY"
	eventFinish             statekit.EventType = "FINISH"
)

const (
	stateRecording          = statekit.StateID(taxonomy.Recording)
	stateReplaying          = statekit.StateID(taxonomy.Replaying)
	stateVerifyingUnordered = statekit.StateID(taxonomy.VerifyingUnordered)
	stateVerifyingOrdered   = statekit.StateID(taxonomy.VerifyingOrdered)
	stateFinished           = statekit.StateID(taxonomy.Finished)
)

// phaseTransitions lists every allowed event per phase. The statechart
// built in newPhaseMachine mirrors it; Send is only called for events
// listed here.
var phaseTransitions = map[taxonomy.Phase]map[statekit.EventType]taxonomy.Phase{
	taxonomy.Replaying: {
		eventBeginRecord:        taxonomy.Recording,
		eventBeginVerify:        taxonomy.VerifyingUnordered,
		eventBeginVerifyOrdered: taxonomy.VerifyingOrdered,
		eventFinish:             taxonomy.Finished,
	},
	taxonomy.Recording: {
		eventEndRecord: taxonomy.Replaying,
		eventFinish:    taxonomy.Finished,
	},
	taxonomy.VerifyingUnordered: {
		eventEndVerify: taxonomy.Replaying,
		eventFinish:    taxonomy.Finished,
	},
	taxonomy.VerifyingOrdered: {
		eventEndVerify: taxonomy.Replaying,
		eventFinish:    taxonomy.Finished,
	},
}

// phaseContext is the statechart's extended state.
type phaseContext struct {
	execution   string
	logger      *log.Logger
	transitions int
}

func enterPhase(ctx **phaseContext, e statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx
	c.transitions++
	if c.logger != nil {
		c.logger.Debug("phase transition", "execution", c.execution, "event", string(e.Type))
	}
}

func newPhaseMachine() (*statekit.MachineConfig[*phaseContext], error) {
	return statekit.NewMachine[*phaseContext]("execution").
		WithInitial(stateReplaying).
		WithContext(&phaseContext{}).
		WithAction("enter", enterPhase).
		State(stateReplaying).
			OnEntry("enter").
			On(eventBeginRecord).Target(stateRecording).
			On(eventBeginVerify).Target(stateVerifyingUnordered).
			On(eventBeginVerifyOrdered).Target(stateVerifyingOrdered).
			On(eventFinish).Target(stateFinished).
			Done().
		State(stateRecording).
			OnEntry("enter").
			On(eventEndRecord).Target(stateReplaying).
			On(eventFinish).Target(stateFinished).
			Done().
		State(stateVerifyingUnordered).
			OnEntry("enter").
			On(eventEndVerify).Target(stateReplaying).
			On(eventFinish).Target(stateFinished).
			Done().
		State(stateVerifyingOrdered).
			OnEntry("enter").
			On(eventEndVerify).Target(stateReplaying).
			On(eventFinish).Target(stateFinished).
			Done().
		State(stateFinished).
			Final().
			OnEntry("enter").
			Done().
		Build()
}

// phases drives the per-test statechart.
type phases struct {
	interp *statekit.Interpreter[*phaseContext]
	ctx    *phaseContext
}

func startPhases(execution string, logger *log.Logger) (*phases, error) {
	machine, err := newPhaseMachine()
	if err != nil {
		return nil, fmt.Errorf("building phase machine: %w", err)
	}
	ctx := &phaseContext{execution: execution, logger: logger}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **phaseContext) {
		*c = ctx
	})
	interp.Start()
	return &phases{interp: interp, ctx: ctx}, nil
}

// Current returns the active phase.
func (p *phases) Current() taxonomy.Phase {
	return taxonomy.Phase(p.interp.State().Value)
}

// CanFire reports whether ev is allowed in the active phase.
func (p *phases) CanFire(ev statekit.EventType) bool {
	_, ok := phaseTransitions[p.Current()][ev]
	return ok
}

// Check returns a configuration error when the active phase does not
// accept ev.
func (p *phases) Check(ev statekit.EventType) error {
	if !p.CanFire(ev) {
		return taxonomy.Errorf(taxonomy.ConfigurationError, "",
			"cannot %s while %s", describeEvent(ev), p.Current())
	}
	return nil
}

// Fire sends ev, or returns Check's error.
func (p *phases) Fire(ev statekit.EventType) error {
	if err := p.Check(ev); err != nil {
		return err
	}
	p.interp.Send(statekit.Event{Type: ev})
	return nil
}

// Stop halts the interpreter.
func (p *phases) Stop() { p.interp.Stop() }

func describeEvent(ev statekit.EventType) string {
	switch ev {
	case eventBeginRecord:
		return "begin a recording block"
	case eventEndRecord:
		return "end a recording block"
	case eventBeginVerify, eventBeginVerifyOrdered:
		return "begin a verification block"
	case eventEndVerify:
		return "end a verification block"
	case eventFinish:
		return "finish the test"
	default:
		return string(ev)
	}
}
