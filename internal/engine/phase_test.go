package engine

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/statekit"

	"github.com/unbound-force/mimic/internal/taxonomy"
)

// enterEvent reaches each phase from replaying.
var enterEvent = map[taxonomy.Phase]statekit.EventType{
	taxonomy.Recording:          eventBeginRecord,
	taxonomy.VerifyingUnordered: eventBeginVerify,
	taxonomy.VerifyingOrdered:   eventBeginVerifyOrdered,
}

func TestPhases_TableMatchesStatechart(t *testing.T) {
	for from, events := range phaseTransitions {
		for ev, to := range events {
			p, err := startPhases("test", nil)
			if err != nil {
				t.Fatalf("startPhases: %v", err)
			}
			if enter, ok := enterEvent[from]; ok {
				if err := p.Fire(enter); err != nil {
					t.Fatalf("entering %s: %v", from, err)
				}
			}
			if err := p.Fire(ev); err != nil {
				t.Fatalf("%s --%s--> %s: %v", from, ev, to, err)
			}
			if got := p.Current(); got != to {
				t.Errorf("%s --%s--> %s, want %s", from, ev, got, to)
			}
		}
	}
}

func TestPhases_RejectsUnlistedEvents(t *testing.T) {
	p, err := startPhases("test", nil)
	if err != nil {
		t.Fatalf("startPhases: %v", err)
	}
	if p.Current() != taxonomy.Replaying {
		t.Fatalf("initial phase = %s, want replaying", p.Current())
	}
	err = p.Fire(eventEndRecord)
	if !errors.Is(err, taxonomy.ErrConfiguration) {
		t.Errorf("END_RECORD while replaying: err = %v, want ConfigurationError", err)
	}
	if p.Current() != taxonomy.Replaying {
		t.Errorf("phase after rejected event = %s, want replaying", p.Current())
	}

	_ = p.Fire(eventFinish)
	if p.CanFire(eventBeginRecord) {
		t.Error("finished executions must not accept further events")
	}
}

func TestPhases_CountsTransitions(t *testing.T) {
	p, err := startPhases("test", nil)
	if err != nil {
		t.Fatalf("startPhases: %v", err)
	}
	before := p.ctx.transitions
	_ = p.Fire(eventBeginRecord)
	_ = p.Fire(eventEndRecord)
	if got := p.ctx.transitions - before; got != 2 {
		t.Errorf("transitions = %d, want 2", got)
	}
}
