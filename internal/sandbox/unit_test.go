package sandbox

import (
	"testing"

	"tankforge/internal/sim"
	"tankforge/internal/tankapi"
)

func TestUnit_StartsWithoutCode(t *testing.T) {
	u := NewUnit(sim.NewTank("t1", 100, 100, 0))

	if u.Compiled() {
		t.Error("fresh unit reports compiled")
	}
	// Executing without a program is a no-op, not a fault.
	u.Execute(sim.Snapshot{ArenaWidth: 800, ArenaHeight: 600})
}

func TestUnit_SetCodeCompiles(t *testing.T) {
	u := NewUnit(sim.NewTank("t1", 100, 100, 0))

	if err := u.SetCode("tank.Move(1)"); err != nil {
		t.Fatalf("SetCode: %v", err)
	}
	if !u.Compiled() {
		t.Error("unit not compiled after SetCode")
	}
	if u.CompileError() != "" {
		t.Errorf("CompileError() = %q", u.CompileError())
	}
}

func TestUnit_CompileFailureIsTerminal(t *testing.T) {
	u := NewUnit(sim.NewTank("t1", 100, 100, 0))

	if err := u.SetCode("tank.Move(1)"); err != nil {
		t.Fatalf("SetCode: %v", err)
	}
	// Bad code replaces the good program; there is no stale fallback.
	if err := u.SetCode("this is not go"); err == nil {
		t.Fatal("expected compile error")
	}
	if u.Compiled() {
		t.Error("unit still compiled after failed SetCode")
	}
	if u.CompileError() == "" {
		t.Error("compile error not recorded")
	}

	// New valid code recovers.
	if err := u.SetCode("tank.Turn(1)"); err != nil {
		t.Fatalf("SetCode after failure: %v", err)
	}
	if !u.Compiled() {
		t.Error("unit did not recover with fresh code")
	}
}

func TestUnit_ExecuteDrivesTank(t *testing.T) {
	tank := sim.NewTank("t1", 100, 100, 0)
	u := NewUnit(tank)
	if err := u.SetCode("tank.Move(1)"); err != nil {
		t.Fatalf("SetCode: %v", err)
	}

	u.Execute(sim.Snapshot{ArenaWidth: 800, ArenaHeight: 600})
	tank.Integrate(1.0/60, 800, 600)

	x, _ := tank.Position()
	if x <= 100 {
		t.Errorf("tank did not move forward: x = %v", x)
	}
}

func TestUnit_ScriptFaultIsSwallowed(t *testing.T) {
	tank := sim.NewTank("t1", 100, 100, 0)
	u := NewUnit(tank)
	if err := u.SetCode("xs := []int{}\n_ = xs[2]"); err != nil {
		t.Fatalf("SetCode: %v", err)
	}

	// The fault must not escape; the tank just does nothing this tick.
	u.Execute(sim.Snapshot{ArenaWidth: 800, ArenaHeight: 600})
	if !tank.Active() {
		t.Error("tank deactivated by script fault")
	}
}

func TestUnit_TraceResetPerTick(t *testing.T) {
	u := NewUnit(sim.NewTank("t1", 100, 100, 0))
	if err := u.SetCode("tank.Move(1)\ntank.Turn(0.5)"); err != nil {
		t.Fatalf("SetCode: %v", err)
	}

	snap := sim.Snapshot{ArenaWidth: 800, ArenaHeight: 600}
	u.Execute(snap)
	u.Execute(snap)

	entries := u.Trace().Entries()
	if len(entries) != 2 {
		t.Fatalf("trace has %d entries after second tick, want 2", len(entries))
	}
	if entries[0].Method != "Move" || entries[1].Method != "Turn" {
		t.Errorf("trace = %+v", entries)
	}
	if entries[0].Kind != tankapi.KindAction {
		t.Errorf("entry kind = %q", entries[0].Kind)
	}
}

// Hot reload swaps code from a watcher goroutine while the tick loop keeps
// executing. Run under the race detector this exercises the SetCode/Execute
// serialization.
func TestUnit_ConcurrentReloadDuringExecution(t *testing.T) {
	tank := sim.NewTank("t1", 100, 300, 0)
	u := NewUnit(tank)
	if err := u.SetCode("tank.Move(1)"); err != nil {
		t.Fatalf("SetCode: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			code := "tank.Move(1)"
			if i%2 == 1 {
				code = "tank.Turn(0.5)"
			}
			if err := u.SetCode(code); err != nil {
				t.Errorf("SetCode: %v", err)
				return
			}
		}
	}()

	snap := sim.Snapshot{ArenaWidth: 800, ArenaHeight: 600}
	for i := 0; i < 200; i++ {
		u.Execute(snap)
	}
	<-done

	if !u.Compiled() {
		t.Fatal("unit lost its program during concurrent reloads")
	}
	// The last swap leaves the hull-turn script in place.
	u.Execute(snap)
	entries := u.Trace().Entries()
	if len(entries) != 1 || entries[0].Method != "Turn" {
		t.Errorf("trace after final reload = %+v", entries)
	}
}

func TestUnit_InactiveTankDoesNotExecute(t *testing.T) {
	tank := sim.NewTank("t1", 100, 100, 0)
	u := NewUnit(tank)
	if err := u.SetCode("tank.Move(1)"); err != nil {
		t.Fatalf("SetCode: %v", err)
	}

	tank.TakeDamage(1000)
	u.Execute(sim.Snapshot{ArenaWidth: 800, ArenaHeight: 600})

	if u.Trace().Len() != 0 {
		t.Error("dead tank's script still executed")
	}
}

// A faulting script must never take other agents down with it: the battle
// carries on and the healthy agent keeps acting.
func TestBattle_FaultIsolationBetweenUnits(t *testing.T) {
	battle := sim.NewBattle(800, 600)

	mover := sim.NewTank("mover", 100, 300, 0)
	crasher := sim.NewTank("crasher", 700, 300, 180)

	moverUnit := NewUnit(mover)
	if err := moverUnit.SetCode("tank.Move(1)"); err != nil {
		t.Fatalf("SetCode mover: %v", err)
	}
	crasherUnit := NewUnit(crasher)
	if err := crasherUnit.SetCode("xs := []int{}\n_ = xs[2]"); err != nil {
		t.Fatalf("SetCode crasher: %v", err)
	}

	battle.AddTank(mover, moverUnit)
	battle.AddTank(crasher, crasherUnit)

	for i := 0; i < 10; i++ {
		battle.Step()
	}

	if !mover.Active() || !crasher.Active() {
		t.Fatal("a tank was deactivated by a script fault")
	}
	x, _ := mover.Position()
	if x <= 100 {
		t.Errorf("healthy agent stopped moving: x = %v", x)
	}
	cx, _ := crasher.Position()
	if cx != 700 {
		t.Errorf("faulting agent moved: x = %v", cx)
	}
}
