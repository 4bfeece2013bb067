package sandbox

import (
	"fmt"
	"sync"

	"tankforge/internal/logging"
	"tankforge/internal/sim"
	"tankforge/internal/tankapi"
)

// Unit owns one compiled script and the tank it controls. Its state machine
// per code version is Uncompiled -> Compiled on success or Uncompiled ->
// CompileFailed on failure; CompileFailed is terminal until new code
// arrives. There is deliberately no fallback to a stale compiled version.
//
// SetCode may arrive from a watcher goroutine while the tick loop is mid
// Execute; the mutex serializes the two, so a swap lands between ticks,
// never inside one.
type Unit struct {
	mu sync.Mutex

	tank       *sim.Tank
	code       string
	prog       *Program
	compileErr string
	trace      *tankapi.Trace
}

// NewUnit binds an execution unit to a tank. The unit starts with no code
// and does nothing until SetCode succeeds.
func NewUnit(t *sim.Tank) *Unit {
	return &Unit{tank: t, trace: tankapi.NewTrace()}
}

// Tank returns the bound tank.
func (u *Unit) Tank() *sim.Tank {
	return u.tank
}

// Trace returns the unit's per-tick capability call trace.
func (u *Unit) Trace() *tankapi.Trace {
	return u.trace
}

// Compiled reports whether the unit holds a runnable program.
func (u *Unit) Compiled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.prog != nil
}

// CompileError returns the stored compile failure, if any.
func (u *Unit) CompileError() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.compileErr
}

// SetCode replaces the unit's script body and recompiles synchronously.
func (u *Unit) SetCode(code string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.code = code
	return u.compile()
}

// compile discards the previous program and attempts a fresh compilation of
// the current code. The caller holds u.mu.
func (u *Unit) compile() error {
	u.prog = nil
	u.compileErr = ""

	if u.code == "" {
		u.compileErr = "no script assigned"
		return fmt.Errorf("no script assigned")
	}

	prog, err := Compile(u.code)
	if err != nil {
		u.compileErr = err.Error()
		logging.Sandbox("compile failed for %s: %v", u.tank.Name(), err)
		return err
	}
	u.prog = prog
	logging.SandboxDebug("compiled script for %s", u.tank.Name())
	return nil
}

// Execute runs the compiled script once for this tick. It is a no-op when
// the unit holds no program or the tank is out of the fight. A fault inside
// the script is logged and swallowed: the tank simply does nothing this
// tick, and the rest of the simulation is unaffected.
func (u *Unit) Execute(snap sim.Snapshot) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.prog == nil || !u.tank.Active() {
		return
	}

	u.trace.Reset()
	facade := tankapi.NewTank(sim.NewControls(u.tank, snap), u.trace)

	if err := u.prog.Run(facade); err != nil {
		logging.Sandbox("script fault for %s at tick %d: %v", u.tank.Name(), snap.Tick, err)
	}
}
