package sim

import (
	"testing"
)

// funcController adapts a closure to the Controller interface.
type funcController func(snap Snapshot)

func (f funcController) Execute(snap Snapshot) { f(snap) }

func TestBattle_SnapshotExcludesSelfAndDead(t *testing.T) {
	b := NewBattle(800, 600)
	t1 := NewTank("t1", 100, 100, 0)
	t2 := NewTank("t2", 200, 100, 180)
	t3 := NewTank("t3", 300, 100, 180)
	b.AddTank(t1, nil)
	b.AddTank(t2, nil)
	b.AddTank(t3, nil)

	t3.TakeDamage(1000)

	snap := b.SnapshotFor(t1)
	if len(snap.Enemies) != 1 {
		t.Fatalf("snapshot has %d enemies, want 1", len(snap.Enemies))
	}
	if snap.Enemies[0].ID != t2.ID() {
		t.Errorf("enemy id = %q, want %q", snap.Enemies[0].ID, t2.ID())
	}
}

func TestBattle_SnapshotComputesRelativeGeometry(t *testing.T) {
	b := NewBattle(800, 600)
	observer := NewTank("observer", 100, 100, 0)
	other := NewTank("other", 200, 100, 180)
	b.AddTank(observer, nil)
	b.AddTank(other, nil)

	snap := b.SnapshotFor(observer)
	if len(snap.Enemies) != 1 {
		t.Fatalf("snapshot has %d enemies, want 1", len(snap.Enemies))
	}
	e := snap.Enemies[0]
	if e.Distance != 100 {
		t.Errorf("distance = %v, want 100", e.Distance)
	}
	if e.Bearing != 0 {
		t.Errorf("bearing = %v, want 0", e.Bearing)
	}
	if snap.ArenaWidth != 800 || snap.ArenaHeight != 600 {
		t.Errorf("arena = %v x %v", snap.ArenaWidth, snap.ArenaHeight)
	}
}

func TestBattle_StepRunsControllersAndAdvancesTick(t *testing.T) {
	b := NewBattle(800, 600)
	tank := NewTank("t1", 100, 100, 0)

	calls := 0
	b.AddTank(tank, funcController(func(snap Snapshot) {
		calls++
		tank.SetMove(1)
	}))

	b.Step()
	b.Step()

	if calls != 2 {
		t.Errorf("controller ran %d times, want 2", calls)
	}
	if b.Tick() != 2 {
		t.Errorf("tick = %d, want 2", b.Tick())
	}
	x, _ := tank.Position()
	if x <= 100 {
		t.Errorf("tank did not move: x = %v", x)
	}
}

func TestBattle_ResolveFireHitsAimedTarget(t *testing.T) {
	b := NewBattle(800, 600)
	shooter := NewTank("shooter", 100, 300, 0)
	target := NewTank("target", 200, 300, 180)

	b.AddTank(shooter, funcController(func(snap Snapshot) {
		shooter.TriggerFire()
	}))
	b.AddTank(target, nil)

	b.Step()

	if got := target.Health(); got != DefaultHealth-DefaultGunDamage {
		t.Errorf("target health = %v, want %v", got, DefaultHealth-DefaultGunDamage)
	}
	if shooter.Health() != DefaultHealth {
		t.Errorf("shooter took damage: %v", shooter.Health())
	}
}

func TestBattle_FireMissesWhenTurretOffTarget(t *testing.T) {
	b := NewBattle(800, 600)
	shooter := NewTank("shooter", 100, 300, 0)
	shooter.SetTurretAim(90)
	// Slew the turret away before the fight starts.
	for i := 0; i < TickRate; i++ {
		shooter.Integrate(1.0/TickRate, 800, 600)
	}
	target := NewTank("target", 200, 300, 180)

	b.AddTank(shooter, funcController(func(snap Snapshot) {
		shooter.TriggerFire()
	}))
	b.AddTank(target, nil)

	b.Step()

	if got := target.Health(); got != DefaultHealth {
		t.Errorf("target hit by a turret pointing 90 degrees away: health %v", got)
	}
}

func TestBattle_FireMissesOutOfRange(t *testing.T) {
	b := NewBattle(800, 600)
	shooter := NewTank("shooter", 0, 300, 0)
	target := NewTank("target", 400, 300, 180) // past the 250 gun range

	b.AddTank(shooter, funcController(func(snap Snapshot) {
		shooter.TriggerFire()
	}))
	b.AddTank(target, nil)

	b.Step()

	if got := target.Health(); got != DefaultHealth {
		t.Errorf("target hit from beyond gun range: health %v", got)
	}
}

func TestBattle_RunProducesWinner(t *testing.T) {
	b := NewBattle(800, 600)
	shooter := NewTank("shooter", 100, 300, 0)
	target := NewTank("target", 250, 300, 180)

	b.AddTank(shooter, funcController(func(snap Snapshot) {
		if shooter.CanFire() {
			shooter.TriggerFire()
		}
	}))
	b.AddTank(target, nil)

	winner := b.Run(10 * TickRate)
	if winner == nil {
		t.Fatal("no winner")
	}
	if winner.Name() != "shooter" {
		t.Errorf("winner = %q", winner.Name())
	}
	if target.Active() {
		t.Error("target survived")
	}
}

func TestBattle_RunStopsAtMaxTicks(t *testing.T) {
	b := NewBattle(800, 600)
	b.AddTank(NewTank("t1", 100, 100, 0), nil)
	b.AddTank(NewTank("t2", 700, 500, 180), nil)

	winner := b.Run(50)
	if winner != nil {
		t.Errorf("winner = %q on a timeout between idle tanks", winner.Name())
	}
	if b.Tick() != 50 {
		t.Errorf("tick = %d, want 50", b.Tick())
	}
	if b.ActiveCount() != 2 {
		t.Errorf("active = %d, want 2", b.ActiveCount())
	}
}
