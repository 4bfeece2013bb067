package sim

import (
	"math"

	"tankforge/internal/logging"
	"tankforge/internal/tankapi"
)

// TickRate is the nominal simulation frequency.
const TickRate = 60

// Snapshot is what one agent's controller observes for one tick: plain-data
// enemy records with distance and bearing precomputed for this observer,
// plus arena geometry. It is rebuilt from live state at the start of the
// agent's turn and never cached across ticks.
type Snapshot struct {
	Enemies     []tankapi.EnemyInfo
	ArenaWidth  float64
	ArenaHeight float64
	Tick        int
}

// Controller drives one tank for one tick. The battle loop calls each
// controller exactly once per tick, sequentially; a controller must run to
// completion and never block.
type Controller interface {
	Execute(snap Snapshot)
}

// Battle owns the arena and the tick loop. All agents execute synchronously
// within one Step; there is no parallel script execution and no shared
// mutable state between agents' sandboxes.
type Battle struct {
	width  float64
	height float64

	tanks       []*Tank
	controllers map[string]Controller
	tick        int
}

// NewBattle creates an empty arena of the given size.
func NewBattle(width, height float64) *Battle {
	return &Battle{
		width:       width,
		height:      height,
		controllers: make(map[string]Controller),
	}
}

// AddTank registers a tank and its controller. A nil controller leaves the
// tank inert (it still takes damage and blocks shots).
func (b *Battle) AddTank(t *Tank, c Controller) {
	b.tanks = append(b.tanks, t)
	if c != nil {
		b.controllers[t.ID()] = c
	}
}

// Tanks returns the registered tanks in insertion order.
func (b *Battle) Tanks() []*Tank {
	return b.tanks
}

// Tick returns the number of completed ticks.
func (b *Battle) Tick() int {
	return b.tick
}

// Size returns the arena dimensions.
func (b *Battle) Size() (w, h float64) {
	return b.width, b.height
}

// SnapshotFor computes the enemy snapshot one observer sees this tick.
// Each entry is a copy; the observer can never reach another tank's live
// state through it.
func (b *Battle) SnapshotFor(observer *Tank) Snapshot {
	snap := Snapshot{
		ArenaWidth:  b.width,
		ArenaHeight: b.height,
		Tick:        b.tick,
	}
	for _, other := range b.tanks {
		if other == observer || !other.Active() {
			continue
		}
		x, y := other.Position()
		velX, velY := other.Velocity()
		bearing, distance := observer.BearingTo(x, y)
		snap.Enemies = append(snap.Enemies, tankapi.EnemyInfo{
			ID:            other.ID(),
			X:             x,
			Y:             y,
			Heading:       other.Heading(),
			TurretHeading: other.TurretHeading(),
			VelX:          velX,
			VelY:          velY,
			Health:        other.Health(),
			Distance:      distance,
			Bearing:       bearing,
		})
	}
	return snap
}

// Step advances the simulation by one tick. Agents run strictly in
// insertion order: each one observes a snapshot computed at the start of its
// own turn, executes its script, then integrates and resolves its shot.
// Agents earlier in the pass have therefore already moved - cross-agent
// snapshots are not simultaneous, but each agent's own view is internally
// consistent.
func (b *Battle) Step() {
	dt := 1.0 / float64(TickRate)

	for _, t := range b.tanks {
		if !t.Active() {
			continue
		}
		if c, ok := b.controllers[t.ID()]; ok {
			c.Execute(b.SnapshotFor(t))
		}
		t.Integrate(dt, b.width, b.height)
		b.resolveFire(t)
	}

	b.tick++
}

// resolveFire applies a pending shot: the nearest active enemy within gun
// range and inside the turret's firing tolerance takes damage.
func (b *Battle) resolveFire(shooter *Tank) {
	if !shooter.consumeFire() {
		return
	}

	var target *Tank
	best := math.MaxFloat64
	for _, other := range b.tanks {
		if other == shooter || !other.Active() {
			continue
		}
		x, y := other.Position()
		bearing, distance := shooter.BearingTo(x, y)
		if distance > shooter.GunRange() {
			continue
		}
		aim := tankapi.NormalizeAngle(bearing - shooter.TurretHeading())
		if math.Abs(aim) > fireTolerance {
			continue
		}
		if distance < best {
			best = distance
			target = other
		}
	}

	if target != nil {
		target.TakeDamage(shooter.gunDamage)
		logging.Sim("tick %d: %s hit %s (health now %.0f)",
			b.tick, shooter.Name(), target.Name(), target.Health())
	} else {
		logging.SimDebug("tick %d: %s fired and missed", b.tick, shooter.Name())
	}
}

// ActiveCount returns how many tanks are still in the fight.
func (b *Battle) ActiveCount() int {
	n := 0
	for _, t := range b.tanks {
		if t.Active() {
			n++
		}
	}
	return n
}

// Run advances the battle until at most one tank remains active or maxTicks
// elapse, and returns the surviving tank (nil on a draw or mutual
// destruction).
func (b *Battle) Run(maxTicks int) *Tank {
	for b.tick < maxTicks && b.ActiveCount() > 1 {
		b.Step()
	}
	var survivor *Tank
	for _, t := range b.tanks {
		if t.Active() {
			if survivor != nil {
				return nil // more than one left: no winner yet
			}
			survivor = t
		}
	}
	return survivor
}
