// Package sim is the headless battle arena: tanks, fixed-timestep ticks, and
// the per-tick enemy snapshots scripts observe. Scripts never see these
// types; they only reach the simulation through the tankapi facade.
package sim

import (
	"math"
	"sync"

	"github.com/google/uuid"

	"tankforge/internal/tankapi"
)

// Tank movement and combat tuning.
const (
	DefaultHealth     = 100.0
	DefaultMaxSpeed   = 120.0 // units per second
	DefaultTurnRate   = 90.0  // hull degrees per second at full command
	DefaultTurretRate = 180.0 // turret degrees per second
	DefaultGunRange   = 250.0
	DefaultGunDamage  = 20.0
	// Ticks between shots at the nominal 60 Hz tick rate.
	DefaultCooldownTicks = 30
	// A shot connects when the turret is within this many degrees of the
	// bearing to the target.
	fireTolerance = 5.0
)

// Tank is one agent in the arena. All mutation happens on the single
// simulation goroutine; the mutex only protects reads from observers
// (UI, diagnostics) racing the tick loop.
type Tank struct {
	mu sync.Mutex

	id   string
	name string

	x, y          float64
	heading       float64
	turretHeading float64
	velX, velY    float64
	health        float64

	moveCmd      float64
	turnCmd      float64
	turretTarget float64

	maxSpeed   float64
	turnRate   float64
	turretRate float64

	gunRange      float64
	gunDamage     float64
	cooldown      int
	cooldownTicks int
	firePending   bool

	sensors []tankapi.SensorConfig
	active  bool
}

// NewTank creates a tank at the given position and hull heading with the
// default loadout and a single forward sensor.
func NewTank(name string, x, y, heading float64) *Tank {
	return &Tank{
		id:            uuid.NewString(),
		name:          name,
		x:             x,
		y:             y,
		heading:       tankapi.NormalizeAngle(heading),
		turretHeading: tankapi.NormalizeAngle(heading),
		turretTarget:  tankapi.NormalizeAngle(heading),
		health:        DefaultHealth,
		maxSpeed:      DefaultMaxSpeed,
		turnRate:      DefaultTurnRate,
		turretRate:    DefaultTurretRate,
		gunRange:      DefaultGunRange,
		gunDamage:     DefaultGunDamage,
		cooldownTicks: DefaultCooldownTicks,
		sensors: []tankapi.SensorConfig{
			{Arc: 90, Range: 300, Offset: 0},
		},
		active: true,
	}
}

// ID returns the tank's unique id.
func (t *Tank) ID() string { return t.id }

// Name returns the display name.
func (t *Tank) Name() string { return t.name }

// Active reports whether the tank is still in the fight.
func (t *Tank) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Position returns the current position.
func (t *Tank) Position() (float64, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.x, t.y
}

// Heading returns the hull heading in degrees.
func (t *Tank) Heading() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.heading
}

// TurretHeading returns the turret heading in degrees.
func (t *Tank) TurretHeading() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.turretHeading
}

// Velocity returns the velocity of the last integration step.
func (t *Tank) Velocity() (float64, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.velX, t.velY
}

// Health returns remaining health.
func (t *Tank) Health() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.health
}

// GunRange returns the gun's maximum reach.
func (t *Tank) GunRange() float64 { return t.gunRange }

// Sensors returns a copy of the configured sensor list.
func (t *Tank) Sensors() []tankapi.SensorConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]tankapi.SensorConfig, len(t.sensors))
	copy(out, t.sensors)
	return out
}

// SetSensors replaces the whole sensor list, atomically: an invalid
// replacement leaves the existing list untouched.
func (t *Tank) SetSensors(configs []tankapi.SensorConfig) error {
	if err := tankapi.ValidateSensorConfigs(configs); err != nil {
		return err
	}
	fresh := make([]tankapi.SensorConfig, len(configs))
	copy(fresh, configs)
	t.mu.Lock()
	t.sensors = fresh
	t.mu.Unlock()
	return nil
}

// InSensorCone reports whether a target at the given absolute bearing and
// distance falls inside the sensor at the given index.
func (t *Tank) InSensorCone(index int, bearing, distance float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.sensors) {
		return false
	}
	return tankapi.ConeContains(t.sensors[index], t.heading, bearing, distance)
}

// SetMove sets the throttle command for the next integration step.
func (t *Tank) SetMove(v float64) {
	t.mu.Lock()
	t.moveCmd = v
	t.mu.Unlock()
}

// SetTurn sets the hull turn command for the next integration step.
func (t *Tank) SetTurn(v float64) {
	t.mu.Lock()
	t.turnCmd = v
	t.mu.Unlock()
}

// SetTurretAim sets the absolute heading the turret slews toward.
func (t *Tank) SetTurretAim(deg float64) {
	t.mu.Lock()
	t.turretTarget = tankapi.NormalizeAngle(deg)
	t.mu.Unlock()
}

// CanFire reports whether the gun is off cooldown.
func (t *Tank) CanFire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cooldown == 0 && t.active
}

// TriggerFire requests a shot this tick. It consumes the cooldown on
// success; when the gun is not ready it reports false and nothing happens.
func (t *Tank) TriggerFire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cooldown > 0 || !t.active {
		return false
	}
	t.cooldown = t.cooldownTicks
	t.firePending = true
	return true
}

// consumeFire returns and clears the pending fire request.
func (t *Tank) consumeFire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	fired := t.firePending
	t.firePending = false
	return fired
}

// TakeDamage applies damage and deactivates the tank at zero health.
func (t *Tank) TakeDamage(d float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.health -= d
	if t.health <= 0 {
		t.health = 0
		t.active = false
		t.moveCmd = 0
		t.turnCmd = 0
	}
}

// Integrate advances the tank's motion by dt seconds and clamps the
// position to the arena bounds.
func (t *Tank) Integrate(dt, width, height float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		t.velX, t.velY = 0, 0
		return
	}

	t.heading = tankapi.NormalizeAngle(t.heading + t.turnCmd*t.turnRate*dt)

	// Slew the turret toward its target, bounded by the turret rate.
	diff := tankapi.NormalizeAngle(t.turretTarget - t.turretHeading)
	maxStep := t.turretRate * dt
	if math.Abs(diff) <= maxStep {
		t.turretHeading = t.turretTarget
	} else {
		t.turretHeading = tankapi.NormalizeAngle(t.turretHeading + math.Copysign(maxStep, diff))
	}

	rad := t.heading * math.Pi / 180
	t.velX = math.Cos(rad) * t.moveCmd * t.maxSpeed
	t.velY = math.Sin(rad) * t.moveCmd * t.maxSpeed
	t.x += t.velX * dt
	t.y += t.velY * dt

	if t.x < 0 {
		t.x = 0
	} else if t.x > width {
		t.x = width
	}
	if t.y < 0 {
		t.y = 0
	} else if t.y > height {
		t.y = height
	}

	if t.cooldown > 0 {
		t.cooldown--
	}
}

// BearingTo returns the absolute bearing and distance from this tank to the
// given position.
func (t *Tank) BearingTo(x, y float64) (bearing, distance float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dx := x - t.x
	dy := y - t.y
	distance = math.Hypot(dx, dy)
	bearing = tankapi.NormalizeAngle(math.Atan2(dy, dx) * 180 / math.Pi)
	return bearing, distance
}
