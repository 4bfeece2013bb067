package sim

import (
	"tankforge/internal/tankapi"
)

// liveControls adapts one tank plus its per-tick snapshot to the capability
// surface the facade forwards to. A fresh adapter is built for every tick;
// it holds no state of its own beyond the snapshot it was given.
type liveControls struct {
	tank *Tank
	snap Snapshot
}

// NewControls binds a tank and this tick's snapshot to the capability
// interface consumed by the script facade.
func NewControls(t *Tank, snap Snapshot) tankapi.Controls {
	return &liveControls{tank: t, snap: snap}
}

func (c *liveControls) Position() (float64, float64)  { return c.tank.Position() }
func (c *liveControls) Heading() float64              { return c.tank.Heading() }
func (c *liveControls) TurretHeading() float64        { return c.tank.TurretHeading() }
func (c *liveControls) Health() float64               { return c.tank.Health() }
func (c *liveControls) GunRange() float64             { return c.tank.GunRange() }
func (c *liveControls) ArenaSize() (float64, float64) { return c.snap.ArenaWidth, c.snap.ArenaHeight }

func (c *liveControls) Sensors() []tankapi.SensorConfig { return c.tank.Sensors() }

func (c *liveControls) SetSensors(configs []tankapi.SensorConfig) error {
	return c.tank.SetSensors(configs)
}

func (c *liveControls) SetMove(v float64)      { c.tank.SetMove(v) }
func (c *liveControls) SetTurn(v float64)      { c.tank.SetTurn(v) }
func (c *liveControls) SetTurretAim(v float64) { c.tank.SetTurretAim(v) }
func (c *liveControls) CanFire() bool          { return c.tank.CanFire() }
func (c *liveControls) TriggerFire() bool      { return c.tank.TriggerFire() }

// Enemies returns the snapshot entries. They are already copies; handing
// them to the facade can never leak live simulation state into a script.
func (c *liveControls) Enemies() []tankapi.EnemyInfo {
	out := make([]tankapi.EnemyInfo, len(c.snap.Enemies))
	copy(out, c.snap.Enemies)
	return out
}
