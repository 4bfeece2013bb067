package tankapi

import (
	"fmt"
	"sort"

	"tankforge/internal/logging"
)

// Tank is the capability facade handed to a compiled script. A fresh facade
// is constructed for every tick; a script can never smuggle mutable state
// between ticks through it. Every exposed operation catches failures in the
// underlying controls and degrades to a safe default, so one bad call never
// aborts the rest of the tick.
type Tank struct {
	impl  Controls
	trace *Trace
}

// NewTank binds a facade to the given controls and trace buffer.
func NewTank(impl Controls, trace *Trace) *Tank {
	return &Tank{impl: impl, trace: trace}
}

// recordCall runs fn under a panic boundary, appends exactly one trace entry,
// and reports whether fn completed without panicking.
func (t *Tank) recordCall(kind TraceKind, method, args string, fn func() string) (ok bool) {
	result := ""
	ok = func() (done bool) {
		defer func() {
			if r := recover(); r != nil {
				logging.APIDebug("capability call %s recovered: %v", method, r)
				result = fmt.Sprintf("fault: %v", r)
			}
		}()
		result = fn()
		return true
	}()
	t.trace.Append(TraceEntry{Method: method, Args: args, Result: result, Kind: kind})
	return ok
}

// ---------------------------------------------------------------------------
// Utility queries
// ---------------------------------------------------------------------------

// X returns the tank's X position.
func (t *Tank) X() float64 {
	var x float64
	t.recordCall(KindUtility, "X", "", func() string {
		x, _ = t.impl.Position()
		return render(x)
	})
	return x
}

// Y returns the tank's Y position.
func (t *Tank) Y() float64 {
	var y float64
	t.recordCall(KindUtility, "Y", "", func() string {
		_, y = t.impl.Position()
		return render(y)
	})
	return y
}

// Heading returns the hull heading in degrees.
func (t *Tank) Heading() float64 {
	var h float64
	t.recordCall(KindUtility, "Heading", "", func() string {
		h = t.impl.Heading()
		return render(h)
	})
	return h
}

// TurretHeading returns the turret heading in degrees.
func (t *Tank) TurretHeading() float64 {
	var h float64
	t.recordCall(KindUtility, "TurretHeading", "", func() string {
		h = t.impl.TurretHeading()
		return render(h)
	})
	return h
}

// Health returns remaining health.
func (t *Tank) Health() float64 {
	var h float64
	t.recordCall(KindUtility, "Health", "", func() string {
		h = t.impl.Health()
		return render(h)
	})
	return h
}

// GunRange returns the maximum distance a shot can hit at.
func (t *Tank) GunRange() float64 {
	var r float64
	t.recordCall(KindUtility, "GunRange", "", func() string {
		r = t.impl.GunRange()
		return render(r)
	})
	return r
}

// ArenaWidth returns the arena width.
func (t *Tank) ArenaWidth() float64 {
	var w float64
	t.recordCall(KindUtility, "ArenaWidth", "", func() string {
		w, _ = t.impl.ArenaSize()
		return render(w)
	})
	return w
}

// ArenaHeight returns the arena height.
func (t *Tank) ArenaHeight() float64 {
	var h float64
	t.recordCall(KindUtility, "ArenaHeight", "", func() string {
		_, h = t.impl.ArenaSize()
		return render(h)
	})
	return h
}

// CanFire reports whether the gun is ready this tick.
func (t *Tank) CanFire() bool {
	var ready bool
	t.recordCall(KindUtility, "CanFire", "", func() string {
		ready = t.impl.CanFire()
		return render(ready)
	})
	return ready
}

// SensorCount returns the number of configured sensors.
func (t *Tank) SensorCount() int {
	var n int
	t.recordCall(KindSensor, "SensorCount", "", func() string {
		n = len(t.impl.Sensors())
		return render(n)
	})
	return n
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

// Move sets forward/backward throttle, clamped to [-1, 1].
func (t *Tank) Move(v float64) {
	v = clamp(v, -1, 1)
	t.recordCall(KindAction, "Move", render(v), func() string {
		t.impl.SetMove(v)
		return "ok"
	})
}

// Turn sets the hull turn rate, clamped to [-1, 1].
func (t *Tank) Turn(v float64) {
	v = clamp(v, -1, 1)
	t.recordCall(KindAction, "Turn", render(v), func() string {
		t.impl.SetTurn(v)
		return "ok"
	})
}

// AimTurret points the turret at an absolute heading, in degrees.
func (t *Tank) AimTurret(deg float64) {
	deg = NormalizeAngle(deg)
	t.recordCall(KindAction, "AimTurret", render(deg), func() string {
		t.impl.SetTurretAim(deg)
		return "ok"
	})
}

// Fire triggers the gun. Returns false if the gun was not ready or the
// trigger faulted.
func (t *Tank) Fire() bool {
	var fired bool
	t.recordCall(KindAction, "Fire", "", func() string {
		fired = t.impl.TriggerFire()
		return render(fired)
	})
	return fired
}

// ---------------------------------------------------------------------------
// Sensor configuration
// ---------------------------------------------------------------------------

// ConfigureSensors replaces the whole sensor list. The replacement is atomic:
// an invalid list (empty, too long, or out-of-constraint entries) is rejected
// as a whole and the existing list stays untouched.
func (t *Tank) ConfigureSensors(configs []SensorConfig) bool {
	// Scripts never get unconstrained sensors.
	for i := range configs {
		configs[i].Unconstrained = false
	}
	accepted := false
	t.recordCall(KindConfig, "ConfigureSensors", fmt.Sprintf("%d sensors", len(configs)), func() string {
		if err := ValidateSensorConfigs(configs); err != nil {
			return fmt.Sprintf("rejected: %v", err)
		}
		if err := t.impl.SetSensors(configs); err != nil {
			return fmt.Sprintf("rejected: %v", err)
		}
		accepted = true
		return "ok"
	})
	return accepted
}

// ---------------------------------------------------------------------------
// Derived sensor queries. These are computed by the facade itself from the
// enemy snapshot and the configured cones, never delegated.
// ---------------------------------------------------------------------------

// visibleThrough returns the enemies inside the given sensor cone.
func (t *Tank) visibleThrough(s SensorConfig, heading float64, enemies []EnemyInfo) []EnemyInfo {
	var out []EnemyInfo
	for _, e := range enemies {
		if ConeContains(s, heading, e.Bearing, e.Distance) {
			out = append(out, e)
		}
	}
	return out
}

// NearestEnemy returns the closest enemy inside at least one configured
// sensor cone, or nil if none is detectable.
func (t *Tank) NearestEnemy() *EnemyInfo {
	var nearest *EnemyInfo
	t.recordCall(KindSensor, "NearestEnemy", "", func() string {
		heading := t.impl.Heading()
		enemies := t.impl.Enemies()
		for _, s := range t.impl.Sensors() {
			for _, e := range t.visibleThrough(s, heading, enemies) {
				if nearest == nil || e.Distance < nearest.Distance {
					copied := e
					nearest = &copied
				}
			}
		}
		return render(nearest)
	})
	return nearest
}

// Scan returns the enemies inside the sensor cone at the given index, sorted
// ascending by distance. An out-of-range index yields an empty result.
func (t *Tank) Scan(index int) []EnemyInfo {
	var out []EnemyInfo
	t.recordCall(KindSensor, "Scan", fmt.Sprintf("%d", index), func() string {
		sensors := t.impl.Sensors()
		if index < 0 || index >= len(sensors) {
			return "no such sensor"
		}
		out = t.visibleThrough(sensors[index], t.impl.Heading(), t.impl.Enemies())
		sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
		return render(out)
	})
	return out
}

// ScanAll returns the union of enemies across all sensor cones, sorted
// ascending by distance, with no duplicates even when an enemy falls inside
// several cones.
func (t *Tank) ScanAll() []EnemyInfo {
	var out []EnemyInfo
	t.recordCall(KindSensor, "ScanAll", "", func() string {
		heading := t.impl.Heading()
		enemies := t.impl.Enemies()
		seen := make(map[string]bool)
		for _, s := range t.impl.Sensors() {
			for _, e := range t.visibleThrough(s, heading, enemies) {
				if !seen[e.ID] {
					seen[e.ID] = true
					out = append(out, e)
				}
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
		return render(out)
	})
	return out
}
