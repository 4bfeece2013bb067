// Package tankapi defines the capability surface exposed to generated tank
// scripts. The Tank facade is the only object a script ever sees; everything
// it returns is plain data, never a live simulation object.
package tankapi

import (
	"fmt"
	"math"
)

// Sensor configuration constraints. A tank always carries between 1 and
// MaxSensors detection cones; scripts address them by index.
const (
	MinSensors = 1
	MaxSensors = 8

	MinSensorArc = 10.0
	MaxSensorArc = 120.0

	MinSensorRange = 50.0
	MaxSensorRange = 400.0
)

// SensorConfig describes one detection cone. Offset is relative to the
// tank's hull heading; Arc is the full cone angle, in degrees.
// Unconstrained sensors skip arc/range clamping (used by built-in presets,
// never accepted from scripts).
type SensorConfig struct {
	Arc           float64
	Range         float64
	Offset        float64
	Unconstrained bool
}

// EnemyInfo is a read-only snapshot of one enemy, computed fresh every tick
// for a specific observer. Distance and Bearing are relative to the observer.
type EnemyInfo struct {
	ID            string
	X             float64
	Y             float64
	Heading       float64
	TurretHeading float64
	VelX          float64
	VelY          float64
	Health        float64
	Distance      float64
	Bearing       float64
}

// Controls is the agent boundary the facade forwards to. The live simulation
// and the validator's harmless stub both implement it.
type Controls interface {
	Position() (x, y float64)
	Heading() float64
	TurretHeading() float64
	Health() float64
	GunRange() float64
	ArenaSize() (w, h float64)

	Sensors() []SensorConfig
	SetSensors(configs []SensorConfig) error

	SetMove(v float64)
	SetTurn(v float64)
	SetTurretAim(deg float64)
	CanFire() bool
	TriggerFire() bool

	// Enemies returns this tick's snapshot, with Distance and Bearing
	// already computed relative to the observer.
	Enemies() []EnemyInfo
}

// ValidateSensorConfigs checks a bulk sensor replacement against the global
// constraints. The replacement is all-or-nothing: any violation rejects the
// whole list and the caller must leave the existing list untouched.
func ValidateSensorConfigs(configs []SensorConfig) error {
	if len(configs) < MinSensors {
		return fmt.Errorf("sensor list must contain at least %d entry", MinSensors)
	}
	if len(configs) > MaxSensors {
		return fmt.Errorf("sensor list exceeds maximum of %d entries (got %d)", MaxSensors, len(configs))
	}
	for i, c := range configs {
		if c.Unconstrained {
			continue
		}
		if c.Arc < MinSensorArc || c.Arc > MaxSensorArc {
			return fmt.Errorf("sensor %d: arc %.1f outside [%.0f, %.0f]", i, c.Arc, MinSensorArc, MaxSensorArc)
		}
		if c.Range < MinSensorRange || c.Range > MaxSensorRange {
			return fmt.Errorf("sensor %d: range %.1f outside [%.0f, %.0f]", i, c.Range, MinSensorRange, MaxSensorRange)
		}
	}
	return nil
}

// NormalizeAngle maps an angle in degrees into (-180, 180].
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg <= -180 {
		deg += 360
	} else if deg > 180 {
		deg -= 360
	}
	return deg
}

// ConeContains reports whether a target at the given absolute bearing and
// distance falls inside the sensor cone of an observer with the given hull
// heading. The range check is a cheap reject performed before the angular
// computation.
func ConeContains(s SensorConfig, observerHeading, bearing, distance float64) bool {
	if distance > s.Range {
		return false
	}
	center := observerHeading + s.Offset
	diff := NormalizeAngle(bearing - center)
	return math.Abs(diff) <= s.Arc/2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
