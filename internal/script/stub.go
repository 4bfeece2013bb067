package script

import (
	"tankforge/internal/tankapi"
)

// StubControls is the harmless stand-in the validator's smoke test compiles
// scripts against. Every operation answers with deterministic canned values;
// commands are accepted as no-ops. It is never used in live simulation.
type StubControls struct {
	sensors []tankapi.SensorConfig
	fired   bool
}

// NewStubControls returns a stub with one default sensor and one synthetic
// enemy in view.
func NewStubControls() *StubControls {
	return &StubControls{
		sensors: []tankapi.SensorConfig{
			{Arc: 90, Range: 300, Offset: 0},
		},
	}
}

func (s *StubControls) Position() (float64, float64) { return 400, 300 }
func (s *StubControls) Heading() float64             { return 0 }
func (s *StubControls) TurretHeading() float64       { return 0 }
func (s *StubControls) Health() float64              { return 100 }
func (s *StubControls) GunRange() float64            { return 250 }
func (s *StubControls) ArenaSize() (float64, float64) {
	return 800, 600
}

func (s *StubControls) Sensors() []tankapi.SensorConfig {
	out := make([]tankapi.SensorConfig, len(s.sensors))
	copy(out, s.sensors)
	return out
}

// SetSensors accepts valid replacements up to the real limits so scripts
// that reconfigure sensors smoke-test the same path they will run live.
func (s *StubControls) SetSensors(configs []tankapi.SensorConfig) error {
	if err := tankapi.ValidateSensorConfigs(configs); err != nil {
		return err
	}
	s.sensors = make([]tankapi.SensorConfig, len(configs))
	copy(s.sensors, configs)
	return nil
}

func (s *StubControls) SetMove(v float64)      {}
func (s *StubControls) SetTurn(v float64)      {}
func (s *StubControls) SetTurretAim(v float64) {}

func (s *StubControls) CanFire() bool { return !s.fired }

// TriggerFire reports ready exactly once per synthetic tick; repeated calls
// see "not ready" like they would against a real cooldown.
func (s *StubControls) TriggerFire() bool {
	if s.fired {
		return false
	}
	s.fired = true
	return true
}

// Enemies returns one synthetic enemy at a fixed bearing and distance,
// inside the default sensor cone.
func (s *StubControls) Enemies() []tankapi.EnemyInfo {
	return []tankapi.EnemyInfo{
		{
			ID:       "stub-enemy-1",
			X:        500,
			Y:        300,
			Heading:  180,
			Health:   100,
			Distance: 100,
			Bearing:  0,
		},
	}
}
