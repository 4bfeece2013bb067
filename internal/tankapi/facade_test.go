package tankapi

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// mockControls is a scriptable Controls implementation for facade tests.
type mockControls struct {
	x, y          float64
	heading       float64
	turretHeading float64
	health        float64
	gunRange      float64
	arenaW        float64
	arenaH        float64
	canFire       bool

	sensors []SensorConfig
	enemies []EnemyInfo

	lastMove   float64
	lastTurn   float64
	lastAim    float64
	setSensors [][]SensorConfig
}

func newMockControls() *mockControls {
	return &mockControls{
		x: 400, y: 300,
		health:   100,
		gunRange: 250,
		arenaW:   800, arenaH: 600,
		canFire: true,
		sensors: []SensorConfig{{Arc: 90, Range: 300, Offset: 0}},
	}
}

func (m *mockControls) Position() (float64, float64)  { return m.x, m.y }
func (m *mockControls) Heading() float64              { return m.heading }
func (m *mockControls) TurretHeading() float64        { return m.turretHeading }
func (m *mockControls) Health() float64               { return m.health }
func (m *mockControls) GunRange() float64             { return m.gunRange }
func (m *mockControls) ArenaSize() (float64, float64) { return m.arenaW, m.arenaH }

func (m *mockControls) Sensors() []SensorConfig { return m.sensors }
func (m *mockControls) SetSensors(configs []SensorConfig) error {
	m.setSensors = append(m.setSensors, configs)
	m.sensors = configs
	return nil
}

func (m *mockControls) SetMove(v float64)      { m.lastMove = v }
func (m *mockControls) SetTurn(v float64)      { m.lastTurn = v }
func (m *mockControls) SetTurretAim(v float64) { m.lastAim = v }
func (m *mockControls) CanFire() bool          { return m.canFire }
func (m *mockControls) TriggerFire() bool      { return m.canFire }
func (m *mockControls) Enemies() []EnemyInfo   { return m.enemies }

// panicControls panics on every call.
type panicControls struct{}

func (panicControls) Position() (float64, float64)  { panic("position") }
func (panicControls) Heading() float64              { panic("heading") }
func (panicControls) TurretHeading() float64        { panic("turret") }
func (panicControls) Health() float64               { panic("health") }
func (panicControls) GunRange() float64             { panic("range") }
func (panicControls) ArenaSize() (float64, float64) { panic("arena") }
func (panicControls) Sensors() []SensorConfig       { panic("sensors") }
func (panicControls) SetSensors([]SensorConfig) error {
	panic("set sensors")
}
func (panicControls) SetMove(float64)      { panic("move") }
func (panicControls) SetTurn(float64)      { panic("turn") }
func (panicControls) SetTurretAim(float64) { panic("aim") }
func (panicControls) CanFire() bool        { panic("can fire") }
func (panicControls) TriggerFire() bool    { panic("fire") }
func (panicControls) Enemies() []EnemyInfo { panic("enemies") }

func TestTank_MoveClamps(t *testing.T) {
	m := newMockControls()
	tank := NewTank(m, NewTrace())

	tank.Move(5)
	if m.lastMove != 1 {
		t.Errorf("Move(5) forwarded %v, want 1", m.lastMove)
	}
	tank.Move(-3)
	if m.lastMove != -1 {
		t.Errorf("Move(-3) forwarded %v, want -1", m.lastMove)
	}
	tank.Move(0.5)
	if m.lastMove != 0.5 {
		t.Errorf("Move(0.5) forwarded %v", m.lastMove)
	}
}

func TestTank_TurnClamps(t *testing.T) {
	m := newMockControls()
	tank := NewTank(m, NewTrace())

	tank.Turn(100)
	if m.lastTurn != 1 {
		t.Errorf("Turn(100) forwarded %v, want 1", m.lastTurn)
	}
}

func TestTank_AimTurretNormalizes(t *testing.T) {
	m := newMockControls()
	tank := NewTank(m, NewTrace())

	tank.AimTurret(270)
	if m.lastAim != -90 {
		t.Errorf("AimTurret(270) forwarded %v, want -90", m.lastAim)
	}
}

func TestTank_UtilityQueries(t *testing.T) {
	m := newMockControls()
	m.x, m.y = 123, 456
	m.heading = 42
	tank := NewTank(m, NewTrace())

	if got := tank.X(); got != 123 {
		t.Errorf("X() = %v", got)
	}
	if got := tank.Y(); got != 456 {
		t.Errorf("Y() = %v", got)
	}
	if got := tank.Heading(); got != 42 {
		t.Errorf("Heading() = %v", got)
	}
	if got := tank.ArenaWidth(); got != 800 {
		t.Errorf("ArenaWidth() = %v", got)
	}
	if got := tank.ArenaHeight(); got != 600 {
		t.Errorf("ArenaHeight() = %v", got)
	}
	if !tank.CanFire() {
		t.Error("CanFire() = false")
	}
	if got := tank.SensorCount(); got != 1 {
		t.Errorf("SensorCount() = %v", got)
	}
}

func TestTank_TraceRecordsEveryCall(t *testing.T) {
	trace := NewTrace()
	tank := NewTank(newMockControls(), trace)

	tank.Move(1)
	tank.NearestEnemy()
	tank.Health()
	tank.ConfigureSensors([]SensorConfig{{Arc: 90, Range: 300}})

	entries := trace.Entries()
	if len(entries) != 4 {
		t.Fatalf("trace has %d entries, want 4", len(entries))
	}
	kinds := []TraceKind{KindAction, KindSensor, KindUtility, KindConfig}
	for i, want := range kinds {
		if entries[i].Kind != want {
			t.Errorf("entry %d kind = %q, want %q", i, entries[i].Kind, want)
		}
	}
}

func TestTank_NearestEnemy(t *testing.T) {
	m := newMockControls()
	m.enemies = []EnemyInfo{
		{ID: "far", Distance: 250, Bearing: 10},
		{ID: "near", Distance: 80, Bearing: -20},
		{ID: "outside-cone", Distance: 50, Bearing: 170},
	}
	tank := NewTank(m, NewTrace())

	got := tank.NearestEnemy()
	if got == nil {
		t.Fatal("NearestEnemy() = nil")
	}
	if got.ID != "near" {
		t.Errorf("NearestEnemy().ID = %q, want near", got.ID)
	}
}

func TestTank_NearestEnemyNilWhenNoneDetectable(t *testing.T) {
	m := newMockControls()
	m.enemies = []EnemyInfo{
		{ID: "behind", Distance: 100, Bearing: 180},
		{ID: "too-far", Distance: 350, Bearing: 0},
	}
	tank := NewTank(m, NewTrace())

	if got := tank.NearestEnemy(); got != nil {
		t.Errorf("NearestEnemy() = %+v, want nil", got)
	}
}

func TestTank_ScanSortsByDistance(t *testing.T) {
	m := newMockControls()
	m.enemies = []EnemyInfo{
		{ID: "b", Distance: 200, Bearing: 5},
		{ID: "a", Distance: 100, Bearing: -5},
	}
	tank := NewTank(m, NewTrace())

	got := tank.Scan(0)
	want := []EnemyInfo{
		{ID: "a", Distance: 100, Bearing: -5},
		{ID: "b", Distance: 200, Bearing: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan(0) mismatch (-want +got):\n%s", diff)
	}
}

func TestTank_ScanOutOfRangeIndex(t *testing.T) {
	tank := NewTank(newMockControls(), NewTrace())

	if got := tank.Scan(5); len(got) != 0 {
		t.Errorf("Scan(5) = %v, want empty", got)
	}
	if got := tank.Scan(-1); len(got) != 0 {
		t.Errorf("Scan(-1) = %v, want empty", got)
	}
}

func TestTank_ScanAllDeduplicates(t *testing.T) {
	m := newMockControls()
	// Two overlapping forward cones; the same enemy is inside both.
	m.sensors = []SensorConfig{
		{Arc: 90, Range: 300, Offset: 0},
		{Arc: 120, Range: 400, Offset: 0},
	}
	m.enemies = []EnemyInfo{
		{ID: "e1", Distance: 100, Bearing: 0},
		{ID: "e2", Distance: 350, Bearing: 10},
	}
	tank := NewTank(m, NewTrace())

	got := tank.ScanAll()
	if len(got) != 2 {
		t.Fatalf("ScanAll() returned %d enemies, want 2", len(got))
	}
	if got[0].ID != "e1" || got[1].ID != "e2" {
		t.Errorf("ScanAll() = %q, %q", got[0].ID, got[1].ID)
	}
}

func TestTank_ConfigureSensorsAtomic(t *testing.T) {
	m := newMockControls()
	tank := NewTank(m, NewTrace())

	// Empty replacement: rejected, existing list untouched.
	if tank.ConfigureSensors(nil) {
		t.Error("empty sensor list accepted")
	}
	if len(m.setSensors) != 0 {
		t.Error("SetSensors reached controls for invalid list")
	}

	// Too many: rejected wholesale even though each entry is valid.
	nine := make([]SensorConfig, 9)
	for i := range nine {
		nine[i] = SensorConfig{Arc: 45, Range: 200, Offset: float64(i * 40)}
	}
	if tank.ConfigureSensors(nine) {
		t.Error("nine sensors accepted")
	}
	if len(m.setSensors) != 0 {
		t.Error("SetSensors reached controls for oversized list")
	}

	// One bad entry poisons the whole replacement.
	mixed := []SensorConfig{
		{Arc: 90, Range: 300},
		{Arc: 5, Range: 300},
	}
	if tank.ConfigureSensors(mixed) {
		t.Error("list with invalid entry accepted")
	}

	// A valid replacement goes through.
	eight := make([]SensorConfig, 8)
	for i := range eight {
		eight[i] = SensorConfig{Arc: 45, Range: 200, Offset: float64(i * 45)}
	}
	if !tank.ConfigureSensors(eight) {
		t.Error("valid eight-sensor list rejected")
	}
	if len(m.setSensors) != 1 {
		t.Fatalf("SetSensors called %d times, want 1", len(m.setSensors))
	}
}

func TestTank_ConfigureSensorsForcesConstrained(t *testing.T) {
	m := newMockControls()
	tank := NewTank(m, NewTrace())

	// A script cannot smuggle an unconstrained sensor through the facade.
	ok := tank.ConfigureSensors([]SensorConfig{{Arc: 90, Range: 300, Unconstrained: true}})
	if !ok {
		t.Fatal("valid sensor rejected")
	}
	if m.sensors[0].Unconstrained {
		t.Error("Unconstrained flag survived the facade")
	}
}

func TestTank_PanickingControlsDegradeSafely(t *testing.T) {
	trace := NewTrace()
	tank := NewTank(panicControls{}, trace)

	if got := tank.X(); got != 0 {
		t.Errorf("X() = %v, want 0", got)
	}
	if got := tank.Heading(); got != 0 {
		t.Errorf("Heading() = %v, want 0", got)
	}
	if tank.Fire() {
		t.Error("Fire() reported success from a panicking trigger")
	}
	tank.Move(1)
	if got := tank.NearestEnemy(); got != nil {
		t.Errorf("NearestEnemy() = %+v, want nil", got)
	}

	entries := trace.Entries()
	if len(entries) != 5 {
		t.Fatalf("trace has %d entries, want 5", len(entries))
	}
	for _, e := range entries {
		if !strings.Contains(e.Result, "fault:") {
			t.Errorf("entry %s result = %q, want fault marker", e.Method, e.Result)
		}
	}
}
