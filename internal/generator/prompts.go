package generator

import (
	"fmt"
	"strings"

	"tankforge/internal/script"
)

// systemPrompt describes the full capability surface and its constraints.
// It is fixed per process: the strategy text only ever goes into the user
// prompt. The callable-methods line is derived from the validator's
// allow-list so the prompt and the admission gate cannot drift apart.
var systemPrompt = fmt.Sprintf(systemPromptTemplate,
	strings.Join(script.ExposedOperations(), ", "))

const systemPromptTemplate = `You write control scripts for a battle tank in a 2D arena.

Your output must be a BARE sequence of Go statements - the body of a function
that runs once per simulation tick (60 ticks per second). Do not emit a
function declaration, a package clause, imports, markdown fences, comments,
or any explanation. Only the statements.

The only identifier available is the parameter "tank". Its surface:

Sensing (the tank only perceives enemies inside its sensor cones):
  tank.NearestEnemy() *tankapi.EnemyInfo  - closest detectable enemy, or nil
  tank.Scan(i int) []tankapi.EnemyInfo    - enemies in sensor cone i, nearest first
  tank.ScanAll() []tankapi.EnemyInfo      - enemies in any cone, nearest first, no duplicates
  tank.SensorCount() int

An EnemyInfo has fields: ID, X, Y, Heading, TurretHeading, VelX, VelY,
Health, Distance, Bearing. Bearing is absolute, in degrees.

Actions (commands for this tick; magnitudes clamp to [-1, 1]):
  tank.Move(v float64)        - throttle, forward positive
  tank.Turn(v float64)        - hull turn rate
  tank.AimTurret(deg float64) - absolute turret heading in degrees
  tank.Fire() bool            - true if the shot was taken

State:
  tank.X(), tank.Y(), tank.Heading(), tank.TurretHeading() float64
  tank.Health(), tank.GunRange() float64
  tank.ArenaWidth(), tank.ArenaHeight() float64
  tank.CanFire() bool

Sensor configuration (atomic - an invalid list is rejected wholesale):
  tank.ConfigureSensors([]tankapi.SensorConfig{{Arc: 90, Range: 300, Offset: 0}}) bool
  1 to 8 sensors; Arc in [10, 120] degrees; Range in [50, 400]; Offset is
  relative to the hull heading.

Hard rules:
- No imports, no goroutines, no channels, no defer, no panic or recover.
- The only methods that exist on tank are: %s.
- No package references other than tankapi for the two types above.
- Loops must do a small bounded amount of work; the runtime force-breaks any
  loop after 100 iterations.
- The script runs fresh every tick: do not try to keep state between ticks.`

// userPromptTemplate wraps the player's strategy text.
const userPromptTemplate = `Write the per-tick script body for this strategy:

%s

Remember: output ONLY the bare Go statements, nothing else.`

// feedbackPromptTemplate is used on retry, feeding the failed attempt back.
const feedbackPromptTemplate = `Your previous script was rejected.

--- REJECTED SCRIPT ---
%s

--- REJECTION REASON ---
%s
%s
Write a corrected per-tick script body for this strategy:

%s

Remember: output ONLY the bare Go statements, nothing else.`

// retryHint matches a recurring mistake pattern in rejection text and adds a
// targeted instruction to the retry prompt.
type retryHint struct {
	match string
	hint  string
}

var retryHints = []retryHint{
	{
		match: "forbidden construct \"import\"",
		hint:  "Do not import anything. Every capability is reached through the tank parameter.",
	},
	{
		match: "undefined:",
		hint:  "Only call methods on tank and use local variables. Helper functions and external identifiers do not exist.",
	},
	{
		match: "syntax error",
		hint:  "Emit plain statements only: no function declaration, no markdown, no prose.",
	},
}
