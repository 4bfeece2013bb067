package script

import (
	"regexp"
	"sort"
)

// forbiddenPattern is one entry in the fixed deny-list the validator scans
// cleaned script bodies against. The scan is exhaustive: every matching
// pattern contributes its own error, they are never short-circuited.
type forbiddenPattern struct {
	Name        string
	Description string
	re          *regexp.Regexp
}

// The deny-list is a pragmatic lexical gate, not the security boundary: the
// sandbox interpreter carries no stdlib symbols at all, so even constructs
// that slip past these patterns fail to resolve at compile time. The gate
// exists to produce readable, specific errors the generator can feed back to
// the model.
var forbiddenPatterns = []forbiddenPattern{
	{
		Name:        "dynamic evaluation",
		Description: "reflective or interpreted code execution",
		re:          regexp.MustCompile(`\b(reflect|interp|eval)\s*\.`),
	},
	{
		Name:        "import",
		Description: "scripts may not import packages",
		re:          regexp.MustCompile(`(?m)^\s*import\b|\bimport\s*\(`),
	},
	{
		Name:        "process access",
		Description: "process, filesystem, or environment access",
		re:          regexp.MustCompile(`\b(os|exec|syscall|ioutil|filepath)\s*\.`),
	},
	{
		Name:        "network access",
		Description: "network or storage access",
		re:          regexp.MustCompile(`\b(net|http|sql|rpc)\s*\.`),
	},
	{
		Name:        "goroutine",
		Description: "scripts must stay synchronous",
		re:          regexp.MustCompile(`\bgo\s+(func\b|\w+\s*\()`),
	},
	{
		Name:        "channel operation",
		Description: "channels and select are unavailable to scripts",
		re:          regexp.MustCompile(`<-|\bselect\s*{|\bchan\b`),
	},
	{
		Name:        "timer",
		Description: "sleeping or scheduling inside a tick",
		re:          regexp.MustCompile(`\btime\s*\.\s*(Sleep|After|Tick|NewTimer|NewTicker)\b`),
	},
	{
		Name:        "unsafe",
		Description: "unsafe or runtime introspection",
		re:          regexp.MustCompile(`\b(unsafe|runtime)\s*\.`),
	},
	{
		Name:        "panic",
		Description: "panic and recover are reserved for the host",
		re:          regexp.MustCompile(`\b(panic|recover)\s*\(`),
	},
	{
		Name:        "defer",
		Description: "deferred execution inside a tick",
		re:          regexp.MustCompile(`\bdefer\b`),
	},
}

// exposedOperations is the allow-list of capability methods a script may
// call on its tank parameter. Calls to names outside this list draw a
// warning, never an error - the dynamic smoke test is what actually rejects
// calls that cannot resolve.
var exposedOperations = map[string]bool{
	// sensors
	"NearestEnemy": true,
	"Scan":         true,
	"ScanAll":      true,
	"SensorCount":  true,
	// actions
	"Move":      true,
	"Turn":      true,
	"AimTurret": true,
	"Fire":      true,
	// utility
	"X":             true,
	"Y":             true,
	"Heading":       true,
	"TurretHeading": true,
	"Health":        true,
	"GunRange":      true,
	"ArenaWidth":    true,
	"ArenaHeight":   true,
	"CanFire":       true,
	// config
	"ConfigureSensors": true,
}

var capabilityCallRe = regexp.MustCompile(`\b` + capabilityParam + `\.(\w+)\s*\(`)

// ExposedOperations returns the capability allow-list, sorted, for prompt
// construction and diagnostics.
func ExposedOperations() []string {
	out := make([]string, 0, len(exposedOperations))
	for name := range exposedOperations {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
