package script

import (
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strings"

	"tankforge/internal/logging"
	"tankforge/internal/sandbox"
	"tankforge/internal/tankapi"
)

// ValidationResult carries the outcome of one admission check. Errors
// non-empty implies Valid is false; Warnings never affect Valid.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validator runs the staged admission pipeline over raw model output:
// clean, syntax check, forbidden-construct scan, API-surface scan, and a
// single dynamic smoke run against the harmless stub.
type Validator struct {
	lastCleaned string
}

// NewValidator returns a ready validator.
func NewValidator() *Validator {
	return &Validator{}
}

// CleanedCode returns the cleaned text of the most recent Validate call.
// It is available regardless of validity, so callers can show the user what
// was attempted even on rejection.
func (v *Validator) CleanedCode() string {
	return v.lastCleaned
}

// Validate cleans the raw text and runs it through every admission stage.
// A syntax failure is fatal and short-circuits; forbidden-construct matches
// all accumulate; unknown capability calls only warn.
func (v *Validator) Validate(raw string) *ValidationResult {
	timer := logging.StartTimer(logging.CategoryValidator, "Validate")
	defer timer.Stop()

	result := &ValidationResult{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	cleaned := Clean(raw)
	v.lastCleaned = cleaned
	logging.ValidatorDebug("cleaned script: %d bytes (raw %d)", len(cleaned), len(raw))

	// Stage 1: the cleaned body must parse as a standalone callable taking
	// one parameter. A parse failure is the single reported error; no later
	// stage runs on unparseable text.
	if err := checkSyntax(cleaned); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("syntax error: %v", err))
		logging.Validator("rejected script: %v", err)
		return result
	}

	// Stage 2: forbidden-construct scan over the pre-guard body. Exhaustive:
	// all matches are reported, not just the first.
	for _, p := range forbiddenPatterns {
		if p.re.MatchString(cleaned) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("forbidden construct %q: %s", p.Name, p.Description))
		}
	}

	// Stage 3: advisory API-surface scan. Misnamed capability calls surface
	// as warnings without blocking otherwise-safe code.
	for _, name := range unknownCapabilityCalls(cleaned) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unknown capability %q - not part of the exposed surface", name))
	}

	// Stage 4: dynamic smoke test, only when nothing fatal accumulated.
	// Compile with loop guards applied and run exactly once against the stub.
	if len(result.Errors) == 0 {
		if err := smokeTest(cleaned); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("runtime check failed: %v", err))
		}
	}

	result.Valid = len(result.Errors) == 0
	if result.Valid {
		logging.Validator("accepted script (%d bytes, %d warnings)", len(cleaned), len(result.Warnings))
	} else {
		logging.Validator("rejected script: %s", strings.Join(result.Errors, "; "))
	}
	return result
}

// checkSyntax parses the body as the single callable the sandbox will build.
func checkSyntax(body string) error {
	src := "package main\n\nfunc Run(" + capabilityParam + " *tankapi.Tank) {\n" + body + "\n}\n"
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "script.go", src, parser.SkipObjectResolution)
	return err
}

// unknownCapabilityCalls returns the distinct capability method names the
// body calls that are not in the exposed allow-list, sorted for stable
// output.
func unknownCapabilityCalls(body string) []string {
	seen := make(map[string]bool)
	for _, m := range capabilityCallRe.FindAllStringSubmatch(body, -1) {
		name := m[1]
		if !exposedOperations[name] {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// smokeTest compiles the guarded body and executes it once against the
// harmless stub. Any compile error or escaped panic is fatal for admission.
func smokeTest(body string) error {
	prog, err := sandbox.Compile(body)
	if err != nil {
		return err
	}
	facade := tankapi.NewTank(NewStubControls(), tankapi.NewTrace())
	return prog.Run(facade)
}
