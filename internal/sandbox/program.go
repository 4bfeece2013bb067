package sandbox

import (
	"fmt"

	"github.com/traefik/yaegi/interp"

	"tankforge/internal/logging"
	"tankforge/internal/tankapi"
)

// capabilityParam must match the parameter name the cleaner and validator
// recognize capability calls by.
const capabilityParam = "tank"

// wrapScript turns a guarded statement body into the single callable unit
// the interpreter evaluates. The tankapi import resolves against the
// hand-exported Symbols map, never against the host's package tree.
func wrapScript(body string) string {
	return "package main\n\n" +
		"import \"tankforge/internal/tankapi\"\n\n" +
		"func Run(" + capabilityParam + " *tankapi.Tank) {\n" + body + "\n}\n"
}

// Program is one compiled script: an opaque callable bound to a single
// vetted script body. It is owned by exactly one execution unit and never
// shared across agents.
type Program struct {
	fn  func(*tankapi.Tank)
	src string
}

// Compile applies loop guards to the body, evaluates it in a fresh
// interpreter instance, and extracts the entry point. Each Program gets its
// own interpreter; nothing is shared between compiled scripts.
func Compile(body string) (*Program, error) {
	timer := logging.StartTimer(logging.CategorySandbox, "Compile")
	defer timer.Stop()

	guarded, err := InjectLoopGuards(body)
	if err != nil {
		return nil, err
	}

	src := wrapScript(guarded)

	i := interp.New(interp.Options{})
	if err := i.Use(Symbols()); err != nil {
		return nil, fmt.Errorf("load capability symbols: %w", err)
	}

	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("script compile: %w", err)
	}

	v, err := i.Eval("main.Run")
	if err != nil {
		return nil, fmt.Errorf("script entry point missing: %w", err)
	}
	fn, ok := v.Interface().(func(*tankapi.Tank))
	if !ok {
		return nil, fmt.Errorf("script entry point has unexpected signature %T", v.Interface())
	}

	logging.SandboxDebug("compiled script: %d bytes guarded source", len(src))
	return &Program{fn: fn, src: src}, nil
}

// Run invokes the compiled script exactly once with the given facade as its
// sole argument. A panic escaping the script is converted to an error; it
// never propagates to the caller.
func (p *Program) Run(t *tankapi.Tank) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script fault: %v", r)
		}
	}()
	p.fn(t)
	return nil
}

// Source returns the wrapped, guarded source the program was compiled from.
func (p *Program) Source() string {
	return p.src
}
