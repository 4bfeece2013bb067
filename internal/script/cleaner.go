// Package script implements the admission pipeline for model-generated tank
// scripts: cleaning raw LLM output down to a bare statement body, and
// validating that body before it is ever compiled into the live simulation.
package script

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"

	"tankforge/internal/logging"
)

// capabilityParam is the parameter name the generated script addresses the
// facade by. The cleaner uses it to recognize wrapper functions and
// code-looking lines.
const capabilityParam = "tank"

var (
	fenceLineRe   = regexp.MustCompile("^\\s*```[a-zA-Z0-9_-]*\\s*$")
	boilerplateRe = regexp.MustCompile(`(?i)^\s*here('s| is)? (the |your |some )?(code|script)\s*:?\s*\n?`)
	codeStartRe   = regexp.MustCompile(`^\s*(if|for|switch|var|const|return|break|continue|{|})\b|^\s*}|^\s*{|\w+\s*(:=|\+\+|--|\()`)
)

// Clean extracts a bare statement body from noisy model output. It never
// fails: on total parse failure it returns its best-effort trimmed input.
// Each step is idempotent on already-clean input.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)

	text = stripBoilerplate(text)
	text = stripFences(text)
	text = stripBoilerplate(text)
	text = stripComments(text)
	stripped := text

	text = unwrapFunction(text)
	text = trimToCodeWindow(text, stripped)
	text = stripUnbalancedTrailing(text)
	text = dedent(text)

	return strings.TrimSpace(text)
}

// stripFences extracts the content of the first fenced markdown block,
// wherever it appears: prose on either side and the fence lines themselves
// are dropped. A single unpaired fence line is removed on its own, leaving
// the surrounding text for the code-window pass. Text without fence lines
// passes through unchanged, so extraction is idempotent.
func stripFences(text string) string {
	lines := strings.Split(text, "\n")

	var fences []int
	for i, line := range lines {
		if fenceLineRe.MatchString(line) {
			fences = append(fences, i)
		}
	}

	switch len(fences) {
	case 0:
		return strings.TrimSpace(text)
	case 1:
		rest := make([]string, 0, len(lines)-1)
		rest = append(rest, lines[:fences[0]]...)
		rest = append(rest, lines[fences[0]+1:]...)
		return strings.TrimSpace(strings.Join(rest, "\n"))
	default:
		return strings.TrimSpace(strings.Join(lines[fences[0]+1:fences[1]], "\n"))
	}
}

// stripBoilerplate removes a leading "here is the code:" style phrase.
func stripBoilerplate(text string) string {
	if loc := boilerplateRe.FindStringIndex(text); loc != nil && loc[0] == 0 {
		text = text[loc[1]:]
	}
	return strings.TrimSpace(text)
}

// stripComments removes line and block comments with a string-literal-aware
// scanner: comment introducers inside quoted, raw, or rune literals are left
// alone, and escape sequences inside quoted literals are honored.
func stripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	const (
		stateCode = iota
		stateDouble
		stateSingle
		stateRaw
		stateLine
		stateBlock
	)
	state := stateCode

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch state {
		case stateCode:
			switch {
			case c == '/' && i+1 < len(text) && text[i+1] == '/':
				state = stateLine
				i++
			case c == '/' && i+1 < len(text) && text[i+1] == '*':
				state = stateBlock
				i++
			case c == '"':
				state = stateDouble
				b.WriteByte(c)
			case c == '\'':
				state = stateSingle
				b.WriteByte(c)
			case c == '`':
				state = stateRaw
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		case stateDouble:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(text) {
				i++
				b.WriteByte(text[i])
			} else if c == '"' {
				state = stateCode
			}
		case stateSingle:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(text) {
				i++
				b.WriteByte(text[i])
			} else if c == '\'' {
				state = stateCode
			}
		case stateRaw:
			b.WriteByte(c)
			if c == '`' {
				state = stateCode
			}
		case stateLine:
			if c == '\n' {
				state = stateCode
				b.WriteByte(c)
			}
		case stateBlock:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				state = stateCode
				i++
			} else if c == '\n' {
				// Keep line structure so positions stay meaningful.
				b.WriteByte(c)
			}
		}
	}

	// Drop lines that became blank when their comment was removed.
	lines := strings.Split(b.String(), "\n")
	var out []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" && len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
			continue
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// unwrapFunction detects a script that arrived as an entire function
// declaration (or a whole file with package/import preamble) whose parameter
// names the capability object, and unwraps it to just the function body.
func unwrapFunction(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return trimmed
	}

	src := trimmed
	prefix := ""
	if !strings.HasPrefix(trimmed, "package ") {
		prefix = "package main\n\n"
		src = prefix + trimmed
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "script.go", src, parser.SkipObjectResolution)
	if err != nil {
		return trimmed
	}

	var fn *ast.FuncDecl
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if fn != nil {
				return trimmed // more than one function: not a simple wrapper
			}
			fn = d
		case *ast.GenDecl:
			if d.Tok != token.IMPORT {
				return trimmed
			}
		default:
			return trimmed
		}
	}
	if fn == nil || fn.Body == nil {
		return trimmed
	}
	if !paramNamesCapability(fn) {
		return trimmed
	}

	lbrace := fset.Position(fn.Body.Lbrace).Offset
	rbrace := fset.Position(fn.Body.Rbrace).Offset
	if lbrace < 0 || rbrace <= lbrace || rbrace >= len(src) {
		return trimmed
	}
	body := src[lbrace+1 : rbrace]
	logging.ValidatorDebug("unwrapped function wrapper %q", fn.Name.Name)
	// Trim newlines only; the shared indentation is left for dedent.
	return strings.Trim(body, "\n")
}

func paramNamesCapability(fn *ast.FuncDecl) bool {
	if fn.Type.Params == nil || len(fn.Type.Params.List) != 1 {
		return false
	}
	for _, name := range fn.Type.Params.List[0].Names {
		if name.Name == capabilityParam {
			return true
		}
	}
	return false
}

// looksLikeCode reports whether a line plausibly starts script code.
func looksLikeCode(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, capabilityParam+".") {
		return true
	}
	return codeStartRe.MatchString(trimmed)
}

// looksLikeProse reports whether a line reads as explanatory text rather
// than code.
func looksLikeProse(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if looksLikeCode(trimmed) {
		return false
	}
	if strings.ContainsAny(trimmed, "{};=") {
		return false
	}
	// Multi-word sentences without code punctuation are prose.
	return strings.Count(trimmed, " ") >= 2
}

// trimToCodeWindow finds the span of code-looking lines and drops leading and
// trailing prose. If no code-looking line exists at all, the comment-stripped
// input is returned verbatim rather than an empty string.
func trimToCodeWindow(text, fallback string) string {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if looksLikeCode(line) {
			start = i
			break
		}
	}
	if start == -1 {
		return fallback
	}

	// Track brace depth from the start of code; once depth returns to zero,
	// a following prose-looking line ends the window.
	depth := 0
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if depth == 0 && i > start && looksLikeProse(lines[i]) {
			end = i
			break
		}
		depth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
	}

	return strings.Join(lines[start:end], "\n")
}

// stripUnbalancedTrailing removes trailing close braces that have no matching
// open anywhere in the text.
func stripUnbalancedTrailing(text string) string {
	for {
		trimmed := strings.TrimSpace(text)
		if !strings.HasSuffix(trimmed, "}") {
			return text
		}
		if strings.Count(trimmed, "}") <= strings.Count(trimmed, "{") {
			return text
		}
		text = strings.TrimSpace(trimmed[:len(trimmed)-1])
	}
}

// dedent removes the common leading indentation shared by all non-blank lines.
func dedent(text string) string {
	lines := strings.Split(text, "\n")

	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := 0
		for indent < len(line) && (line[indent] == ' ' || line[indent] == '\t') {
			indent++
		}
		if common == -1 || indent < common {
			common = indent
		}
	}
	if common <= 0 {
		return text
	}

	for i, line := range lines {
		if len(line) >= common {
			lines[i] = line[common:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
