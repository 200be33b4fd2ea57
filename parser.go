// parser.go - turn learner scripts into Commands

// Copyright (C) 2018-2026  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package dronescript

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultReceiver is the object name scripts call commands on, eg. drone.takeoff()
const DefaultReceiver = "drone"

// ParseError is a fatal problem found in one line of a script.
type ParseError struct {
	Line    int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ParseErrors collects every ParseError in a script, in source order.
type ParseErrors []ParseError

func (pe ParseErrors) Error() string {
	msgs := make([]string, len(pe))
	for i, e := range pe {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Err returns nil when there were no errors, so callers can use the usual idiom.
func (pe ParseErrors) Err() error {
	if len(pe) == 0 {
		return nil
	}
	return pe
}

var (
	printRe   = regexp.MustCompile(`^print\s*\((.*)\)$`)
	callRe    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\.\s*([A-Za-z_]\w*)\s*\((.*)\)$`)
	keywordRe = regexp.MustCompile(`^[A-Za-z_]\w*\s*=\s*`)
)

// Parser turns script text into Commands.  It holds no state between calls
// so one Parser may be shared.
type Parser struct {
	Receiver string
}

// NewParser returns a Parser for scripts addressing DefaultReceiver.
func NewParser() *Parser {
	return &Parser{Receiver: DefaultReceiver}
}

// Parse parses a script with the default Parser.
func Parse(script string) ([]Command, ParseErrors) {
	return NewParser().Parse(script)
}

// Parse reads the script line by line.  Every malformed statement becomes a
// ParseError and parsing carries on, so all problems are reported in one pass.
func (p *Parser) Parse(script string) (cmds []Command, errs ParseErrors) {
	receiver := p.Receiver
	if receiver == "" {
		receiver = DefaultReceiver
	}
	script = strings.ReplaceAll(script, "\r\n", "\n")
	for i, line := range strings.Split(script, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '#' || strings.HasPrefix(trimmed, "//") {
			continue
		}
		for _, stmt := range splitStatements(trimmed) {
			cmd, err := parseStatement(receiver, lineNo, stmt)
			if err != nil {
				errs = append(errs, *err)
				continue
			}
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	return cmds, errs
}

// splitStatements breaks a line on semicolons and drops any trailing # comment,
// ignoring both inside quoted strings.
func splitStatements(line string) (stmts []string) {
	var quote rune
	start := 0
	add := func(end int) {
		if s := strings.TrimSpace(line[start:end]); s != "" {
			stmts = append(stmts, s)
		}
	}
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ';':
			add(i)
			start = i + 1
		case r == '#':
			add(i)
			return stmts
		}
	}
	add(len(line))
	return stmts
}

// splitArgs splits a call's argument list on commas outside quotes.
func splitArgs(s string) (args []string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var quote rune
	start := 0
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ',':
			args = append(args, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	args = append(args, strings.TrimSpace(s[start:]))
	return args
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// firstArg returns the first argument with any name= keyword prefix removed.
func firstArg(argList string) (string, bool) {
	args := splitArgs(argList)
	if len(args) == 0 || args[0] == "" {
		return "", false
	}
	a := args[0]
	if a[0] != '"' && a[0] != '\'' {
		a = keywordRe.ReplaceAllString(a, "")
	}
	return a, true
}

func parseStatement(receiver string, line int, stmt string) (Command, *ParseError) {
	origin := Origin{Line: line, Text: stmt}
	fail := func(format string, args ...any) (Command, *ParseError) {
		return nil, &ParseError{Line: line, Message: fmt.Sprintf(format, args...)}
	}

	if m := printRe.FindStringSubmatch(stmt); m != nil {
		return PrintCommand{Origin: origin, Value: unquote(strings.TrimSpace(m[1]))}, nil
	}

	m := callRe.FindStringSubmatch(stmt)
	if m == nil || m[1] != receiver {
		if strings.Contains(stmt, receiver+".") {
			return fail("syntax error in %q, expected %s.command(...)", stmt, receiver)
		}
		return nil, nil // not ours, eg. plain arithmetic
	}

	verb, argList := m[2], m[3]
	kind, ok := LookupVerb(verb)
	if !ok {
		return fail("unknown command %q", verb)
	}

	number := func(what string, def float64) (float64, *ParseError) {
		a, present := firstArg(argList)
		if !present {
			return def, nil
		}
		v, err := strconv.ParseFloat(unquote(a), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &ParseError{Line: line, Message: fmt.Sprintf("invalid %s %q for %s", what, a, verb)}
		}
		if v < 0 {
			return 0, &ParseError{Line: line, Message: fmt.Sprintf("%s for %s must not be negative, got %v", what, verb, v)}
		}
		return v, nil
	}

	switch {
	case kind == KindTakeoff:
		return TakeoffCommand{Origin: origin}, nil
	case kind == KindLand:
		return LandCommand{Origin: origin}, nil
	case kind.IsMovement():
		d, err := number("distance", DefaultDistance)
		if err != nil {
			return nil, err
		}
		return MoveCommand{Origin: origin, Direction: kind, Distance: d}, nil
	case kind.IsRotation():
		a, err := number("angle", DefaultAngle)
		if err != nil {
			return nil, err
		}
		return RotateCommand{Origin: origin, Direction: kind, Angle: a}, nil
	case kind == KindHover:
		ms, err := number("duration", float64(DefaultHover/time.Millisecond))
		if err != nil {
			return nil, err
		}
		return HoverCommand{Origin: origin, Duration: time.Duration(ms * float64(time.Millisecond))}, nil
	case kind == KindFlip:
		a, present := firstArg(argList)
		if !present {
			return FlipCommand{Origin: origin, Direction: FlipForward}, nil
		}
		dir, ok := parseFlipDirection(unquote(a))
		if !ok {
			return fail("invalid flip direction %q (use forward, back, left or right)", unquote(a))
		}
		return FlipCommand{Origin: origin, Direction: dir}, nil
	}
	return fail("unsupported command %q", verb)
}
