// Package replay runs line-based visibility scenarios against a registry.
//
// A scenario is one step per line:
//
//	level <name> add <item>
//	level <name> remove <item>
//	level <name> link <item> <child-level>
//	level <name> select <item>
//	level <name> show | hide | invisible | notify | clear
//	registry clear
//
// Blank lines and lines starting with '#' are ignored.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Op is a scenario operation.
type Op string

const (
	OpAdd           Op = "add"
	OpRemove        Op = "remove"
	OpLink          Op = "link"
	OpSelect        Op = "select"
	OpShow          Op = "show"
	OpHide          Op = "hide"
	OpInvisible     Op = "invisible"
	OpNotify        Op = "notify"
	OpClear         Op = "clear"
	OpRegistryClear Op = "registry-clear"
)

// arity is the number of arguments each level op takes.
var arity = map[Op]int{
	OpAdd:       1,
	OpRemove:    1,
	OpLink:      2,
	OpSelect:    1,
	OpShow:      0,
	OpHide:      0,
	OpInvisible: 0,
	OpNotify:    0,
	OpClear:     0,
}

// Step is one parsed scenario line.
type Step struct {
	Line  int
	Level string // empty for registry-wide ops
	Op    Op
	Args  []string
}

// String renders the step back in scenario syntax.
func (s Step) String() string {
	if s.Op == OpRegistryClear {
		return "registry clear"
	}
	parts := append([]string{"level", s.Level, string(s.Op)}, s.Args...)
	return strings.Join(parts, " ")
}

// ParseError reports a malformed scenario line.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// Parse reads a scenario. It stops at the first malformed line.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		step, err := parseLine(n, text)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return steps, nil
}

// ParseString parses a scenario held in memory.
func ParseString(s string) ([]Step, error) {
	return Parse(strings.NewReader(s))
}

func parseLine(n int, text string) (Step, error) {
	fields := strings.Fields(text)
	bad := func(msg string) (Step, error) {
		return Step{}, &ParseError{Line: n, Text: text, Msg: msg}
	}

	switch fields[0] {
	case "registry":
		if len(fields) != 2 || fields[1] != "clear" {
			return bad("expected \"registry clear\"")
		}
		return Step{Line: n, Op: OpRegistryClear}, nil
	case "level":
	default:
		return bad("unknown directive " + fields[0])
	}

	if len(fields) < 3 {
		return bad("expected \"level <name> <op> [args]\"")
	}
	op := Op(fields[2])
	want, ok := arity[op]
	if !ok {
		return bad("unknown op " + fields[2])
	}
	args := fields[3:]
	if len(args) != want {
		return bad(fmt.Sprintf("%s takes %d argument(s), got %d", op, want, len(args)))
	}
	return Step{Line: n, Level: fields[1], Op: op, Args: args}, nil
}
