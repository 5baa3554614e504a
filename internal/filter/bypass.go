package filter

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mrzor/auditdedup/internal/auditrec"
	"github.com/mrzor/auditdedup/internal/eventpool"
)

// Bypass is a compiled boolean expression over a completed event.
type Bypass struct {
	source  string
	program *vm.Program
}

// NewBypass compiles expression. An empty expression yields a Bypass that
// never matches.
func NewBypass(expression string) (*Bypass, error) {
	if expression == "" {
		return &Bypass{}, nil
	}

	program, err := expr.Compile(expression, expr.Env(exampleEnv()), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile bypass expression %q: %w", expression, err)
	}

	return &Bypass{source: expression, program: program}, nil
}

// String returns the source expression.
func (b *Bypass) String() string {
	return b.source
}

// Match reports whether ev satisfies the expression.
func (b *Bypass) Match(ev *eventpool.Event) (bool, error) {
	if b == nil || b.program == nil {
		return false, nil
	}

	out, err := expr.Run(b.program, Env(ev))
	if err != nil {
		return false, fmt.Errorf("evaluating bypass expression: %w", err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("bypass expression returned %T, want bool", out)
	}
	return matched, nil
}

// Env builds the evaluation environment for ev.
func Env(ev *eventpool.Event) map[string]interface{} {
	items, ok := ev.Items()
	if !ok {
		items = -1
	}

	env := exampleEnv()
	env["seq"] = ev.Seq()
	env["items"] = items

	types := make([]string, 0, auditrec.NumKinds)
	paths := make([]string, 0, 2)
	ev.Each(func(k auditrec.Kind, f *auditrec.Fragment) {
		if len(types) == 0 {
			env["time"] = f.Stamp.Time()
		}
		types = append(types, f.Type.String())
		body := string(f.Body())
		switch k {
		case auditrec.KindSyscall:
			env["syscall"] = body
		case auditrec.KindExecve:
			env["execve"] = body
		case auditrec.KindCwd:
			env["cwd"] = body
		case auditrec.KindPath1, auditrec.KindPath2:
			paths = append(paths, body)
		}
	})
	env["types"] = types
	env["paths"] = paths

	return env
}

// exampleEnv defines the variable types for compile-time checking.
func exampleEnv() map[string]interface{} {
	return map[string]interface{}{
		"seq":     uint64(0),
		"time":    time.Time{},
		"items":   0,
		"types":   []string{},
		"syscall": "",
		"execve":  "",
		"cwd":     "",
		"paths":   []string{},
	}
}
