package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrzor/auditdedup/internal/auditrec"
	"github.com/mrzor/auditdedup/internal/eventpool"
)

func testEvent(t *testing.T, lines ...string) *eventpool.Event {
	t.Helper()
	p, err := eventpool.New(1)
	require.NoError(t, err)
	ev, ok := p.Acquire()
	require.True(t, ok)

	pathSlot := auditrec.KindPath1
	for i, line := range lines {
		f, err := auditrec.ParseLine([]byte(line))
		require.NoError(t, err)
		if i == 0 {
			ev.Init(f.Seq(), nil)
		}
		switch f.Type {
		case auditrec.TypeSyscall:
			ev.SetItems(f.Items)
			ev.SetFragment(auditrec.KindSyscall, f)
		case auditrec.TypeExecve:
			ev.SetFragment(auditrec.KindExecve, f)
		case auditrec.TypeCwd:
			ev.SetFragment(auditrec.KindCwd, f)
		case auditrec.TypePath:
			ev.SetFragment(pathSlot, f)
			pathSlot = auditrec.KindPath2
		}
	}
	return ev
}

func TestNewBypass_Empty(t *testing.T) {
	b, err := NewBypass("")
	require.NoError(t, err)

	ok, err := b.Match(testEvent(t, `type=CWD msg=audit(1.000:1): cwd="/"`))
	require.NoError(t, err)
	assert.False(t, ok)

	var nilBypass *Bypass
	ok, err = nilBypass.Match(nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewBypass_CompileErrors(t *testing.T) {
	tests := []string{
		`syscall +`,      // syntax
		`unknown == "x"`, // unknown variable
		`items + 1`,      // not a bool
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := NewBypass(src)
			require.Error(t, err)
		})
	}
}

func TestBypass_Match(t *testing.T) {
	ev := testEvent(t,
		`type=SYSCALL msg=audit(1.000:42): syscall=2 items=2 comm="sshd"`,
		`type=CWD msg=audit(1.000:42): cwd="/"`,
		`type=PATH msg=audit(1.000:42): item=0 name="/etc/shadow"`,
		`type=PATH msg=audit(1.000:42): item=1 name="/etc/passwd"`,
	)

	tests := []struct {
		expr string
		want bool
	}{
		{`syscall contains "comm=\"sshd\""`, true},
		{`syscall contains "comm=\"cron\""`, false},
		{`any(paths, # contains "/etc/shadow")`, true},
		{`len(paths) == 2 && items == 2`, true},
		{`seq == 42`, true},
		{`"EXECVE" in types`, false},
		{`len(types) == 4 && types[0] == "SYSCALL"`, true},
		{`execve == ""`, true},
		{`cwd startsWith "cwd="`, true},
		{`time.Unix() == 1`, true},
		{`time.Unix() > 100`, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			b, err := NewBypass(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, b.String())

			got, err := b.Match(ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnv_ItemsUnknown(t *testing.T) {
	env := Env(testEvent(t, `type=CWD msg=audit(1.000:5): cwd="/tmp"`))
	assert.Equal(t, -1, env["items"])
	assert.Equal(t, `cwd="/tmp"`, env["cwd"])
	assert.Equal(t, "", env["syscall"])
	assert.Equal(t, []string{"CWD"}, env["types"])
	assert.Equal(t, []string{}, env["paths"])
	assert.True(t, env["time"].(time.Time).Equal(time.Unix(1, 0)))
}
