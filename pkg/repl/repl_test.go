package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/akhildatla/regvm/internal/testutil"
)

func TestREPL_New(t *testing.T) {
	r := New()
	if r == nil {
		t.Fatal("New returned nil")
	}
	if r.machine == nil {
		t.Fatal("REPL has no machine")
	}
}

func TestREPL_HandleCommand_Help(t *testing.T) {
	r := New()
	var out bytes.Buffer

	if r.handleCommand("help", &out) {
		t.Error("help must not exit the loop")
	}
	if !strings.Contains(out.String(), "Commands:") {
		t.Errorf("expected help text, got: %s", out.String())
	}
}

func TestREPL_HandleCommand_Quit(t *testing.T) {
	r := New()
	var out bytes.Buffer

	for _, cmd := range []string{"quit", "exit"} {
		if !r.handleCommand(cmd, &out) {
			t.Errorf("expected %q to exit the loop", cmd)
		}
	}
}

func TestREPL_ProgramBufferAndRun(t *testing.T) {
	r := New()
	var out bytes.Buffer

	r.handleCommand("set a 3", &out)
	r.handleCommand("add a 4", &out)
	r.handleCommand("out a", &out)
	r.handleCommand("run", &out)

	if !strings.Contains(out.String(), "terminated") {
		t.Errorf("expected termination report, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "7") {
		t.Errorf("expected output value 7, got: %s", out.String())
	}
}

func TestREPL_RunWithoutProgram(t *testing.T) {
	r := New()
	var out bytes.Buffer

	r.handleCommand("run", &out)
	if !strings.Contains(out.String(), "no program") {
		t.Errorf("expected no-program notice, got: %s", out.String())
	}
}

func TestREPL_List(t *testing.T) {
	r := New()
	var out bytes.Buffer

	r.handleCommand("out 1", &out)
	r.handleCommand("list", &out)
	if !strings.Contains(out.String(), "out 1") {
		t.Errorf("expected buffered source, got: %s", out.String())
	}

	out.Reset()
	r.handleCommand("clear", &out)
	r.handleCommand("list", &out)
	if strings.Contains(out.String(), "out 1") {
		t.Errorf("expected empty buffer after clear, got: %s", out.String())
	}
}

func TestREPL_BlockedAndInput(t *testing.T) {
	r := New()
	var out bytes.Buffer

	r.handleCommand("in a", &out)
	r.handleCommand("out a", &out)
	r.handleCommand("run", &out)
	if !strings.Contains(out.String(), "blocked") {
		t.Fatalf("expected blocked report, got: %s", out.String())
	}

	out.Reset()
	r.handleCommand("in 42", &out)
	r.handleCommand("run", &out)
	if !strings.Contains(out.String(), "42") {
		t.Errorf("expected echoed input, got: %s", out.String())
	}
}

func TestREPL_InRejectsNonIntegers(t *testing.T) {
	r := New()
	var out bytes.Buffer

	r.handleCommand("in abc", &out)
	if !strings.Contains(out.String(), "not an integer") {
		t.Errorf("expected rejection, got: %s", out.String())
	}
}

func TestREPL_Step(t *testing.T) {
	r := New()
	var out bytes.Buffer

	r.handleCommand("set a 1", &out)
	r.handleCommand("set a 2", &out)
	out.Reset()
	r.handleCommand("step", &out)
	if !strings.Contains(out.String(), "ip=1") {
		t.Errorf("expected ip=1 after one step, got: %s", out.String())
	}
}

func TestREPL_Regs(t *testing.T) {
	r := New()
	var out bytes.Buffer

	r.handleCommand("set a 5", &out)
	r.handleCommand("run", &out)
	out.Reset()
	r.handleCommand("regs", &out)
	if !strings.Contains(out.String(), "a = 5") {
		t.Errorf("expected register listing, got: %s", out.String())
	}
}

func TestREPL_LoadFile(t *testing.T) {
	path := testutil.TempFile(t, "out 9\n", ".asm")

	r := New()
	var out bytes.Buffer
	r.handleCommand("load "+path, &out)
	if !strings.Contains(out.String(), "loaded") {
		t.Fatalf("expected load confirmation, got: %s", out.String())
	}

	out.Reset()
	r.handleCommand("run", &out)
	if !strings.Contains(out.String(), "9") {
		t.Errorf("expected output 9, got: %s", out.String())
	}
}

func TestREPL_Trace(t *testing.T) {
	r := New()
	var out bytes.Buffer

	r.handleCommand("trace", &out)
	if !strings.Contains(out.String(), "tracing is off") {
		t.Errorf("expected off notice, got: %s", out.String())
	}

	out.Reset()
	r.handleCommand("trace on", &out)
	r.handleCommand("out 1", &out)
	r.handleCommand("run", &out)
	out.Reset()
	r.handleCommand("trace", &out)
	if !strings.Contains(out.String(), "out") {
		t.Errorf("expected trace table with op column, got: %s", out.String())
	}
}

func TestREPL_StartSession(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("set a 3\nadd a 4\nout a\nrun\nquit\n")

	New().Start(in, &out)

	if !strings.Contains(out.String(), "regvm console") {
		t.Errorf("expected banner, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "7") {
		t.Errorf("expected output value 7, got: %s", out.String())
	}
}
