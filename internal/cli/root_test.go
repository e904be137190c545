package cli

import (
	"bytes"
	"strings"
	"testing"
)

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	SetVersion("test-version")
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "test-version") {
		t.Errorf("expected version output to contain 'test-version', got: %s", out)
	}
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedSubcommands := []string{
		"run", "status", "approval", "tools", "db", "version",
	}
	for _, sub := range expectedSubcommands {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing subcommand %q", sub)
		}
	}
}

func TestApprovalSubcommands(t *testing.T) {
	subcmds := []string{"list", "show", "approve", "reject", "modify"}
	for _, sub := range subcmds {
		out, err := executeCommand("approval", sub, "--help")
		if err != nil {
			t.Errorf("approval %s --help failed: %v", sub, err)
		}
		if out == "" {
			t.Errorf("approval %s --help produced no output", sub)
		}
	}
}

func TestRunRequiresFeature(t *testing.T) {
	if _, err := executeCommand("run"); err == nil {
		t.Fatal("expected an argument error for run without a feature")
	}
}
