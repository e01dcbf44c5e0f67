package services_test

import (
	"context"
	"os/exec"
	"sort"
	"testing"

	"spritebridge/internal/services"
)

func TestCommandExecutorForwardsBothStreams(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var lines []string
	err := services.CommandExecutor{}.Run(context.Background(), "sh", []string{"-c", "echo out; echo err 1>&2"}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	sort.Strings(lines)
	if len(lines) != 2 || lines[0] != "err" || lines[1] != "out" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestCommandExecutorReportsExitFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	if err := (services.CommandExecutor{}).Run(context.Background(), "sh", []string{"-c", "exit 3"}, nil); err == nil {
		t.Fatal("expected error for non-zero exit")
	}
}
