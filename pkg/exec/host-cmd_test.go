/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package exec

import (
	"bytes"
	"errors"
	osexec "os/exec"
	"strings"
	"testing"
)

func TestRunAndCapture(t *testing.T) {
	lines, err := NewHostCmd("sh", "-c", "echo one; echo two").Silent().RunAndCapture()
	if err != nil {
		t.Fatalf("failed to run the command: %v", err)
	}

	got := strings.Join(lines, ", ")
	if got != "one, two" {
		t.Errorf("expected output [one, two], got [%s]", got)
	}
}

func TestStdin(t *testing.T) {
	lines, err := NewHostCmd("cat").Silent().Stdin(strings.NewReader("piped")).RunAndCapture()
	if err != nil {
		t.Fatalf("failed to run the command: %v", err)
	}

	if strings.Join(lines, "") != "piped" {
		t.Errorf("expected the piped input to be echoed back, got %v", lines)
	}
}

func TestRunError(t *testing.T) {
	err := NewHostCmd("sh", "-c", "echo doomed; exit 3").Silent().Run()
	if err == nil {
		t.Fatal("expected the command to fail")
	}

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected a *RunError, got %T", err)
	}
	if !strings.Contains(runErr.Command, "exit 3") {
		t.Errorf("the error does not carry the command identity: %q", runErr.Command)
	}
	if !strings.Contains(string(runErr.Output), "doomed") {
		t.Errorf("the error does not carry the captured output: %q", string(runErr.Output))
	}

	var exitErr *osexec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("the error does not unwrap to the underlying exit error")
	}
	if exitErr.ExitCode() != 3 {
		t.Errorf("expected exit code 3, got %d", exitErr.ExitCode())
	}
}

func TestJournalTee(t *testing.T) {
	var journal bytes.Buffer
	if err := NewHostCmd("sh", "-c", "echo logged").Silent().Journal(&journal).Run(); err != nil {
		t.Fatalf("failed to run the command: %v", err)
	}

	if !strings.Contains(journal.String(), "logged") {
		t.Errorf("the journal did not receive the command output, got %q", journal.String())
	}
}

func TestDryRun(t *testing.T) {
	// the command must not run: mangling a nonexistent path would fail otherwise
	if err := NewHostCmd("sh", "-c", "exit 1").DryRun().Run(); err != nil {
		t.Errorf("a dry run command returned an error: %v", err)
	}
}

func TestString(t *testing.T) {
	cmd := NewHostCmd("apt-get", "install", "-y", "containerd")
	if cmd.String() != "apt-get install -y containerd" {
		t.Errorf("unexpected command text %q", cmd.String())
	}
}
