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

// Package exec provides a fluent wrapper for running commands on the host
// being provisioned.
//
// Every command invocation is a fallible operation returning a structured
// result: on failure the returned error is a *RunError carrying the identity
// of the failing command and the output captured during its execution.
package exec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Ribin-Baby/install-kubernetes/pkg/exec/colors"
)

// HostCmd allows to run a command on the host.
// By default the command is printed to stdout before execution; to enable colorized print of the
// command text, that can help in debugging, please set the INSTALL_KUBERNETES_COLORS environment variable to ON.
//
// By default, when the command is run it does not print any output generated during execution.
// See Silent, Stdin, RunWithEcho, RunAndCapture and DryRun for possible variations to the default behavior.
type HostCmd struct {
	command string
	args    []string
	env     []string
	silent  bool
	dryRun  bool
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	journal io.Writer
}

// NewHostCmd returns a new HostCmd to run a command on the host
func NewHostCmd(command string, args ...string) *HostCmd {
	return &HostCmd{
		command: command,
		args:    args,
	}
}

// Run executes the inner command on the host
func (c *HostCmd) Run() error {
	return c.runInnnerCommand()
}

// RunWithEcho executes the inner command on the host and echoes the command output to screen
func (c *HostCmd) RunWithEcho() error {
	c.stdout = os.Stdout
	c.stderr = os.Stderr
	return c.runInnnerCommand()
}

// RunAndCapture executes the inner command on the host and returns the output captured during execution
func (c *HostCmd) RunAndCapture() (lines []string, err error) {
	var buff bytes.Buffer
	c.stdout = &buff
	c.stderr = &buff
	err = c.runInnnerCommand()

	scanner := bufio.NewScanner(&buff)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, err
}

// Stdin sets an io.Reader to be used for streaming data in input to the inner command
func (c *HostCmd) Stdin(in io.Reader) *HostCmd {
	c.stdin = in
	return c
}

// SetEnv sets env variables to be used when running the inner command
// in addition to the current process environment
func (c *HostCmd) SetEnv(env ...string) *HostCmd {
	c.env = env
	return c
}

// Silent instructs the command to not print the command text to stdout before execution
func (c *HostCmd) Silent() *HostCmd {
	c.silent = true
	return c
}

// DryRun instructs the command to print the inner command text instead of running it
func (c *HostCmd) DryRun() *HostCmd {
	c.dryRun = true
	return c
}

// Journal sets an additional io.Writer that receives a copy of everything the
// inner command writes to stdout and stderr
func (c *HostCmd) Journal(w io.Writer) *HostCmd {
	c.journal = w
	return c
}

// String returns the inner command text
func (c *HostCmd) String() string {
	return strings.Join(append([]string{c.command}, c.args...), " ")
}

func (c *HostCmd) runInnnerCommand() error {
	// eventually print the command that will be executed
	if !c.silent || c.dryRun {
		prompt := colors.Prompt(fmt.Sprintf("%s:# ", hostname()))
		fmt.Printf("%s%s\n", prompt, colors.Command(c.String()))
	}

	// in case of dry run, it is all done
	if c.dryRun {
		return nil
	}

	cmd := exec.Command(c.command, c.args...)

	// always capture combined output, so that a failure can report what the
	// command said; the capture buffer is teed with the requested flows
	var capture bytes.Buffer

	if c.stdin != nil {
		cmd.Stdin = c.stdin
	}
	cmd.Stdout = teeWriters(&capture, c.stdout, c.journal)
	cmd.Stderr = teeWriters(&capture, c.stderr, c.journal)

	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}

	log.Debugf("Running: %s", c.String())
	if err := cmd.Run(); err != nil {
		return &RunError{
			Command: c.String(),
			Output:  capture.Bytes(),
			Inner:   err,
		}
	}
	return nil
}

func teeWriters(writers ...io.Writer) io.Writer {
	var actual []io.Writer
	for _, w := range writers {
		if w != nil {
			actual = append(actual, w)
		}
	}
	return io.MultiWriter(actual...)
}

func hostname() string {
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "host"
}

// RunError represents a failed command execution
type RunError struct {
	// Command is the command text, including arguments
	Command string
	// Output is the combined stdout and stderr captured while the command run
	Output []byte
	// Inner is the error returned by the os/exec machinery, typically an *exec.ExitError
	Inner error
}

// Error implements the error interface
func (e *RunError) Error() string {
	return fmt.Sprintf("command %q failed with error: %v", e.Command, e.Inner)
}

// Unwrap returns the underlying os/exec error, so that callers can recover
// the exit status of the failing command
func (e *RunError) Unwrap() error {
	return e.Inner
}
