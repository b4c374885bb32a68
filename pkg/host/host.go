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

/*
Package host models the machine being provisioned: the node role requested
for it, the operating system detected on it, the journal capturing the run
output, and the entry points for running commands and writing configuration
files on it.
*/
package host

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
	"github.com/Ribin-Baby/install-kubernetes/pkg/exec"
	"github.com/Ribin-Baby/install-kubernetes/pkg/exec/colors"
)

// commandMutator define a function that can mutate commands on the host.
// It is used to inject behaviours that should apply to all the commands
// executed on the host, like e.g. DryRun
type commandMutator = func(cmd *exec.HostCmd) *exec.HostCmd

// Host defines the machine target of the provisioning workflow.
// The run configuration (role, single node mode) is fixed at construction
// time and never mutated afterwards.
type Host struct {
	name            string
	role            string
	singleNode      bool
	osRelease       *OSRelease
	journal         *Journal
	dryRun          bool
	commandMutators []commandMutator
}

// NewHost returns a new Host with the given role.
// singleNode implies the control-plane role plus scheduling of workloads on
// the only node.
func NewHost(role string, singleNode bool, journal *Journal) *Host {
	name, err := os.Hostname()
	if err != nil {
		name = "localhost"
	}
	return &Host{
		name:       name,
		role:       role,
		singleNode: singleNode,
		journal:    journal,
	}
}

// Name returns the hostname of the host
func (h *Host) Name() string {
	return h.name
}

// Role returns the requested node role for the host
func (h *Host) Role() string {
	return h.role
}

// IsControlPlane returns true if the host is going to run the control plane
// NB. in single node clusters, the control-plane node acts also as a worker node
func (h *Host) IsControlPlane() bool {
	return h.role == constants.ControlPlaneNodeRoleValue
}

// IsSingleNode returns true if the host is going to be the only node of the cluster
func (h *Host) IsSingleNode() bool {
	return h.singleNode
}

// Journal returns the journal capturing the run output
func (h *Host) Journal() *Journal {
	return h.journal
}

// OSRelease returns the operating system detected during preflight, or nil
// before the preflight action run
func (h *Host) OSRelease() *OSRelease {
	return h.osRelease
}

// SetOSRelease stores the operating system detected during preflight
func (h *Host) SetOSRelease(r *OSRelease) {
	h.osRelease = r
}

// DryRun instructs the host to dry run all the commands that will be executed
// on it, printing all the details for running them manually instead.
func (h *Host) DryRun() {
	h.dryRun = true
	h.commandMutators = append(h.commandMutators,
		func(c *exec.HostCmd) *exec.HostCmd {
			return c.DryRun()
		},
	)
}

// IsDryRun returns true if the host commands are going to be printed instead
// of executed
func (h *Host) IsDryRun() bool {
	return h.dryRun
}

// Command returns a HostCmd that allows to run a command on the host; the
// command output is always teed into the journal
func (h *Host) Command(command string, args ...string) *exec.HostCmd {
	cmd := exec.NewHostCmd(command, args...)

	if h.journal != nil {
		cmd = cmd.Journal(h.journal.Writer())
	}

	// applies command mutators
	for _, m := range h.commandMutators {
		cmd = m(cmd)
	}

	return cmd
}

// Infof prints an information message in the same format of commands run on
// the host; the message is print after the prompt containing the hostname.
func (h *Host) Infof(message string, args ...interface{}) {
	prompt := colors.Prompt(fmt.Sprintf("%s:# ", h.name))
	fmt.Printf("\n%s%s\n", prompt, colors.Info(fmt.Sprintf(message, args...)))
}

// WriteFile writes a configuration file on the host, creating the parent
// directory if necessary. Files are overwritten wholesale on each run and
// never read back by this process afterwards.
func (h *Host) WriteFile(path string, data []byte, perm os.FileMode) error {
	log.Debugf("Writing %s", path)
	if h.dryRun {
		prompt := colors.Prompt(fmt.Sprintf("%s:# ", h.name))
		fmt.Printf("%s%s\n", prompt, colors.Command(fmt.Sprintf("write %s (%d bytes)", path, len(data))))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create the parent directory of %s", path)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
