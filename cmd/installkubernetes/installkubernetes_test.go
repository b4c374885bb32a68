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

package installkubernetes

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
	"github.com/Ribin-Baby/install-kubernetes/pkg/exec"
)

func TestNewCommandFlags(t *testing.T) {
	cmd := NewCommand()

	cases := []struct {
		Flag          string
		Shorthand     string
		ExpectDefault string
	}{
		{Flag: "control-plane", Shorthand: "c", ExpectDefault: "false"},
		{Flag: "single-node", Shorthand: "s", ExpectDefault: "false"},
		{Flag: "verbose", Shorthand: "v", ExpectDefault: "false"},
		{Flag: "dry-run", ExpectDefault: "false"},
		{Flag: "kubernetes-version", ExpectDefault: constants.KubernetesVersion},
		{Flag: "cni-version", ExpectDefault: constants.CNIVersion},
		{Flag: "pod-network-cidr", ExpectDefault: constants.PodSubnet},
	}

	for _, c := range cases {
		t.Run(c.Flag, func(t *testing.T) {
			f := cmd.Flags().Lookup(c.Flag)
			if f == nil {
				t.Fatalf("the %s flag is not defined", c.Flag)
			}
			if f.Shorthand != c.Shorthand {
				t.Errorf("expected shorthand %q, got %q", c.Shorthand, f.Shorthand)
			}
			if f.DefValue != c.ExpectDefault {
				t.Errorf("expected default %q, got %q", c.ExpectDefault, f.DefValue)
			}
		})
	}
}

func TestNewCommandRejectsArgs(t *testing.T) {
	cmd := NewCommand()
	cmd.SetArgs([]string{"unexpected"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for positional arguments")
	}
}

func TestExitCode(t *testing.T) {
	// a failed external command propagates its exit status
	runErr := exec.NewHostCmd("sh", "-c", "exit 7").Silent().Run()
	if runErr == nil {
		t.Fatal("expected the command to fail")
	}
	if got := exitCode(errors.Wrap(runErr, "failed to complete action test")); got != 7 {
		t.Errorf("expected exit code 7, got %d", got)
	}

	// any other error exits 1
	if got := exitCode(errors.New("unsupported operating system")); got != 1 {
		t.Errorf("expected exit code 1, got %d", got)
	}
}
