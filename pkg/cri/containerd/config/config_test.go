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

package config

import (
	"strings"
	"testing"
)

// generatedDefault mimics the relevant parts of a `containerd config default`
// output on Ubuntu 24.04
const generatedDefault = `version = 2
root = "/var/lib/containerd"
state = "/run/containerd"

disabled_plugins = ["io.containerd.grpc.v1.cri"]

[plugins]
  [plugins."io.containerd.grpc.v1.cri"]
    sandbox_image = "registry.k8s.io/pause:3.8"
    [plugins."io.containerd.grpc.v1.cri".containerd]
      default_runtime_name = "runc"
      [plugins."io.containerd.grpc.v1.cri".containerd.runtimes]
        [plugins."io.containerd.grpc.v1.cri".containerd.runtimes.runc]
          runtime_type = "io.containerd.runc.v2"
          [plugins."io.containerd.grpc.v1.cri".containerd.runtimes.runc.options]
            SystemdCgroup = false
`

func TestPatch(t *testing.T) {
	cases := []struct {
		TestName string
		Config   string
	}{
		{
			TestName: "a generated default config",
			Config:   generatedDefault,
		},
		{
			TestName: "an empty config",
			Config:   "",
		},
		{
			TestName: "a config with no disabled plugins",
			Config:   "version = 2\n",
		},
	}

	for _, c := range cases {
		t.Run(c.TestName, func(t *testing.T) {
			patched, err := Patch([]byte(c.Config))
			if err != nil {
				t.Fatalf("failed Patch: %v", err)
			}

			systemd, err := UsesSystemdCgroup(patched)
			if err != nil {
				t.Fatalf("failed UsesSystemdCgroup: %v", err)
			}
			if !systemd {
				t.Errorf("the patched config does not set the systemd cgroup driver")
			}

			disabled, err := HasDisabledPlugins(patched)
			if err != nil {
				t.Fatalf("failed HasDisabledPlugins: %v", err)
			}
			if disabled {
				t.Errorf("the patched config still carries a disabled plugins list")
			}
		})
	}
}

func TestPatchPreservesOtherFields(t *testing.T) {
	patched, err := Patch([]byte(generatedDefault))
	if err != nil {
		t.Fatalf("failed Patch: %v", err)
	}

	for _, field := range []string{
		`sandbox_image = "registry.k8s.io/pause:3.8"`,
		`default_runtime_name = "runc"`,
		`runtime_type = "io.containerd.runc.v2"`,
	} {
		if !strings.Contains(string(patched), field) {
			t.Errorf("the patched config lost the field %s", field)
		}
	}
}

func TestPatchInvalidConfig(t *testing.T) {
	if _, err := Patch([]byte("this is not toml [")); err == nil {
		t.Error("expected an error for an invalid config")
	}
}
