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

// Package config implements utilities for patching the containerd config
// file, so that the runtime generated defaults become suitable for a kubeadm
// managed node.
package config

import (
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

var (
	systemdCgroupFieldPath = []string{"plugins", "io.containerd.grpc.v1.cri", "containerd", "runtimes", "runc", "options", "SystemdCgroup"}

	disabledPluginsField = "disabled_plugins"
)

// Patch rewrites a generated containerd config:
//   - the runc runtime is switched from the cgroupfs default to the systemd
//     cgroup driver, matching the cgroup driver the kubelet expects
//   - the disabled plugins list is dropped entirely, because the CRI plugin
//     must stay enabled
//
// The rest of the generated config is preserved as is.
func Patch(data []byte) ([]byte, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse the containerd config")
	}

	tree.SetPath(systemdCgroupFieldPath, true)

	if tree.Has(disabledPluginsField) {
		if err := tree.Delete(disabledPluginsField); err != nil {
			return nil, errors.Wrapf(err, "failed to remove the %s field from the containerd config", disabledPluginsField)
		}
	}

	patched, err := tree.ToTomlString()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize the containerd config")
	}
	return []byte(patched), nil
}

// UsesSystemdCgroup returns true if the config sets the systemd cgroup driver
// for the runc runtime.
func UsesSystemdCgroup(data []byte) (bool, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return false, errors.Wrap(err, "failed to parse the containerd config")
	}
	if !tree.HasPath(systemdCgroupFieldPath) {
		return false, nil
	}
	value, ok := tree.GetPath(systemdCgroupFieldPath).(bool)
	if !ok {
		return false, errors.Errorf("the field %v is not a boolean", systemdCgroupFieldPath)
	}
	return value, nil
}

// HasDisabledPlugins returns true if the config carries a disabled plugins
// list.
func HasDisabledPlugins(data []byte) (bool, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return false, errors.Wrap(err, "failed to parse the containerd config")
	}
	return tree.Has(disabledPluginsField), nil
}
