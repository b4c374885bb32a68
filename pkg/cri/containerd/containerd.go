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

// Package containerd implements helpers for configuring the containerd
// runtime and its CRI clients on the host.
package containerd

import (
	"fmt"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
)

// DropInUnit returns the systemd drop-in that replaces the ExecStart of the
// packaged containerd unit with one pointing explicitly at the patched config
// file. The empty ExecStart line resets the inherited value, as systemd
// requires for overriding Type=oneshot-less services.
func DropInUnit() []byte {
	return []byte(fmt.Sprintf(
		"[Service]\n"+
			"ExecStart=\n"+
			"ExecStart=/usr/bin/containerd --config %s\n",
		constants.ContainerdConfigPath,
	))
}

// crictlConfig mirrors the subset of the crictl config file the tool manages.
type crictlConfig struct {
	RuntimeEndpoint string `json:"runtime-endpoint"`
	ImageEndpoint   string `json:"image-endpoint"`
}

// CrictlConfig returns the crictl client config pointing at the containerd
// control socket.
func CrictlConfig() ([]byte, error) {
	data, err := yaml.Marshal(&crictlConfig{
		RuntimeEndpoint: constants.ContainerdSocket,
		ImageEndpoint:   constants.ContainerdSocket,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize the crictl config")
	}
	return data, nil
}

// KubeletDefault returns the environment file override telling the kubelet
// which container runtime socket to use.
func KubeletDefault() []byte {
	return []byte(fmt.Sprintf(
		"KUBELET_EXTRA_ARGS=--container-runtime-endpoint=%s\n",
		constants.ContainerdSocket,
	))
}
