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

package provision

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
	"github.com/Ribin-Baby/install-kubernetes/pkg/cri/containerd"
	"github.com/Ribin-Baby/install-kubernetes/pkg/cri/containerd/config"
	"github.com/Ribin-Baby/install-kubernetes/pkg/host"
)

// InstallContainerd installs the container runtime from the distribution
// feed and reconfigures it for a kubeadm managed node: systemd cgroup driver,
// CRI plugin enabled, an explicit unit override pointing at the patched
// config, and the crictl client pointed at the runtime socket.
func InstallContainerd(h *host.Host, flags *RunOptions) error {
	h.Infof("installing containerd")
	if err := aptGet(h, "install", "-y", "containerd"); err != nil {
		return err
	}

	// the runtime generated defaults are the patch baseline; dpkg does not
	// ship a config file for containerd
	defaults, err := h.Command("containerd", "config", "default").Silent().RunAndCapture()
	if err != nil {
		return errors.Wrap(err, "failed to generate the containerd default config")
	}

	patched, err := config.Patch([]byte(strings.Join(defaults, "\n")))
	if err != nil {
		return err
	}
	if err := h.WriteFile(constants.ContainerdConfigPath, patched, 0644); err != nil {
		return err
	}

	// the packaged unit starts containerd with no config argument; reset
	// ExecStart so the service picks up the file written above
	if err := h.WriteFile(constants.ContainerdDropInPath, containerd.DropInUnit(), 0644); err != nil {
		return err
	}

	crictl, err := containerd.CrictlConfig()
	if err != nil {
		return err
	}
	if err := h.WriteFile(constants.CrictlConfigPath, crictl, 0644); err != nil {
		return err
	}

	if err := h.Command("systemctl", "daemon-reload").Run(); err != nil {
		return err
	}
	return h.Command("systemctl", "restart", "containerd").Run()
}

// StartNodeServices writes the kubelet runtime-socket override and enables
// the runtime and the kubelet as persistent services. Order matters: the
// kubelet depends on the runtime socket existing.
func StartNodeServices(h *host.Host, flags *RunOptions) error {
	h.Infof("starting containerd and kubelet services")

	if err := h.WriteFile(constants.KubeletDefaultPath, containerd.KubeletDefault(), 0644); err != nil {
		return err
	}

	for _, service := range []string{"containerd", "kubelet"} {
		if err := h.Command("systemctl", "enable", service).Run(); err != nil {
			return err
		}
		if err := h.Command("systemctl", "restart", service).Run(); err != nil {
			return err
		}
	}
	return nil
}
