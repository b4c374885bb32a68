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
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
	"github.com/Ribin-Baby/install-kubernetes/pkg/host"
)

// kernelModules are the modules required by the container network stack:
// overlay for the containerd snapshotter, br_netfilter so that bridged pod
// traffic is visible to iptables.
var kernelModules = []string{"overlay", "br_netfilter"}

// sysctlSettings enable bridged-traffic visibility to the firewall and IP
// forwarding; they are applied system wide and persisted across reboots.
var sysctlSettings = []string{
	"net.bridge.bridge-nf-call-iptables  = 1",
	"net.bridge.bridge-nf-call-ip6tables = 1",
	"net.ipv4.ip_forward                 = 1",
}

// Preflight verifies the host runs the one supported distribution release.
// This is a hard compatibility gate: no mutating action runs on any other host.
func Preflight(h *host.Host, flags *RunOptions) error {
	release, err := host.ReadOSRelease(constants.OSReleasePath)
	if err != nil {
		return err
	}
	if err := release.CheckSupported(); err != nil {
		return err
	}
	h.SetOSRelease(release)

	h.Infof("detected %s, provisioning a %s node", release.PrettyName, h.Role())
	return nil
}

// HostPrep disables swap and loads the kernel modules and sysctl settings
// required by the container network stack, persisting both across reboots.
func HostPrep(h *host.Host, flags *RunOptions) error {
	h.Infof("disabling swap")

	// disabling swap for the current boot is best-effort: a failure here is
	// tolerated, the durable fstab edit below is what matters
	if err := h.Command("swapoff", "-a").Run(); err != nil {
		log.Warnf("failed to disable swap for the current boot: %v", err)
	}

	fstab, err := os.ReadFile(constants.FstabPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", constants.FstabPath)
	}
	if edited, changed := commentSwapEntries(fstab); changed {
		if err := h.WriteFile(constants.FstabPath, edited, 0644); err != nil {
			return err
		}
	}

	h.Infof("loading kernel modules")
	for _, module := range kernelModules {
		if err := h.Command("modprobe", module).Run(); err != nil {
			return err
		}
	}
	if err := h.WriteFile(constants.ModulesConfPath, []byte(strings.Join(kernelModules, "\n")+"\n"), 0644); err != nil {
		return err
	}

	h.Infof("applying sysctl settings")
	if err := h.WriteFile(constants.SysctlConfPath, []byte(strings.Join(sysctlSettings, "\n")+"\n"), 0644); err != nil {
		return err
	}
	return h.Command("sysctl", "--system").Silent().Run()
}

// commentSwapEntries comments out the swap entries of a mount table, so that
// swap stays off across reboots. It reports whether anything changed.
func commentSwapEntries(fstab []byte) ([]byte, bool) {
	lines := strings.Split(string(fstab), "\n")
	changed := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) >= 3 && fields[2] == "swap" {
			lines[i] = "#" + line
			changed = true
		}
	}
	return []byte(strings.Join(lines, "\n")), changed
}
