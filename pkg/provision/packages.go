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
	"fmt"
	"strings"

	"github.com/pkg/errors"

	K8sVersion "k8s.io/apimachinery/pkg/util/version"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
	"github.com/Ribin-Baby/install-kubernetes/pkg/host"
)

// InstallPrerequisites refreshes the package index and installs the utility
// packages every later step assumes to be present.
func InstallPrerequisites(h *host.Host, flags *RunOptions) error {
	h.Infof("installing prerequisite packages")

	if err := aptGet(h, "update"); err != nil {
		return err
	}
	return aptGet(h, append([]string{"install", "-y"}, constants.PrerequisitePackages...)...)
}

// InstallKubernetes registers the pkgs.k8s.io repository for the pinned minor
// release line, installs the node packages and holds them against unattended
// upgrades: minor-version drift on a running cluster is the failure mode
// being avoided.
func InstallKubernetes(h *host.Host, flags *RunOptions) error {
	minor, err := minorReleaseLine(flags.kubernetesVersion)
	if err != nil {
		return err
	}

	h.Infof("registering the Kubernetes v%s package repository", minor)

	keyURL := fmt.Sprintf(constants.ReleaseKeyFormat, minor)
	key, err := h.Command("curl", "-fsSL", keyURL).Silent().RunAndCapture()
	if err != nil {
		return errors.Wrapf(err, "failed to fetch the repository signing key from %s", keyURL)
	}

	if err := h.Command("mkdir", "-p", "/etc/apt/keyrings").Silent().Run(); err != nil {
		return err
	}
	if err := h.Command(
		"gpg", "--dearmor", "--batch", "--yes", "-o", constants.AptKeyringPath,
	).Stdin(strings.NewReader(strings.Join(key, "\n"))).Run(); err != nil {
		return errors.Wrap(err, "failed to dearmor the repository signing key")
	}

	sourceList := fmt.Sprintf(
		"deb [signed-by=%s] %s /\n",
		constants.AptKeyringPath,
		fmt.Sprintf(constants.PackageRepositoryFormat, minor),
	)
	if err := h.WriteFile(constants.AptSourceListPath, []byte(sourceList), 0644); err != nil {
		return err
	}

	h.Infof("installing %s", strings.Join(constants.NodePackages, ", "))
	if err := aptGet(h, "update"); err != nil {
		return err
	}
	if err := aptGet(h, append([]string{"install", "-y"}, constants.NodePackages...)...); err != nil {
		return err
	}

	// pin the node packages: the kubelet skew policy does not allow
	// unattended upgrades
	return h.Command("apt-mark", append([]string{"hold"}, constants.NodePackages...)...).Run()
}

// minorReleaseLine maps a Kubernetes version to its package feed release line
func minorReleaseLine(v *K8sVersion.Version) (string, error) {
	if v == nil {
		v = K8sVersion.MustParseGeneric(constants.KubernetesVersion)
	}
	if v.LessThan(constants.MinimumKubernetesVersion) {
		return "", errors.Errorf(
			"kubernetes version %s is not supported: pkgs.k8s.io only hosts v%s and newer",
			v, constants.MinimumKubernetesVersion,
		)
	}
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor()), nil
}

// aptGet runs the package manager non-interactively
func aptGet(h *host.Host, args ...string) error {
	return h.Command("apt-get", append([]string{"-q"}, args...)...).
		SetEnv("DEBIAN_FRONTEND=noninteractive").
		Run()
}
