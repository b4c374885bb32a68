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

// Package constants keeps under strict control all the fixed literals used
// across the provisioning workflow: supported OS values, pinned component
// versions, upstream endpoints and the well known paths written on the host.
package constants

import (
	K8sVersion "k8s.io/apimachinery/pkg/util/version"
)

// Version is the install-kubernetes version
const Version = "0.3.0"

// constants defining the supported host OS.
// The preflight check is a hard compatibility gate: nothing runs on any other release.
const (
	// OSReleasePath is the os-release file read during preflight
	OSReleasePath = "/etc/os-release"

	// SupportedOSID is the os-release ID value the tool supports
	SupportedOSID = "ubuntu"

	// SupportedOSVersionID is the os-release VERSION_ID value the tool supports
	SupportedOSVersionID = "24.04"
)

// constants defining the node roles
const (
	// ControlPlaneNodeRoleValue identifies a node that hosts the Kubernetes
	// control-plane.
	//
	// NB. in single node clusters, control-plane nodes act also as worker nodes
	ControlPlaneNodeRoleValue = "control-plane"

	// WorkerNodeRoleValue identifies a node that hosts a Kubernetes worker
	WorkerNodeRoleValue = "worker"
)

// constants defining the pinned Kubernetes package feed
const (
	// KubernetesVersion is the default minor release line installed from pkgs.k8s.io
	KubernetesVersion = "1.30"

	// PackageRepositoryFormat is the deb repository for a minor release line
	PackageRepositoryFormat = "https://pkgs.k8s.io/core:/stable:/v%s/deb/"

	// ReleaseKeyFormat is the signing key for a minor release line
	ReleaseKeyFormat = "https://pkgs.k8s.io/core:/stable:/v%s/deb/Release.key"

	// AptKeyringPath is where the dearmored repository signing key is stored
	AptKeyringPath = "/etc/apt/keyrings/kubernetes.gpg"

	// AptSourceListPath is the apt source list registering the repository
	AptSourceListPath = "/etc/apt/sources.list.d/kubernetes.list"
)

// constants defining the container runtime setup
const (
	// ContainerdConfigPath is the location of the containerd config file
	ContainerdConfigPath = "/etc/containerd/config.toml"

	// ContainerdDropInPath is the systemd drop-in overriding the containerd unit
	ContainerdDropInPath = "/etc/systemd/system/containerd.service.d/override.conf"

	// ContainerdSocket is the CRI socket shared by crictl, kubelet and kubeadm
	ContainerdSocket = "unix:///run/containerd/containerd.sock"

	// CrictlConfigPath is the location of the crictl client config
	CrictlConfigPath = "/etc/crictl.yaml"
)

// constants defining host preparation targets
const (
	// FstabPath is the persistent mount table where swap entries get commented out
	FstabPath = "/etc/fstab"

	// ModulesConfPath is the module autoload list for the container network stack
	ModulesConfPath = "/etc/modules-load.d/k8s.conf"

	// SysctlConfPath is the sysctl drop-in enabling bridged traffic visibility
	// and IP forwarding
	SysctlConfPath = "/etc/sysctl.d/99-kubernetes.conf"

	// KubeletDefaultPath is the environment file consumed by the kubelet unit
	KubeletDefaultPath = "/etc/default/kubelet"
)

// constants defining the control-plane bootstrap
const (
	// PodSubnet defines the default pod subnet; it must match the Network
	// value in the CNI manifest applied right after kubeadm init
	PodSubnet = "10.244.0.0/16"

	// CNIVersion is the default flannel release tag
	CNIVersion = "v0.25.1"

	// CNIManifestFormat is the flannel manifest for a release tag
	CNIManifestFormat = "https://github.com/flannel-io/flannel/releases/download/%s/kube-flannel.yml"

	// AdminKubeConfigPath is the admin credential generated by kubeadm init
	AdminKubeConfigPath = "/etc/kubernetes/admin.conf"

	// APIServerPort is the expected default APIServerPort on the control plane node
	APIServerPort = 6443

	// ControlPlaneTaint is the taint removed on single-node clusters so
	// workloads can schedule on the only node
	ControlPlaneTaint = "node-role.kubernetes.io/control-plane"
)

// PrerequisitePackages are the utility packages installed before adding any
// third-party repository; later steps assume these tools are present.
var PrerequisitePackages = []string{
	"apt-transport-https",
	"ca-certificates",
	"curl",
	"gnupg",
	"jq",
	"software-properties-common",
}

// NodePackages are the Kubernetes node binaries installed from the pinned
// release line and held against unattended upgrades.
var NodePackages = []string{
	"kubelet",
	"kubeadm",
	"kubectl",
}

// MinimumKubernetesVersion is the oldest release line with a pkgs.k8s.io feed
// this tool knows how to register.
var MinimumKubernetesVersion = K8sVersion.MustParseGeneric("1.24")
