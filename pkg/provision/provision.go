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
Package provision implements the actions that turn a pristine host into a
Kubernetes node.

Actions are the logical steps of the provisioning workflow; they run strictly
in sequence and the workflow short-circuits on the first failure. There is one
fork only: after the shared prefix, control-plane hosts run the cluster
bootstrap while worker hosts get join instructions.
*/
package provision

import (
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	K8sVersion "k8s.io/apimachinery/pkg/util/version"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
	"github.com/Ribin-Baby/install-kubernetes/pkg/host"
)

// action registry defines the list of available actions and the corresponding entry point.
var actionRegistry = map[string]func(*host.Host, *RunOptions) error{
	"preflight":             Preflight,
	"host-prep":             HostPrep,
	"install-prerequisites": InstallPrerequisites,
	"install-containerd":    InstallContainerd,
	"install-kubernetes":    InstallKubernetes,
	"start-node-services":   StartNodeServices,
	"kubeadm-init":          KubeadmInit,
	"join-instructions":     JoinInstructions,
}

// KnownActions returns the list of known actions
func KnownActions() []string {
	names := []string{}
	for n := range actionRegistry {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

// Pipeline returns the ordered list of actions for the role requested for the
// host. Order of execution matters: the runtime must be configured before the
// kubelet starts and both must be running before the cluster bootstrap.
func Pipeline(h *host.Host) []string {
	actions := []string{
		"preflight",
		"host-prep",
		"install-prerequisites",
		"install-containerd",
		"install-kubernetes",
		"start-node-services",
	}

	if h.IsControlPlane() {
		return append(actions, "kubeadm-init")
	}
	return append(actions, "join-instructions")
}

// Option is a configuration option supplied to Run
type Option func(*RunOptions)

// KubernetesVersion option sets the minor release line of the node packages
func KubernetesVersion(v *K8sVersion.Version) Option {
	return func(r *RunOptions) {
		r.kubernetesVersion = v
	}
}

// CNIVersion option sets the flannel release tag applied at bootstrap time
func CNIVersion(version string) Option {
	return func(r *RunOptions) {
		r.cniVersion = version
	}
}

// PodSubnet option sets the pod network address range passed to kubeadm init
// and enforced on the CNI manifest
func PodSubnet(subnet string) Option {
	return func(r *RunOptions) {
		r.podSubnet = subnet
	}
}

// RunOptions holds the run configuration: it is built once from the parsed
// command line options and never mutated while actions run.
type RunOptions struct {
	kubernetesVersion *K8sVersion.Version
	cniVersion        string
	podSubnet         string
}

func newRunOptions(options ...Option) *RunOptions {
	flags := &RunOptions{
		cniVersion: constants.CNIVersion,
		podSubnet:  constants.PodSubnet,
	}
	for _, o := range options {
		o(flags)
	}
	return flags
}

// Run executes the given actions on the host, in order, stopping at the first
// failure. The returned error identifies the failing action.
func Run(h *host.Host, actions []string, options ...Option) error {
	flags := newRunOptions(options...)

	for _, action := range actions {
		entryPoint, ok := actionRegistry[action]
		if !ok {
			return errors.Errorf("%s is not a valid action name. Use one of %s", action, KnownActions())
		}

		log.Infof("Running action %s...", action)
		if err := entryPoint(h, flags); err != nil {
			return errors.Wrapf(err, "failed to complete action %s", action)
		}
	}
	return nil
}
