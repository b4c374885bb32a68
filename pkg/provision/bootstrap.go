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
	"bytes"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Ribin-Baby/install-kubernetes/pkg/cni"
	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
	"github.com/Ribin-Baby/install-kubernetes/pkg/host"
)

// KubeadmInit initializes the cluster control plane on the host, installs the
// pod-network add-on, optionally untaints the node for single-node clusters,
// and prints a join command with no expiry for worker hosts.
func KubeadmInit(h *host.Host, flags *RunOptions) error {
	h.Infof("Starting Kubernetes using kubeadm init (this may take a minute)")

	initArgs := []string{
		"init",
		"--cri-socket", constants.ContainerdSocket,
		"--pod-network-cidr", flags.podSubnet,
	}
	if err := h.Command("kubeadm", initArgs...).RunWithEcho(); err != nil {
		return err
	}

	return postInit(h, flags)
}

func postInit(h *host.Host, flags *RunOptions) error {
	if err := copyKubeConfigToUser(h); err != nil {
		return err
	}

	if err := waitAPIServerReady(h); err != nil {
		return err
	}

	if err := applyCNI(h, flags); err != nil {
		return err
	}

	if h.IsSingleNode() {
		removeControlPlaneTaint(h)
	}

	return printJoinCommand(h)
}

// copyKubeConfigToUser materializes the administrator credential in the
// invoking user's home directory, with ownership corrected to that user even
// though the whole process runs privileged, so that subsequent cluster
// commands run by that user succeed.
func copyKubeConfigToUser(h *host.Host) error {
	u, err := invokingUser()
	if err != nil {
		return errors.Wrap(err, "failed to identify the invoking user")
	}
	target := filepath.Join(u.HomeDir, ".kube", "config")

	h.Infof("copying the admin.conf file to %s", target)
	if h.IsDryRun() {
		return nil
	}

	admin, err := os.ReadFile(constants.AdminKubeConfigPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", constants.AdminKubeConfigPath)
	}

	kubeDir := filepath.Dir(target)
	if err := os.MkdirAll(kubeDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", kubeDir)
	}
	if err := os.WriteFile(target, admin, 0600); err != nil {
		return errors.Wrapf(err, "failed to write %s", target)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return errors.Wrapf(err, "invalid uid for user %s", u.Username)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return errors.Wrapf(err, "invalid gid for user %s", u.Username)
	}
	for _, path := range []string{kubeDir, target} {
		if err := os.Chown(path, uid, gid); err != nil {
			return errors.Wrapf(err, "failed to change the ownership of %s", path)
		}
	}
	return nil
}

// invokingUser returns the user that invoked the tool: the sudo caller when
// running under sudo, the current user otherwise.
func invokingUser() (*user.User, error) {
	if name := os.Getenv("SUDO_USER"); name != "" {
		if u, err := user.Lookup(name); err == nil {
			return u, nil
		}
	}
	return user.Current()
}

// waitAPIServerReady blocks until the api server answers on the local
// endpoint; applying the CNI manifest before that point would just fail.
func waitAPIServerReady(h *host.Host) error {
	h.Infof("waiting for the api server to start")
	return h.Command(
		"/bin/bash", "-c", // use shell to get $(...) resolved
		fmt.Sprintf("while [[ \"$(curl -k https://localhost:%d/healthz -s -o /dev/null -w ''%%{http_code}'')\" != \"200\" ]]; do sleep 1; done", constants.APIServerPort),
	).Silent().Run()
}

// applyCNI installs the pod-network add-on, forcing the network range of its
// config to the pod subnet given to kubeadm init.
func applyCNI(h *host.Host, flags *RunOptions) error {
	h.Infof("applying flannel version %s", flags.cniVersion)

	applyArgs := []string{"apply", "--kubeconfig", constants.AdminKubeConfigPath, "-f", "-"}
	if h.IsDryRun() {
		return h.Command("kubectl", applyArgs...).Stdin(strings.NewReader("")).Run()
	}

	manifest, err := cni.FetchManifest(flags.cniVersion)
	if err != nil {
		return err
	}
	patched, err := cni.SetPodNetwork(manifest, flags.podSubnet)
	if err != nil {
		return err
	}

	return h.Command("kubectl", applyArgs...).Stdin(bytes.NewReader(patched)).RunWithEcho()
}

// removeControlPlaneTaint allows workloads to schedule on the only node of a
// single-node cluster. The absence of the taint is tolerated.
func removeControlPlaneTaint(h *host.Host) {
	h.Infof("removing the %s taint", constants.ControlPlaneTaint)

	taintArgs := []string{
		"--kubeconfig", constants.AdminKubeConfigPath,
		"taint", "nodes", "--all",
		constants.ControlPlaneTaint + "-",
	}
	if err := h.Command("kubectl", taintArgs...).RunWithEcho(); err != nil {
		log.Warnf("could not remove the %s taint (the node may not carry it): %v", constants.ControlPlaneTaint, err)
	}
}

// joinCommandArgs is the kubeadm invocation generating a join command whose
// token never expires, so it can be copied onto worker hosts at any time.
func joinCommandArgs() []string {
	return []string{"token", "create", "--print-join-command", "--ttl", "0"}
}

func printJoinCommand(h *host.Host) error {
	lines, err := h.Command("kubeadm", joinCommandArgs()...).Silent().RunAndCapture()
	if err != nil {
		return errors.Wrap(err, "failed to create the join command")
	}

	fmt.Printf(
		"\nControl plane ready. You can now join any number of worker nodes by running the following on each:\n\n%s\n",
		strings.Join(lines, "\n"),
	)
	return nil
}

// JoinInstructions is the worker-role tail of the pipeline: the node packages
// are installed and the kubelet is running, joining requires a command minted
// on a control-plane node.
func JoinInstructions(h *host.Host, flags *RunOptions) error {
	fmt.Printf(
		"\nWorker node ready. To join a cluster, run the following on a control-plane node:\n\n" +
			"  kubeadm token create --print-join-command\n\n" +
			"then run the printed command on this host.\n",
	)
	return nil
}
