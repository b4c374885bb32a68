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

// Package installkubernetes implements the root install-kubernetes cobra command, and the cli Main()
package installkubernetes

import (
	stderrors "errors"
	"fmt"
	"os"
	osexec "os/exec"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	K8sVersion "k8s.io/apimachinery/pkg/util/version"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
	"github.com/Ribin-Baby/install-kubernetes/pkg/exec"
	"github.com/Ribin-Baby/install-kubernetes/pkg/host"
	"github.com/Ribin-Baby/install-kubernetes/pkg/provision"
)

const defaultLevel = log.InfoLevel

// flagpole holds the command line options; they are read once into the run
// configuration and never mutated while the workflow runs.
type flagpole struct {
	LogLevel          string
	ControlPlane      bool
	SingleNode        bool
	Verbose           bool
	DryRun            bool
	KubernetesVersion string
	CNIVersion        string
	PodSubnet         string
}

// NewCommand returns a new cobra.Command implementing the root command for install-kubernetes
func NewCommand() *cobra.Command {
	flags := &flagpole{}
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Use:   "install-kubernetes",
		Short: "install-kubernetes turns an Ubuntu 24.04 host into a Kubernetes node",
		Long: "install-kubernetes provisions a single Ubuntu 24.04 host into a Kubernetes node: it installs and\n" +
			"configures containerd, kubelet, kubeadm and kubectl, and optionally bootstraps the cluster\n" +
			"control plane with a flannel pod network.\n\n" +
			"By default the host becomes a worker node; use --control-plane or --single-node for the other roles.\n" +
			"The tool assumes a pristine host, must run as root, and stops at the first failure.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(flags, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runE(flags, cmd, args)
		},
		SilenceUsage: true,
		Version:      constants.Version,
	}

	cmd.PersistentFlags().StringVar(
		&flags.LogLevel,
		"loglevel",
		defaultLevel.String(),
		"logrus log level",
	)
	cmd.Flags().BoolVarP(&flags.ControlPlane, "control-plane", "c", false, "provision the host as a control-plane node")
	cmd.Flags().BoolVarP(&flags.SingleNode, "single-node", "s", false, "provision the host as a single-node cluster (implies --control-plane; the scheduling taint is removed)")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "print the commands that would run instead of running them")
	cmd.Flags().StringVar(&flags.KubernetesVersion, "kubernetes-version", constants.KubernetesVersion, "Kubernetes minor release line to install from pkgs.k8s.io")
	cmd.Flags().StringVar(&flags.CNIVersion, "cni-version", constants.CNIVersion, "flannel release tag applied at bootstrap time")
	cmd.Flags().StringVar(&flags.PodSubnet, "pod-network-cidr", constants.PodSubnet, "pod network address range passed to kubeadm init and enforced on the CNI manifest")

	return cmd
}

func configureLogging(flags *flagpole, flagSet *pflag.FlagSet) {
	level := defaultLevel
	parsed, err := log.ParseLevel(flags.LogLevel)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to '%s'", flags.LogLevel, level)
	} else {
		level = parsed
	}
	// --verbose raises the level, but an explicit --loglevel wins
	if flags.Verbose && !flagSet.Changed("loglevel") {
		level = log.DebugLevel
	}
	log.SetLevel(level)
}

func runE(flags *flagpole, cmd *cobra.Command, args []string) error {
	role := constants.WorkerNodeRoleValue
	if flags.ControlPlane || flags.SingleNode {
		role = constants.ControlPlaneNodeRoleValue
	}

	version, err := K8sVersion.ParseGeneric(flags.KubernetesVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid --kubernetes-version %q", flags.KubernetesVersion)
	}

	// the journal is the only scratch state of a run; it must go away on
	// every exit path
	journal, err := host.NewJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	h := host.NewHost(role, flags.SingleNode, journal)
	if flags.DryRun {
		h.DryRun()
	}

	err = provision.Run(h, provision.Pipeline(h),
		provision.KubernetesVersion(version),
		provision.CNIVersion(flags.CNIVersion),
		provision.PodSubnet(flags.PodSubnet),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n--- captured output of the failed run ---\n")
		if dumpErr := journal.Dump(os.Stderr); dumpErr != nil {
			log.Warnf("failed to dump the run log: %v", dumpErr)
		}
		return err
	}
	return nil
}

// Run runs the install-kubernetes root command
func Run() error {
	return NewCommand().Execute()
}

// Main wraps Run, sets the log formatter and translates the error into the
// process exit status
func Main() {
	// let's explicitly set stdout
	log.SetOutput(os.Stdout)
	// this formatter is the default, but the timestamps output aren't
	// particularly useful, they're relative to the command start
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if err := Run(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode propagates the exit status of the failing external command when
// there is one, and returns 1 otherwise
func exitCode(err error) int {
	var runErr *exec.RunError
	if stderrors.As(err, &runErr) {
		var exitErr *osexec.ExitError
		if stderrors.As(runErr.Inner, &exitErr) && exitErr.ExitCode() > 0 {
			return exitErr.ExitCode()
		}
	}
	return 1
}
