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
	"testing"

	K8sVersion "k8s.io/apimachinery/pkg/util/version"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
)

func TestJoinCommandArgs(t *testing.T) {
	args := strings.Join(joinCommandArgs(), " ")

	if !strings.Contains(args, "--print-join-command") {
		t.Errorf("the join command invocation does not print a join command: %s", args)
	}
	// the token must have no expiry, so it can be copied onto workers at any time
	if !strings.Contains(args, "--ttl 0") {
		t.Errorf("the join command invocation does not disable the token expiry: %s", args)
	}
}

func TestMinorReleaseLine(t *testing.T) {
	cases := []struct {
		TestName    string
		Version     string
		ExpectLine  string
		ExpectError bool
	}{
		{
			TestName:   "the default release line",
			Version:    "",
			ExpectLine: constants.KubernetesVersion,
		},
		{
			TestName:   "a minor version",
			Version:    "1.31",
			ExpectLine: "1.31",
		},
		{
			TestName:   "a patch version maps to its release line",
			Version:    "1.30.4",
			ExpectLine: "1.30",
		},
		{
			TestName:    "a release line older than the package feed",
			Version:     "1.23",
			ExpectError: true,
		},
	}

	for _, c := range cases {
		t.Run(c.TestName, func(t *testing.T) {
			var v *K8sVersion.Version
			if c.Version != "" {
				v = K8sVersion.MustParseGeneric(c.Version)
			}

			line, err := minorReleaseLine(v)
			if (err != nil) != c.ExpectError {
				t.Fatalf("expected error %t, got %v", c.ExpectError, err)
			}
			if err == nil && line != c.ExpectLine {
				t.Errorf("expected release line %s, got %s", c.ExpectLine, line)
			}
		})
	}
}
