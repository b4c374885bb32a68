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

package cni

import (
	"strings"
	"testing"
)

// flannelManifest mimics the structure of the upstream kube-flannel.yml:
// a namespace, the net-conf ConfigMap and the DaemonSet.
const flannelManifest = `apiVersion: v1
kind: Namespace
metadata:
  name: kube-flannel
---
kind: ConfigMap
apiVersion: v1
metadata:
  name: kube-flannel-cfg
  namespace: kube-flannel
data:
  cni-conf.json: |
    {
      "name": "cbr0",
      "cniVersion": "0.3.1"
    }
  net-conf.json: |
    {
      "Network": "10.244.0.0/16",
      "Backend": {
        "Type": "vxlan"
      }
    }
---
apiVersion: apps/v1
kind: DaemonSet
metadata:
  name: kube-flannel-ds
  namespace: kube-flannel
spec:
  selector:
    matchLabels:
      app: flannel
`

func TestSetPodNetwork(t *testing.T) {
	patched, err := SetPodNetwork([]byte(flannelManifest), "192.168.128.0/17")
	if err != nil {
		t.Fatalf("failed SetPodNetwork: %v", err)
	}

	network, err := PodNetwork(patched)
	if err != nil {
		t.Fatalf("failed PodNetwork: %v", err)
	}
	if network != "192.168.128.0/17" {
		t.Errorf("expected network %q, got %q", "192.168.128.0/17", network)
	}

	// the other documents of the manifest must survive the patch
	for _, fragment := range []string{
		"kind: Namespace",
		"kind: DaemonSet",
		"cni-conf.json",
	} {
		if !strings.Contains(string(patched), fragment) {
			t.Errorf("the patched manifest lost %q", fragment)
		}
	}

	// the backend config embedded next to the network must survive too
	if !strings.Contains(string(patched), "vxlan") {
		t.Errorf("the patched net-conf.json lost the backend config")
	}
}

func TestSetPodNetworkKeepsDefault(t *testing.T) {
	patched, err := SetPodNetwork([]byte(flannelManifest), "10.244.0.0/16")
	if err != nil {
		t.Fatalf("failed SetPodNetwork: %v", err)
	}

	network, err := PodNetwork(patched)
	if err != nil {
		t.Fatalf("failed PodNetwork: %v", err)
	}
	if network != "10.244.0.0/16" {
		t.Errorf("expected network %q, got %q", "10.244.0.0/16", network)
	}
}

func TestSetPodNetworkMissingConfigMap(t *testing.T) {
	manifest := `apiVersion: v1
kind: Namespace
metadata:
  name: kube-flannel
`
	if _, err := SetPodNetwork([]byte(manifest), "10.244.0.0/16"); err == nil {
		t.Error("expected an error for a manifest without the net-conf ConfigMap")
	}
}

func TestPodNetwork(t *testing.T) {
	network, err := PodNetwork([]byte(flannelManifest))
	if err != nil {
		t.Fatalf("failed PodNetwork: %v", err)
	}
	if network != "10.244.0.0/16" {
		t.Errorf("expected network %q, got %q", "10.244.0.0/16", network)
	}
}
