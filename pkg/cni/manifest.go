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
Package cni implements utilities for fetching the flannel pod-network add-on
manifest and for keeping its network configuration consistent with the pod
subnet passed to kubeadm init: changing one without the other breaks pod
networking.
*/
package cni

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
)

// ManifestURL returns the upstream manifest location for a flannel release tag
func ManifestURL(version string) string {
	return fmt.Sprintf(constants.CNIManifestFormat, version)
}

// FetchManifest downloads the flannel manifest for the given release tag
func FetchManifest(version string) ([]byte, error) {
	url := ManifestURL(version)

	resp, err := http.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch the CNI manifest from %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("failed to fetch the CNI manifest from %s: %s", url, resp.Status)
	}

	manifest, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read the CNI manifest from %s", url)
	}
	return manifest, nil
}
