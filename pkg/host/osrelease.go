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

package host

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/Ribin-Baby/install-kubernetes/pkg/constants"
)

// OSRelease holds the os-release fields relevant for the preflight
// compatibility gate.
type OSRelease struct {
	// ID is the lower case distribution identifier, e.g. "ubuntu"
	ID string
	// VersionID is the distribution release, e.g. "24.04"
	VersionID string
	// PrettyName is the human readable distribution name
	PrettyName string
}

// ReadOSRelease parses an os-release file.
// see https://www.freedesktop.org/software/systemd/man/os-release.html for the format
func ReadOSRelease(path string) (*OSRelease, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	defer f.Close()

	release := &OSRelease{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		value := strings.Trim(parts[1], `"'`)
		switch parts[0] {
		case "ID":
			release.ID = value
		case "VERSION_ID":
			release.VersionID = value
		case "PRETTY_NAME":
			release.PrettyName = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return release, nil
}

// CheckSupported returns an error if the release is not the one supported
// distribution; no provisioning step should run in that case.
func (r *OSRelease) CheckSupported() error {
	if r.ID != constants.SupportedOSID || r.VersionID != constants.SupportedOSVersionID {
		name := r.PrettyName
		if name == "" {
			name = strings.TrimSpace(r.ID + " " + r.VersionID)
		}
		return errors.Errorf(
			"unsupported operating system %q: this tool supports %s %s only",
			name, constants.SupportedOSID, constants.SupportedOSVersionID,
		)
	}
	return nil
}
