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
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Journal is the scratch area owned exclusively by one provisioning run: a
// uniquely named temporary directory holding the log file where the output of
// every command is accumulated.
//
// The journal must be acquired before the first action runs and released with
// Close on every exit path, successful or not; after Close the directory does
// not exist anymore.
type Journal struct {
	dir  string
	file *os.File
}

// NewJournal creates the scratch directory and the log file inside it
func NewJournal() (*Journal, error) {
	dir := filepath.Join(os.TempDir(), "install-kubernetes-"+uuid.New().String())
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create the scratch directory")
	}

	file, err := os.Create(filepath.Join(dir, "install-kubernetes.log"))
	if err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrap(err, "failed to create the run log")
	}

	return &Journal{dir: dir, file: file}, nil
}

// Dir returns the scratch directory path
func (j *Journal) Dir() string {
	return j.dir
}

// Writer returns the writer accumulating the run log
func (j *Journal) Writer() io.Writer {
	return j.file
}

// Dump copies the accumulated run log to the given writer; it is used to
// surface the captured output on stderr when a provisioning action fails
func (j *Journal) Dump(w io.Writer) error {
	f, err := os.Open(j.file.Name())
	if err != nil {
		return errors.Wrap(err, "failed to open the run log")
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrap(err, "failed to dump the run log")
	}
	return nil
}

// Close releases the journal, removing the scratch directory and everything
// in it. It is safe to call Close more than once.
func (j *Journal) Close() error {
	if j.file != nil {
		j.file.Close()
		j.file = nil
	}
	if j.dir != "" {
		dir := j.dir
		j.dir = ""
		return os.RemoveAll(dir)
	}
	return nil
}
