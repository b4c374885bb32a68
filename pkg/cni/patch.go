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
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
	jsonpatch "gopkg.in/evanphx/json-patch.v4"
	"sigs.k8s.io/yaml"
)

/*
patch.go provides utilities for applying patches to the YAML document stream
of the CNI manifest.

Matching is performed on Kubernetes style v1 TypeMeta fields (kind and
apiVersion) plus the resource name, between the YAML documents and the
patches.
*/

const (
	// netConfConfigMapName is the ConfigMap carrying the flannel network config
	netConfConfigMapName = "kube-flannel-cfg"

	// netConfKey is the ConfigMap data key holding the network config document
	netConfKey = "net-conf.json"
)

// SetPodNetwork rewrites the flannel manifest so that the Network field of
// its net-conf.json matches the given pod subnet. All the other documents of
// the manifest are preserved as is.
func SetPodNetwork(manifest []byte, podSubnet string) ([]byte, error) {
	resources, err := parseResources(string(manifest))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse the CNI manifest")
	}

	patched := false
	for i := range resources {
		r := &resources[i]
		if r.matchInfo.Kind != "ConfigMap" || r.matchInfo.Metadata.Name != netConfConfigMapName {
			continue
		}

		mergePatch, err := netConfMergePatch(r.json, podSubnet)
		if err != nil {
			return nil, err
		}
		if err := r.applyMergePatch(mergePatch); err != nil {
			return nil, errors.Wrapf(err, "failed to patch the %s ConfigMap", netConfConfigMapName)
		}
		patched = true
	}

	if !patched {
		return nil, errors.Errorf("the CNI manifest does not contain the %s ConfigMap", netConfConfigMapName)
	}

	// write out the patched document stream
	builder := &strings.Builder{}
	for i, r := range resources {
		if err := r.encodeTo(builder); err != nil {
			return nil, errors.Wrap(err, "failed to write the patched CNI manifest")
		}
		if i+1 < len(resources) {
			if _, err := builder.WriteString("---\n"); err != nil {
				return nil, errors.Wrap(err, "failed to write document separator")
			}
		}
	}
	return []byte(builder.String()), nil
}

// PodNetwork returns the Network value of the net-conf.json carried by the
// flannel manifest.
func PodNetwork(manifest []byte) (string, error) {
	resources, err := parseResources(string(manifest))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse the CNI manifest")
	}

	for _, r := range resources {
		if r.matchInfo.Kind != "ConfigMap" || r.matchInfo.Metadata.Name != netConfConfigMapName {
			continue
		}
		netConf, err := decodeNetConf(r.json)
		if err != nil {
			return "", err
		}
		network, _ := netConf["Network"].(string)
		return network, nil
	}
	return "", errors.Errorf("the CNI manifest does not contain the %s ConfigMap", netConfConfigMapName)
}

// netConfMergePatch builds a RFC 7386 merge patch replacing the Network field
// of the net-conf.json document embedded in the ConfigMap data.
func netConfMergePatch(configMapJSON []byte, podSubnet string) ([]byte, error) {
	netConf, err := decodeNetConf(configMapJSON)
	if err != nil {
		return nil, err
	}
	netConf["Network"] = podSubnet

	netConfJSON, err := json.Marshal(netConf)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize the patched %s", netConfKey)
	}

	patch, err := json.Marshal(map[string]interface{}{
		"data": map[string]string{
			netConfKey: string(netConfJSON),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize the merge patch")
	}
	return patch, nil
}

// decodeNetConf extracts the net-conf.json document from the ConfigMap data
func decodeNetConf(configMapJSON []byte) (map[string]interface{}, error) {
	var configMap struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(configMapJSON, &configMap); err != nil {
		return nil, errors.Wrapf(err, "failed to parse the %s ConfigMap", netConfConfigMapName)
	}

	raw, ok := configMap.Data[netConfKey]
	if !ok {
		return nil, errors.Errorf("the %s ConfigMap does not carry a %s key", netConfConfigMapName, netConfKey)
	}

	netConf := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &netConf); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", netConfKey)
	}
	return netConf, nil
}

// we match resources on their v1 TypeMeta plus the resource name
type matchInfo struct {
	Kind       string `json:"kind"`
	APIVersion string `json:"apiVersion"`
	Metadata   struct {
		Name string `json:"name"`
	} `json:"metadata"`
}

type resource struct {
	raw       string    // the original raw data
	json      []byte    // the processed data (in JSON form), may be mutated
	matchInfo matchInfo // for matching patches
}

func (r *resource) applyMergePatch(patch []byte) error {
	patched, err := jsonpatch.MergePatch(r.json, patch)
	if err != nil {
		return errors.WithStack(err)
	}
	r.json = patched
	return nil
}

func (r *resource) encodeTo(w io.Writer) error {
	encoded, err := yaml.JSONToYAML(r.json)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := w.Write(encoded); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func parseResources(yamlDocumentStream string) ([]resource, error) {
	resources := []resource{}
	documents, err := splitYAMLDocuments(yamlDocumentStream)
	if err != nil {
		return nil, err
	}
	for _, raw := range documents {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		var m matchInfo
		if err := yaml.Unmarshal([]byte(raw), &m); err != nil {
			return nil, errors.WithStack(err)
		}
		json, err := yaml.YAMLToJSON([]byte(raw))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		resources = append(resources, resource{
			raw:       raw,
			json:      json,
			matchInfo: m,
		})
	}
	return resources, nil
}

func splitYAMLDocuments(yamlDocumentStream string) ([]string, error) {
	documents := []string{}
	scanner := bufio.NewScanner(strings.NewReader(yamlDocumentStream))
	scanner.Buffer(make([]byte, 1024), 1024*1024)
	scanner.Split(splitYAMLDocument)
	for scanner.Scan() {
		documents = append(documents, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error splitting documents")
	}
	return documents, nil
}

const yamlSeparator = "\n---"

// splitYAMLDocument is a bufio.SplitFunc for splitting YAML streams into individual documents.
// this is borrowed from k8s.io/apimachinery/pkg/util/yaml/decoder.go
func splitYAMLDocument(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	sep := len([]byte(yamlSeparator))
	if i := bytes.Index(data, []byte(yamlSeparator)); i >= 0 {
		// We have a potential document terminator
		i += sep
		after := data[i:]
		if len(after) == 0 {
			// we can't read any more characters
			if atEOF {
				return len(data), data[:len(data)-sep], nil
			}
			return 0, nil, nil
		}
		if j := bytes.IndexByte(after, '\n'); j >= 0 {
			return i + j + 1, data[0 : i-sep], nil
		}
		return 0, nil, nil
	}
	// If we're at EOF, we have a final, non-terminated line. Return it.
	if atEOF {
		return len(data), data, nil
	}
	// Request more data.
	return 0, nil, nil
}
