// Package yamlutil provides YAML helpers shared by the filter loader.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Documents decodes every document of a multi-document YAML stream, dropping
// documents that hold nothing but whitespace, comments or an explicit null.
// Node line numbers are relative to the whole stream.
func Documents(data []byte) ([]*yaml.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var docs []*yaml.Node

	for i := 1; ; i++ {
		var doc yaml.Node

		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}

		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}

		if !IsEmpty(&doc) {
			docs = append(docs, &doc)
		}
	}
}

// IsEmpty reports whether a decoded document has no content.
func IsEmpty(doc *yaml.Node) bool {
	if doc == nil || doc.Kind == 0 {
		return true
	}

	if doc.Kind != yaml.DocumentNode {
		return false
	}

	if len(doc.Content) == 0 {
		return true
	}

	root := doc.Content[0]

	return root.Kind == yaml.ScalarNode && root.Tag == "!!null"
}
