package score

import (
	"fmt"
	"os"

	"github.com/gruntwork-io/go-commons/errors"
	"gopkg.in/yaml.v3"

	"github.com/joeberkovitz/gmnx-viewer/logger"
)

// Load reads and validates a score document from a YAML file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("score %s: %w", path, err)
	}
	logger.GetProjectLogger().WithField("path", path).Debug("score loaded")
	return doc, nil
}

// Parse decodes and validates a YAML score document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WithStackTrace(err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
