package codec

import (
	"fmt"
	"io"

	"ontoscope/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML report export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlTriple flattens terms to their N-Triples keys for readability
type yamlTriple struct {
	Subject   string `yaml:"s"`
	Predicate string `yaml:"p"`
	Object    string `yaml:"o"`
}

type yamlReport struct {
	Summary    *domain.Summary        `yaml:"summary"`
	Hierarchy  []domain.HierarchyEdge `yaml:"hierarchy"`
	Properties []domain.Property      `yaml:"properties"`
	Samples    []yamlTriple           `yaml:"sample_triples"`
}

// Export writes the report as YAML
func (c *YAMLCodec) Export(report *domain.Report, w io.Writer) error {
	yr := yamlReport{
		Summary:    report.Summary,
		Hierarchy:  report.Hierarchy,
		Properties: report.Properties,
		Samples:    make([]yamlTriple, 0, len(report.Samples)),
	}
	for _, t := range report.Samples {
		yr.Samples = append(yr.Samples, yamlTriple{
			Subject:   t.Subject.Key(),
			Predicate: t.Predicate.Key(),
			Object:    t.Object.Key(),
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(yr); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
