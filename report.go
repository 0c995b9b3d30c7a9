package glideshift

import (
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// Report is the migration summary emitted next to the rewritten code. It
// carries everything a reviewer needs without re-running the migration.
type Report struct {
	GeneratedAt      time.Time       `yaml:"generatedAt"`
	From             Client          `yaml:"from"`
	Complexity       ComplexityLevel `yaml:"complexity"`
	DetectedPatterns []PatternTag    `yaml:"detectedPatterns"`
	Warnings         []string        `yaml:"warnings,omitempty"`
	Notes            []string        `yaml:"notes,omitempty"`
	SourceBytes      int             `yaml:"sourceBytes"`
	TransformedBytes int             `yaml:"transformedBytes"`
}

func NewReport(src *Source, res *Result) *Report {
	return &Report{
		GeneratedAt:      time.Now().UTC(),
		From:             src.From,
		Complexity:       res.Complexity,
		DetectedPatterns: res.DetectedPatterns,
		Warnings:         res.Warnings,
		Notes:            res.Notes,
		SourceBytes:      len(src.Code),
		TransformedBytes: len(res.TransformedCode),
	}
}

func (r *Report) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// WriteReport renders the report for one migration and writes it to path.
func WriteReport(path string, src *Source, res *Result) error {
	data, err := NewReport(src, res).Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
