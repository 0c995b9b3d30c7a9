package glideshift

import (
	"os"
	"path/filepath"
	"testing"

	yaml "github.com/goccy/go-yaml"
	"github.com/stretchr/testify/require"
)

func TestReportMarshal(t *testing.T) {
	src := &Source{Code: "await redis.get('k');", From: ClientIORedis}
	res := &Result{
		TransformedCode:  "await client.get('k');",
		DetectedPatterns: []PatternTag{PatternLua},
		Complexity:       ComplexityAdvanced,
		Warnings:         []string{"check the script"},
	}
	data, err := NewReport(src, res).Marshal()
	require.Nil(t, err)
	out := string(data)
	require.Contains(t, out, "from: ioredis")
	require.Contains(t, out, "complexity: advanced")
	require.Contains(t, out, "lua")
	require.Contains(t, out, "check the script")
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	src := &Source{Code: "await redis.del('a');", From: ClientIORedis}

	m, err := New(nil)
	require.Nil(t, err)
	res, err := m.Migrate(src)
	require.Nil(t, err)

	require.Nil(t, WriteReport(path, src, res))

	bin, err := os.ReadFile(path)
	require.Nil(t, err)

	var report Report
	require.Nil(t, yaml.Unmarshal(bin, &report))
	require.Equal(t, ClientIORedis, report.From)
	require.Equal(t, ComplexitySimple, report.Complexity)
	require.Equal(t, len(src.Code), report.SourceBytes)
}
