package utils

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("{dataset}_{uuid}", map[string]string{"dataset": "nichols", "uuid": "run-1"}, ".txt")
	assert.Equal(t, "nichols_run-1.txt", name)

	name = GenerateOutputFileName("out_{date}.TXT", nil, ".txt")
	assert.Equal(t, "out_"+time.Now().Format("20060102")+".TXT", name)

	name = GenerateOutputFileName("{uuid}", nil, "")
	assert.Len(t, name, 36)
}

func TestWriteSummary(t *testing.T) {
	start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	summary := ProcessingSummary{
		RunID:             "run-1",
		DatasetID:         "nichols",
		StartTime:         start,
		EndTime:           start.Add(2 * time.Second),
		RawRows:           3,
		Languages:         3,
		EnrichedLanguages: 1,
		Values:            5,
		UnresolvedValues:  2,
		Outputs:           []string{"csv: out/cldf"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, summary))

	out := buf.String()
	assert.Contains(t, out, "Run ID:         run-1")
	assert.Contains(t, out, "Duration:       2s")
	assert.Contains(t, out, "Unresolved Values:  2")
	assert.Contains(t, out, "  csv: out/cldf\n")
	assert.True(t, strings.HasSuffix(out, "End of Summary\n"))
}

func TestWriteSummaryLog(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, fm.EnsureDirectories())
	assert.DirExists(t, fm.ReportsDir)

	path, err := fm.WriteSummaryLog(ProcessingSummary{RunID: "run-1", DatasetID: "nichols"})
	require.NoError(t, err)

	assert.Equal(t, fm.ReportsDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "build_summary_nichols_"))
	assert.True(t, strings.HasSuffix(path, "_run-1.txt"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Dataset:        nichols")
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sources.bib")
	dst := filepath.Join(dir, "copy.bib")
	require.NoError(t, os.WriteFile(src, []byte("@book{a}\n"), 0644))

	require.NoError(t, CopyFile(src, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "@book{a}\n", string(got))

	assert.True(t, FileExists(dst))
	assert.False(t, FileExists(filepath.Join(dir, "nope")))
	assert.Error(t, CopyFile(filepath.Join(dir, "nope"), dst))
}

func TestNewUTF8Reader(t *testing.T) {
	got, err := io.ReadAll(NewUTF8Reader(strings.NewReader("\ufeffID;Name")))
	require.NoError(t, err)
	assert.Equal(t, "ID;Name", string(got))

	got, err = io.ReadAll(NewUTF8Reader(strings.NewReader("ID;Name")))
	require.NoError(t, err)
	assert.Equal(t, "ID;Name", string(got))
}

func TestNewRunID(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}
