package grading

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/patelhet04/EssayBot-API/internal/models"
)

func writeResponsesWorkbook(t *testing.T, responses []string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetCellValue(sheet, "A1", "Response"))
	for i, response := range responses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, response))
	}
	path := filepath.Join(t.TempDir(), "responses.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func readJobStatus(t *testing.T, outputDir, jobID string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outputDir, jobID+".status"))
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	return record
}

func TestGradeFile(t *testing.T) {
	inputPath := writeResponsesWorkbook(t, []string{
		"Segmentation then targeting then differentiation then positioning.",
		"A pricing and product discussion.",
	})
	outputDir := t.TempDir()

	retriever := &fakeRetriever{chunks: map[models.Topic][]string{
		models.TopicSegmentation: {"course passage"},
	}}
	orch := NewOrchestrator(retriever, staticGenerator(`{"score": 5, "feedback": "ok"}`))
	orch.sleep = func(time.Duration) { t.Fatal("no retry expected") }

	result, err := GradeFile(context.Background(), orch, inputPath, "job123", outputDir)
	require.NoError(t, err)

	wantOutput := filepath.Join(outputDir, "graded_responses_job123.xlsx")
	assert.Equal(t, wantOutput, result.OutputFile)
	assert.Equal(t, 2, result.RowCount)

	f, err := excelize.OpenFile(wantOutput)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Len(t, rows[0], 10)
	assert.Equal(t, "Total (100)", rows[0][9])
	assert.Equal(t, "20", rows[1][9])
	assert.Equal(t, "20", rows[2][9])
	assert.Equal(t, "ok", rows[1][2])

	status := readJobStatus(t, outputDir, "job123")
	assert.Equal(t, "complete", status["status"])
	assert.Equal(t, float64(100), status["progress"])
	assert.Equal(t, float64(2), status["rowCount"])
	assert.Equal(t, wantOutput, status["outputFile"])
}

func TestGradeFileMissingInput(t *testing.T) {
	outputDir := t.TempDir()
	orch := NewOrchestrator(&fakeRetriever{}, staticGenerator(`{"score": 5, "feedback": "ok"}`))

	_, err := GradeFile(context.Background(), orch, filepath.Join(t.TempDir(), "nope.xlsx"), "job404", outputDir)
	require.Error(t, err)

	status := readJobStatus(t, outputDir, "job404")
	assert.Equal(t, "error", status["status"])
	assert.Contains(t, status["message"], "failed to open workbook")
}

func TestGradeFileNoResponseColumn(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetCellValue(sheet, "A1", "Name"))
	inputPath := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(inputPath))
	require.NoError(t, f.Close())

	outputDir := t.TempDir()
	orch := NewOrchestrator(&fakeRetriever{}, staticGenerator(`{"score": 5, "feedback": "ok"}`))

	_, err := GradeFile(context.Background(), orch, inputPath, "job500", outputDir)
	require.Error(t, err)

	status := readJobStatus(t, outputDir, "job500")
	assert.Equal(t, "error", status["status"])
	assert.Contains(t, status["message"], "no response column found")
}
