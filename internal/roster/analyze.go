package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tealeg/xlsx"
)

// Analysis summarizes a roster file before grading: enough structure
// for a caller to validate the upload and show a preview without
// opening the workbook itself.
type Analysis struct {
	TotalRows    int       `json:"total_rows"`
	Columns      []string  `json:"columns"`
	HasResponse  bool      `json:"has_response"`
	HasStudentID bool      `json:"has_student_id"`
	PreviewData  []Preview `json:"preview_data"`
}

// Preview is one roster row condensed for display.
type Preview struct {
	StudentID string `json:"student_id"`
	WordCount int    `json:"word_count"`
	Excerpt   string `json:"excerpt"`
}

const (
	previewRows    = 5
	excerptRuneLen = 100
)

var studentIDHeaders = []string{"student_id", "id", "student id"}

// Analyze reads a .xlsx or .csv roster and reports its structure. The
// preview covers at most the first five rows and only exists when a
// response column does.
func Analyze(path string) (*Analysis, error) {
	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err = readCSVRows(path)
	} else {
		rows, err = readXLSXRows(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	headers := rows[0]
	data := rows[1:]

	analysis := &Analysis{
		TotalRows:   len(data),
		Columns:     append([]string{}, headers...),
		PreviewData: []Preview{},
	}

	respCol, studentCol := -1, -1
	for i, header := range headers {
		name := strings.ToLower(strings.TrimSpace(header))
		if respCol < 0 && name == "response" {
			respCol = i
		}
		for _, candidate := range studentIDHeaders {
			if name == candidate {
				analysis.HasStudentID = true
				if studentCol < 0 {
					studentCol = i
				}
				break
			}
		}
	}
	analysis.HasResponse = respCol >= 0
	if respCol < 0 {
		return analysis, nil
	}

	for i, row := range data {
		if i >= previewRows {
			break
		}
		studentID := cellAt(row, studentCol)
		if studentID == "" {
			studentID = fmt.Sprintf("Student_%d", i)
		}
		response := cellAt(row, respCol)
		analysis.PreviewData = append(analysis.PreviewData, Preview{
			StudentID: studentID,
			WordCount: len(strings.Fields(response)),
			Excerpt:   excerpt(response),
		})
	}
	return analysis, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %v", err)
	}
	if len(f.Sheets) == 0 {
		return nil, ErrNoSheets
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cell.String())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %v", err)
	}
	return rows, nil
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptRuneLen {
		return s
	}
	return string(runes[:excerptRuneLen]) + "..."
}
