package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/patelhet04/EssayBot-API/internal/agents"
	"github.com/patelhet04/EssayBot-API/internal/models"
)

var (
	ErrNoSheets         = errors.New("workbook has no sheets")
	ErrNoHeader         = errors.New("workbook has no header row")
	ErrNoResponseColumn = errors.New("no response column found")
	ErrRowOutOfRange    = errors.New("row index out of range")
	ErrFeedbackMismatch = errors.New("feedback count does not match agent count")
)

// Roster is an open grading workbook: one header row, one student
// response per data row. Grading writes two columns per agent plus the
// total back into the same workbook.
type Roster struct {
	file     *excelize.File
	sheet    string
	headers  []string
	colIndex map[string]int
	respCol  int
	data     [][]string
}

// Open loads the workbook and locates the response column by
// case-insensitive header match.
func Open(path string) (*Roster, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %v", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, ErrNoSheets
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read rows: %v", err)
	}
	if len(rows) == 0 {
		f.Close()
		return nil, ErrNoHeader
	}

	r := &Roster{
		file:     f,
		sheet:    sheet,
		headers:  rows[0],
		colIndex: make(map[string]int, len(rows[0])),
		data:     rows[1:],
	}
	for i, header := range rows[0] {
		name := strings.TrimSpace(header)
		if _, exists := r.colIndex[name]; !exists {
			r.colIndex[name] = i + 1
		}
		if r.respCol == 0 && strings.EqualFold(name, "response") {
			r.respCol = i + 1
		}
	}
	if r.respCol == 0 {
		f.Close()
		return nil, fmt.Errorf("%w in %q", ErrNoResponseColumn, path)
	}
	return r, nil
}

func (r *Roster) Close() error { return r.file.Close() }

// RowCount is the number of data rows below the header.
func (r *Roster) RowCount() int { return len(r.data) }

// Response returns the response text of the i-th data row (0-based).
// Rows shorter than the response column read as empty.
func (r *Roster) Response(i int) (string, error) {
	if i < 0 || i >= len(r.data) {
		return "", fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	row := r.data[i]
	if r.respCol-1 >= len(row) {
		return "", nil
	}
	return row[r.respCol-1], nil
}

// WriteResult fills the i-th data row's result cells: a score and a
// comment per agent, then the total. Missing result columns are
// appended to the header row on first use.
func (r *Roster) WriteResult(i int, agentList []agents.Agent, result models.GradingResult) error {
	if i < 0 || i >= len(r.data) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	if len(result.Feedbacks) != len(agentList) {
		return fmt.Errorf("%w: %d feedbacks for %d agents", ErrFeedbackMismatch, len(result.Feedbacks), len(agentList))
	}

	row := i + 2
	for k, agent := range agentList {
		if err := r.setCell(agent.ScoreColumn, row, result.Feedbacks[k].Score); err != nil {
			return err
		}
		if err := r.setCell(agent.CommentColumn, row, result.Feedbacks[k].Feedback); err != nil {
			return err
		}
	}
	return r.setCell(agents.TotalColumn, row, result.Total)
}

// SaveAs writes the workbook to a new file, leaving the input file
// untouched.
func (r *Roster) SaveAs(path string) error {
	if err := r.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %v", err)
	}
	return nil
}

func (r *Roster) setCell(column string, row int, value any) error {
	col, err := r.ensureColumn(column)
	if err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %v", err)
	}
	if err := r.file.SetCellValue(r.sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %v", cell, err)
	}
	return nil
}

func (r *Roster) ensureColumn(name string) (int, error) {
	if col, ok := r.colIndex[name]; ok {
		return col, nil
	}
	col := len(r.headers) + 1
	cell, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to build header cell name: %v", err)
	}
	if err := r.file.SetCellValue(r.sheet, cell, name); err != nil {
		return 0, fmt.Errorf("failed to write header %q: %v", name, err)
	}
	r.headers = append(r.headers, name)
	r.colIndex[name] = col
	return col, nil
}
