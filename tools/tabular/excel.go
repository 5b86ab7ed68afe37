package tabular

import (
	"context"
	"reflect"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llmutils"
	"github.com/effective-security/gaia-agent/pkg/schema"
	"github.com/effective-security/gaia-agent/tools"
	"github.com/xuri/excelize/v2"
)

// ExcelToolName is the dispatch key of the Excel analysis tool.
const ExcelToolName = "analyze_excel_file"

// ExcelRequest is the tool input.
type ExcelRequest struct {
	FilePath string `json:"file_path" jsonschema:"description=The local file path to the Excel file to analyze. This file should typically be downloaded first using 'download_file_from_url'."`
}

// ExcelResult is the tool output.
type ExcelResult struct {
	Summary string `json:"summary"`
}

func (r *ExcelResult) String() string {
	return r.Summary
}

// ExcelTool summarizes the first sheet of an xlsx workbook.
type ExcelTool struct {
	name        string
	description string
}

var _ tools.Tool[ExcelRequest, ExcelResult] = (*ExcelTool)(nil)

// NewExcel returns the Excel analysis tool.
func NewExcel() *ExcelTool {
	return &ExcelTool{
		name:        ExcelToolName,
		description: "Analyze an Excel file (.xlsx) located at the given file path. Returns a summary including row/column count, column names, and basic descriptive statistics.",
	}
}

func (t *ExcelTool) Name() string {
	return t.name
}

func (t *ExcelTool) Description() string {
	return t.description
}

func (t *ExcelTool) Parameters() any {
	return schema.MustParameters(reflect.TypeOf(ExcelRequest{}))
}

// Run reads the first sheet. The first row is treated as the header,
// the remaining rows as data.
func (t *ExcelTool) Run(ctx context.Context, req *ExcelRequest) (*ExcelResult, error) {
	f, err := excelize.OpenFile(req.FilePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open Excel file: %s", req.FilePath)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Newf("no sheets in Excel file: %s", req.FilePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet: %s", sheets[0])
	}

	var header []string
	var data [][]string
	if len(rows) > 0 {
		header = rows[0]
		data = rows[1:]
	}
	return &ExcelResult{Summary: summarize("Excel", header, data)}, nil
}

// Call implements tools.ITool.
func (t *ExcelTool) Call(ctx context.Context, input string) (string, error) {
	var req ExcelRequest
	if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
