package tabular

import (
	"context"
	"encoding/csv"
	"os"
	"reflect"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llmutils"
	"github.com/effective-security/gaia-agent/pkg/schema"
	"github.com/effective-security/gaia-agent/tools"
)

// CSVToolName is the dispatch key of the CSV analysis tool.
const CSVToolName = "analyze_csv_file"

// CSVRequest is the tool input.
type CSVRequest struct {
	FilePath string `json:"file_path" jsonschema:"description=The local file path to the CSV file to analyze. This file should typically be downloaded first using 'download_file_from_url'."`
}

// CSVResult is the tool output.
type CSVResult struct {
	Summary string `json:"summary"`
}

func (r *CSVResult) String() string {
	return r.Summary
}

// CSVTool summarizes a comma separated file.
type CSVTool struct {
	name        string
	description string
}

var _ tools.Tool[CSVRequest, CSVResult] = (*CSVTool)(nil)

// NewCSV returns the CSV analysis tool.
func NewCSV() *CSVTool {
	return &CSVTool{
		name:        CSVToolName,
		description: "Analyze a CSV file located at the given file path. Returns a summary including row/column count, column names, and basic descriptive statistics.",
	}
}

func (t *CSVTool) Name() string {
	return t.name
}

func (t *CSVTool) Description() string {
	return t.description
}

func (t *CSVTool) Parameters() any {
	return schema.MustParameters(reflect.TypeOf(CSVRequest{}))
}

// Run reads the whole file. The first record is treated as the
// header, the remaining records as data. Records may have varying
// field counts.
func (t *CSVTool) Run(ctx context.Context, req *CSVRequest) (*CSVResult, error) {
	f, err := os.Open(req.FilePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file: %s", req.FilePath)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse CSV file: %s", req.FilePath)
	}

	var header []string
	var data [][]string
	if len(records) > 0 {
		header = records[0]
		data = records[1:]
	}
	return &CSVResult{Summary: summarize("CSV", header, data)}, nil
}

// Call implements tools.ITool.
func (t *CSVTool) Call(ctx context.Context, input string) (string, error) {
	var req CSVRequest
	if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
