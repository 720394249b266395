package service

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MsgMissingHeader 文件结构错误
const MsgMissingHeader = "File doesn't have header."

// RowError 单行校验错误
type RowError struct {
	RowNumber int      `json:"row_number"`
	Errors    []string `json:"errors"`
}

// ValidationReport 文件校验报告，空报告表示校验通过
type ValidationReport struct {
	FileStructure string
	Rows          []RowError
}

// Empty 是否无任何错误
func (r *ValidationReport) Empty() bool {
	return r == nil || (r.FileStructure == "" && len(r.Rows) == 0)
}

// ErrorCount 错误行数（结构错误计为一条）
func (r *ValidationReport) ErrorCount() int {
	if r == nil {
		return 0
	}
	n := len(r.Rows)
	if r.FileStructure != "" {
		n++
	}
	return n
}

// MarshalJSON 输出为 {"file_structure": ..., "row_<n>": {...}}
func (r *ValidationReport) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Rows)+1)
	if r.FileStructure != "" {
		out["file_structure"] = r.FileStructure
	}
	for _, row := range r.Rows {
		out[fmt.Sprintf("row_%d", row.RowNumber)] = row
	}
	return json.Marshal(out)
}

// UnmarshalJSON MarshalJSON 的逆过程，供缓存和CLI读取
func (r *ValidationReport) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ValidationReport{}
	for key, value := range raw {
		if key == "file_structure" {
			if err := json.Unmarshal(value, &r.FileStructure); err != nil {
				return err
			}
			continue
		}
		var row RowError
		if err := json.Unmarshal(value, &row); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		r.Rows = append(r.Rows, row)
	}
	sort.Slice(r.Rows, func(i, j int) bool { return r.Rows[i].RowNumber < r.Rows[j].RowNumber })
	return nil
}

// ValidateSheet 校验整张表。
// 缺少表头时只报告一条结构错误；否则逐行校验并收集全部错误。
// 报告为空时返回全部校验通过的行。
func ValidateSheet(sheet *Sheet) (*ValidationReport, []CSVLine) {
	report := &ValidationReport{}
	if !sheet.HasHeader {
		report.FileStructure = MsgMissingHeader
		return report, nil
	}

	lines := make([]CSVLine, 0, len(sheet.Rows))
	for idx, row := range sheet.Rows {
		line, errs := ValidateRow(row)
		if line == nil {
			report.Rows = append(report.Rows, RowError{RowNumber: idx, Errors: errs})
			continue
		}
		lines = append(lines, *line)
	}

	if !report.Empty() {
		return report, nil
	}
	return report, lines
}
