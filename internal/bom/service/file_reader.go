package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wierzcho/ravacan/internal/bom/entity"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Upload 上传的BOM文件
type Upload struct {
	FileName string
	Content  []byte
	// Charset CSV文件编码: utf-8 (默认) 或 gbk
	Charset string
}

// Sheet 解码后的表格
type Sheet struct {
	Format    string
	HasHeader bool
	Header    []string
	Rows      [][]string
}

// ReadUpload 解码CSV/XLSX文件为行数据
func ReadUpload(u *Upload) (*Sheet, error) {
	var (
		records [][]string
		format  string
		err     error
	)

	switch strings.ToLower(filepath.Ext(u.FileName)) {
	case ".xlsx", ".xlsm":
		format = entity.FormatXLSX
		records, err = readXLSX(u.Content)
	default:
		format = entity.FormatCSV
		records, err = readCSV(u.Content, u.Charset)
	}
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Format: format}
	if len(records) > 0 && hasHeader(records[0]) {
		sheet.HasHeader = true
		sheet.Header = records[0]
		records = records[1:]
	}
	if format == entity.FormatXLSX {
		width := RowFieldCount
		if len(sheet.Header) > width {
			width = len(sheet.Header)
		}
		for i := range records {
			records[i] = padRow(records[i], width)
		}
	}
	sheet.Rows = records
	return sheet, nil
}

// hasHeader 第一行的 level 列不是整数时视为表头
func hasHeader(first []string) bool {
	if len(first) == 0 {
		return false
	}
	cell := strings.TrimSpace(first[colLevel])
	if cell == "" {
		return false
	}
	_, err := strconv.Atoi(cell)
	return err != nil
}

func charsetDecoder(charset string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "gbk", "gb2312", "gb18030":
		return simplifiedchinese.GB18030.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCharset, charset)
	}
}

func readCSV(content []byte, charset string) ([][]string, error) {
	decoder, err := charsetDecoder(charset)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(transform.NewReader(bytes.NewReader(content), decoder))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return records, nil
}

func readXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet: %v", ErrInvalidFile, err)
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		records = append(records, row)
	}
	return records, nil
}

// padRow excelize 会截掉行尾空单元格，补齐到表头宽度
func padRow(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
