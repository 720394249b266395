package service

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RowFieldCount 每行固定列数
const RowFieldCount = 8

// 列顺序: level, item_number, item_name, item_category, unit_of_measure, procurement_type, quantity, price_by_unit
const (
	colLevel = iota
	colIdentifier
	colName
	colCategory
	colUnit
	colProcurementType
	colQuantity
	colUnitPrice
)

const (
	MsgFieldCount    = "Each item should have 8 elements."
	MsgFieldRequired = "Field required: "
	MsgInvalidValue  = "Invalid value: "
)

// CSVLine 校验通过的一行BOM数据
type CSVLine struct {
	Depth           int
	Identifier      string
	Name            string
	Category        string
	Unit            string
	ProcurementType string
	Quantity        float64
	Price           float64
}

// rawRow 原始文本行，col 标签即对外的列名
type rawRow struct {
	Level           string `col:"level" validate:"required"`
	Identifier      string `col:"identifier" validate:"required"`
	Name            string `col:"name" validate:"required"`
	Category        string `col:"category"`
	Unit            string `col:"unit" validate:"required"`
	ProcurementType string `col:"procurement_type" validate:"required"`
	Quantity        string `col:"quantity" validate:"required"`
	UnitPrice       string `col:"unit_price"`
}

// numericRow 数值列的取值范围。
// 上限按入库时的舍入计算：数量 Round(3) 后需放得进 decimal(8,3)，单价 Round(2) 后需放得进 decimal(10,2)。
type numericRow struct {
	Level     int     `col:"level" validate:"gte=0"`
	Quantity  float64 `col:"quantity" validate:"gte=0,lt=99999.9995"`
	UnitPrice float64 `col:"unit_price" validate:"gte=0,lt=99999999.995"`
}

var rowValidate = newRowValidator()

func newRowValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("col")
	})
	return v
}

// ValidateRow 校验一行原始数据。
// 所有错误一次性收集；有任何错误时返回 nil 行。
func ValidateRow(fields []string) (*CSVLine, []string) {
	var errs []string

	if len(fields) != RowFieldCount {
		errs = append(errs, MsgFieldCount)
	}

	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	raw := rawRow{
		Level:           field(colLevel),
		Identifier:      field(colIdentifier),
		Name:            field(colName),
		Category:        field(colCategory),
		Unit:            field(colUnit),
		ProcurementType: field(colProcurementType),
		Quantity:        field(colQuantity),
		UnitPrice:       field(colUnitPrice),
	}
	errs = append(errs, fieldErrors(rowValidate.Struct(raw))...)

	var num numericRow
	invalid := map[string]bool{}
	if raw.Level != "" {
		v, err := strconv.Atoi(strings.TrimSpace(raw.Level))
		if err != nil {
			invalid["level"] = true
		}
		num.Level = v
	}
	if raw.Quantity != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw.Quantity), 64)
		if err != nil {
			invalid["quantity"] = true
		}
		num.Quantity = v
	}
	if raw.UnitPrice != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw.UnitPrice), 64)
		if err != nil {
			invalid["unit_price"] = true
		}
		num.UnitPrice = v
	}
	if err := rowValidate.Struct(num); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ves {
				invalid[fe.Field()] = true
			}
		}
	}
	for _, col := range []string{"level", "quantity", "unit_price"} {
		if invalid[col] {
			errs = append(errs, MsgInvalidValue+col)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &CSVLine{
		Depth:           num.Level,
		Identifier:      raw.Identifier,
		Name:            raw.Name,
		Category:        raw.Category,
		Unit:            raw.Unit,
		ProcurementType: raw.ProcurementType,
		Quantity:        num.Quantity,
		Price:           num.UnitPrice,
	}, nil
}

func fieldErrors(err error) []string {
	if err == nil {
		return nil
	}
	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, MsgFieldRequired+fe.Field())
		default:
			msgs = append(msgs, fmt.Sprintf("%s%s", MsgInvalidValue, fe.Field()))
		}
	}
	return msgs
}
