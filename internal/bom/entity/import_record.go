package entity

import "time"

// ImportRecord BOM文件导入记录
type ImportRecord struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	FileName          string    `json:"file_name" gorm:"size:255;not null"`
	Format            string    `json:"format" gorm:"size:16;not null"`
	RowCount          int       `json:"row_count" gorm:"not null;default:0"`
	RootCount         int       `json:"root_count" gorm:"not null;default:0"`
	NodeCount         int       `json:"node_count" gorm:"not null;default:0"`
	ComponentsCreated int       `json:"components_created" gorm:"not null;default:0"`
	ObjectKey         string    `json:"object_key" gorm:"size:512"`
	CreatedAt         time.Time `json:"created_at"`
}

func (ImportRecord) TableName() string {
	return "bom_imports"
}

// 导入文件格式
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)
