// Package export 商品表格导出
package export

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/utils"
)

const timeLayout = "2006-01-02 15:04:05"

// Headers 导出表头
var Headers = []string{"ID", "Name", "Description", "Price", "PrimaryImageURL", "CreatedAt", "UpdatedAt"}

// XLSXExporter 导出为 Excel
type XLSXExporter struct {
	SheetName string
}

var _ domain.ProductExporter = (*XLSXExporter)(nil)

// NewXLSXExporter 创建 Excel 导出器
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{SheetName: "Products"}
}

// Export 写出表头与每个商品一行
func (e *XLSXExporter) Export(w io.Writer, products []*domain.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(e.SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range Headers {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetFloatWithFormat(p.Price.InexactFloat64(), "0.00")
		row.AddCell().SetString(utils.DerefString(p.PrimaryImageURL))
		row.AddCell().SetString(p.CreatedAt.Format(timeLayout))
		row.AddCell().SetString(p.UpdatedAt.Format(timeLayout))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// ContentType 响应类型
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension 文件扩展名
func (e *XLSXExporter) FileExtension() string {
	return "xlsx"
}
