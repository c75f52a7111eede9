package excel

import (
	"bytes"
	"fmt"
	"time"

	"github.com/modaliv/modaliv-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

const productSheet = "Products"

// Service builds Excel workbooks for catalog exports.
type Service struct{}

func NewExcelService() *Service {
	return &Service{}
}

// ExportResult carries a finished workbook and its download filename.
type ExportResult struct {
	Filename string
	Content  *bytes.Buffer
}

var productHeaders = []string{
	"SKU", "Name", "Brand", "Category", "Color", "Size",
	"Price", "Stock", "Active", "Material", "Season", "Sale Ends",
}

// ExportProducts renders a product listing to an xlsx workbook. The rows are
// written in the order given, so callers pass pre-sorted data.
func (s *Service) ExportProducts(products []models.Product) (*ExportResult, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(productSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"D9D9D9"},
			Pattern: 1,
		},
	})

	for col, header := range productHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(productSheet, cell, header)
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(productHeaders), 1)
	f.SetCellStyle(productSheet, "A1", endHeader, headerStyle)

	for i, product := range products {
		row := i + 2
		values := []interface{}{
			product.SKU,
			product.Name,
			product.Brand,
			product.Category,
			product.Color,
			product.Size,
			product.Price,
			product.Stock,
			product.IsActive,
		}
		if product.Details != nil {
			values = append(values, product.Details.Material, product.Details.Season)
			if product.Details.SaleEnds != nil {
				values = append(values, product.Details.SaleEnds.Format("2006-01-02"))
			} else {
				values = append(values, "")
			}
		} else {
			values = append(values, "", "", "")
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(productSheet, cell, value)
		}
	}

	// Wide enough for SKUs and names without manual resizing.
	f.SetColWidth(productSheet, "A", "B", 24)
	f.SetColWidth(productSheet, "C", "L", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return &ExportResult{
		Filename: fmt.Sprintf("products_%d.xlsx", time.Now().Unix()),
		Content:  buf,
	}, nil
}
