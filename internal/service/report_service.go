package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldstack/matflow/internal/lifecycle"
	"github.com/fieldstack/matflow/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ReportService 报表服务
type ReportService struct {
	requests *repository.RequestRepository
}

// NewReportService 创建报表服务
func NewReportService(requests *repository.RequestRepository) *ReportService {
	return &ReportService{requests: requests}
}

var registerHeaders = []string{
	"Code", "Type", "Title", "Ticket", "Zone", "Status", "Requested By",
	"Item", "Qty", "Approved", "Sent", "Return", "Received",
	"MRC No", "Created", "Received At",
}

// ExportRegister 导出申请单登记表，每个物料行一行
func (s *ReportService) ExportRegister(ctx context.Context, params repository.ListParams) (*excelize.File, string, error) {
	params.Page = 0
	params.PageSize = 0
	requests, _, err := s.requests.List(ctx, params)
	if err != nil {
		return nil, "", fmt.Errorf("list requests: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Requests"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range registerHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	row := 2
	for i := range requests {
		req := &requests[i]
		for _, item := range req.Items {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), req.Code())
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), req.RequestType)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), req.Title)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), req.TicketNumber)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), req.Zone)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), req.Status)
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), req.RequestedBy)
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), item.Description)
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), item.Quantity)
			if item.ApprovedQty != nil {
				f.SetCellValue(sheet, fmt.Sprintf("J%d", row), *item.ApprovedQty)
			}
			if item.SentQty != nil {
				f.SetCellValue(sheet, fmt.Sprintf("K%d", row), *item.SentQty)
			}
			if item.ReturnQty != nil {
				f.SetCellValue(sheet, fmt.Sprintf("L%d", row), *item.ReturnQty)
			}
			if item.ReceivedQty != nil {
				f.SetCellValue(sheet, fmt.Sprintf("M%d", row), *item.ReceivedQty)
			}
			f.SetCellValue(sheet, fmt.Sprintf("N%d", row), item.MRCNo)
			f.SetCellValue(sheet, fmt.Sprintf("O%d", row), req.CreatedAt.Format("2006-01-02"))
			if item.ReceivedAt != nil {
				f.SetCellValue(sheet, fmt.Sprintf("P%d", row), item.ReceivedAt.Format("2006-01-02"))
			}
			row++
		}
	}

	// 底部汇总行
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	delivered := 0
	for i := range requests {
		if lifecycle.DeliveryState(requests[i].Items) == lifecycle.DeliveryFull {
			delivered++
		}
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row),
		fmt.Sprintf("%d requests, %d fully delivered", len(requests), delivered))
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("P%d", row), summaryStyle)

	colWidths := []float64{10, 6, 24, 10, 12, 12, 16, 28, 8, 10, 8, 8, 10, 12, 12, 12}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("requests_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}
