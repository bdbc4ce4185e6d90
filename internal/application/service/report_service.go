package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
)

// ReportService exports workbook reports over the workflow data
type ReportService interface {
	// MaintenanceCostReport builds an xlsx workbook of maintenance requests
	// and their committed quote costs.
	MaintenanceCostReport(ctx context.Context) ([]byte, error)
}

type reportServiceImpl struct {
	requestRepo port.RequestRepository
	quoteRepo   port.QuoteRepository
	logger      Logger
}

// NewReportService creates a new ReportService
func NewReportService(requestRepo port.RequestRepository, quoteRepo port.QuoteRepository, logger Logger) ReportService {
	return &reportServiceImpl{
		requestRepo: requestRepo,
		quoteRepo:   quoteRepo,
		logger:      logger,
	}
}

const maintenanceCostSheet = "Maintenance Costs"

// MaintenanceCostReport builds the xlsx workbook in memory
func (s *reportServiceImpl) MaintenanceCostReport(ctx context.Context) ([]byte, error) {
	requests, err := s.requestRepo.ListByKind(ctx, entity.KindMaintenance, 1000, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance requests: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(maintenanceCostSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Request ID", "Department", "Status", "Stage", "Requested", "Labor Cost", "Parts Cost", "Total Cost"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(maintenanceCostSheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := 2
	var totalLabor, totalParts, totalCost float64

	for _, req := range requests {
		quote, err := s.quoteRepo.GetByRequestID(ctx, req.ID)
		if err != nil {
			s.logger.Error("Failed to load quote for report", "request_id", req.ID, "error", err)
			continue
		}

		values := []interface{}{
			req.ID,
			req.Department,
			req.Status.String(),
			req.CurrentStage,
			req.RequestDate.Format(time.DateOnly),
		}
		if quote != nil {
			values = append(values, quote.LaborCost, quote.PartsCost, quote.TotalCost)
			totalLabor += quote.LaborCost
			totalParts += quote.PartsCost
			totalCost += quote.TotalCost
		}

		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(maintenanceCostSheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
		row++
	}

	// Totals row
	totalCell, _ := excelize.CoordinatesToCellName(5, row)
	_ = f.SetCellValue(maintenanceCostSheet, totalCell, "Total")
	for i, v := range []float64{totalLabor, totalParts, totalCost} {
		cell, _ := excelize.CoordinatesToCellName(6+i, row)
		_ = f.SetCellValue(maintenanceCostSheet, cell, v)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("Maintenance cost report generated", "requests", len(requests))

	return buf.Bytes(), nil
}
