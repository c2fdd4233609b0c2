package ledger

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"almoxarife/internal/domain"
)

type HistoryReader interface {
	ProductHistory(ctx context.Context, productID string) (*domain.Product, []domain.Order, error)
}

type History struct {
	Product        domain.Product
	InitialBalance int
	Movements      []domain.Movement
}

type Service struct {
	reader HistoryReader
	logger *zap.Logger
}

func NewService(reader HistoryReader, logger *zap.Logger) *Service {
	return &Service{
		reader: reader,
		logger: logger,
	}
}

// History reconstructs the ledger from a single consistent read of the
// product and its orders.
func (s *Service) History(ctx context.Context, productID string) (*History, error) {
	product, orders, err := s.reader.ProductHistory(ctx, productID)
	if err != nil {
		return nil, err
	}

	purchases, sales := Split(orders)
	movements := Reconstruct(*product, purchases, sales)

	s.logger.Debug("ledger reconstructed", zap.String("productId", productID), zap.Int("movementCount", len(movements)))

	return &History{
		Product:        *product,
		InitialBalance: InitialBalance(*product, movements),
		Movements:      movements,
	}, nil
}

const ledgerSheet = "Movements"

var ledgerHeadings = []string{"Date", "Direction", "Document", "Kind", "Quantity", "Balance"}

// ExportXLSX writes the product's ledger as a spreadsheet to w.
func (s *Service) ExportXLSX(ctx context.Context, productID string, w io.Writer) error {
	h, err := s.History(ctx, productID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("closing workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	title := fmt.Sprintf("%s - %s", h.Product.Code, h.Product.Description)
	if err := f.SetCellValue(ledgerSheet, "A1", title); err != nil {
		return fmt.Errorf("writing title: %w", err)
	}
	if err := f.SetCellValue(ledgerSheet, "A2", "Initial balance"); err != nil {
		return fmt.Errorf("writing initial balance: %w", err)
	}
	if err := f.SetCellValue(ledgerSheet, "F2", h.InitialBalance); err != nil {
		return fmt.Errorf("writing initial balance: %w", err)
	}

	for i, heading := range ledgerHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(ledgerSheet, cell, heading); err != nil {
			return fmt.Errorf("writing heading: %w", err)
		}
	}

	for i, m := range h.Movements {
		row := []interface{}{
			m.Date.Format(time.DateOnly),
			string(m.Direction),
			m.DocumentNumber,
			string(m.DocumentKind),
			m.Quantity,
			m.Balance,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ledgerSheet, cell, &row); err != nil {
			return fmt.Errorf("writing movement row: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
