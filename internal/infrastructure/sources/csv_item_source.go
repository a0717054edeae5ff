// Package sources provides reservation providers that read from outside the database.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/reservation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Kind selects which item file a CSVItemSource reads
type Kind string

const (
	KindSupplies Kind = "supplies"
	KindOthers   Kind = "others"
)

// itemRow maps one CSV line. Money columns are parsed after unmarshaling so a bad
// value can be reported with its line number.
type itemRow struct {
	Name      string `csv:"name"`
	UnitPrice string `csv:"unit_price"`
	Quantity  int    `csv:"quantity"`
	Total     string `csv:"total"`
}

// CSVItemSource reads supply or other-cost lines from <dir>/<reservation_id>.<kind>.csv.
// A missing or empty file means the reservation has no lines of that kind.
type CSVItemSource struct {
	dir    string
	kind   Kind
	logger *zap.Logger
}

// NewCSVItemSource creates a CSV item source for one kind
func NewCSVItemSource(dir string, kind Kind, logger *zap.Logger) *CSVItemSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVItemSource{dir: dir, kind: kind, logger: logger}
}

// Path returns the file read for a reservation
func (s *CSVItemSource) Path(reservationID uuid.UUID) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%s.csv", reservationID, s.kind))
}

// ItemAllocations implements reservation.ItemSource
func (s *CSVItemSource) ItemAllocations(ctx context.Context, reservationID uuid.UUID) ([]reservation.ItemAllocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(reservationID)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("no item file", zap.String("file", path))
			return []reservation.ItemAllocation{}, nil
		}
		return nil, fmt.Errorf("error opening %s file: %w", s.kind, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warn("Failed to close file", zap.String("file", path), zap.Error(err))
		}
	}()

	items, err := decodeItems(file, path)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("read item file", zap.String("file", path), zap.Int("count", len(items)))
	return items, nil
}

// decodeItems parses an item CSV. name labels errors with the file or object it came from.
func decodeItems(r io.Reader, name string) ([]reservation.ItemAllocation, error) {
	var rows []itemRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []reservation.ItemAllocation{}, nil
		}
		return nil, fmt.Errorf("error parsing %s: %w", name, err)
	}

	items := make([]reservation.ItemAllocation, 0, len(rows))
	for i, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			// line 1 is the header
			return nil, fmt.Errorf("%s line %d: %w", name, i+2, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r itemRow) toDomain() (reservation.ItemAllocation, error) {
	unitPrice, err := parseAmount(r.UnitPrice)
	if err != nil {
		return reservation.ItemAllocation{}, fmt.Errorf("unit_price: %w", err)
	}
	total, err := parseAmount(r.Total)
	if err != nil {
		return reservation.ItemAllocation{}, fmt.Errorf("total: %w", err)
	}
	return reservation.ItemAllocation{
		Name:      strings.TrimSpace(r.Name),
		UnitPrice: unitPrice,
		Quantity:  r.Quantity,
		Total:     total,
	}, nil
}

// parseAmount accepts plain numbers and thousands separators ("12,000")
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
