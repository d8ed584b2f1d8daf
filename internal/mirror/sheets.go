package mirror

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsConfig locates the spreadsheet and the service account key.
type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsPath string
	SheetName       string
}

// SheetsSink appends one row per push to a Google Sheets tab.
type SheetsSink struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	sheetName     string
}

// NewSheetsSink authenticates with the service account key at
// cfg.CredentialsPath and writes the header row.
func NewSheetsSink(ctx context.Context, cfg SheetsConfig, logger *zap.Logger) (*SheetsSink, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("%w: sheets credentials path is empty", ErrNotConfigured)
	}
	return newSheetsSink(ctx, cfg, logger,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
}

func newSheetsSink(ctx context.Context, cfg SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*SheetsSink, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: sheets spreadsheet id is empty", ErrNotConfigured)
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Users"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	s := &SheetsSink{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}

	// A missing header only makes the sheet harder to read; pushes still work.
	if err := s.writeHeader(ctx); err != nil {
		logger.Warn("could not set sheets header row", zap.String("sheet", s.sheetName), zap.Error(err))
	}
	return s, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) writeHeader(ctx context.Context) error {
	header := make([]interface{}, len(Columns))
	for i, col := range Columns {
		header[i] = col
	}

	_, err := s.values.Update(s.spreadsheetID, s.sheetName+"!A1:O1", &sheets.ValueRange{
		Values: [][]interface{}{header},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// Push appends row below the last non-empty row.
func (s *SheetsSink) Push(ctx context.Context, row Row) error {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}

	_, err := s.values.Append(s.spreadsheetID, s.sheetName+"!A:O", &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append sheets row: %w", err)
	}
	return nil
}

func (s *SheetsSink) Close() error { return nil }
