package google

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/plannersync/pkg/auth"
	"github.com/harrisonrobin/plannersync/pkg/log"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

// ClientConfig is the configuration of a spreadsheet backed mirror.
type ClientConfig struct {
	SpreadsheetID string
	// Sheet is the tab title holding the mirror.
	Sheet string
	// Interactive allows the browser consent flow when no token is cached.
	Interactive bool
	Logger      log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet id is required")
	}
	if c.Sheet == "" {
		c.Sheet = "Tasks"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// NewClient authenticates against Google and opens the mirror tab.
func NewClient(ctx context.Context, cfg ClientConfig) (*SheetMirror, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := auth.GetSheetsService(ctx, cfg.Interactive, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return NewSheetMirror(ctx, srv, cfg.SpreadsheetID, cfg.Sheet, cfg.Logger)
}

// NewSheetMirror resolves the tab titled sheetName inside the spreadsheet.
func NewSheetMirror(ctx context.Context, srv *sheets.Service, spreadsheetID, sheetName string, logger log.Logger) (*SheetMirror, error) {
	if logger == nil {
		logger = log.Noop
	}

	ss, err := srv.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to retrieve spreadsheet %s: %w", model.ErrMirrorIO, spreadsheetID, err)
	}

	var sheetID int64 = -1
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheetName {
			sheetID = s.Properties.SheetId
			break
		}
	}
	if sheetID < 0 {
		return nil, fmt.Errorf("sheet '%s': %w", sheetName, model.ErrNotFound)
	}

	return &SheetMirror{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		sheetID:       sheetID,
		logger:        logger.WithValues(log.Kv{"svc": "mirror.Sheets", "sheet": sheetName}),
	}, nil
}
