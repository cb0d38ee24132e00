package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
	"github.com/noah-isme/sma-roster-api/pkg/export"
)

type rosterSource interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Title string
}

// ExportFile is a rendered roster document.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the roster with the live schema as columns.
type ExportService struct {
	schema    schemaProvider
	students  rosterSource
	renderers map[export.Format]export.Renderer
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the CSV and PDF exporters.
func NewExportService(schema schemaProvider, students rosterSource, cfg ExportConfig, logger *zap.Logger, renderers map[export.Format]export.Renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "Student Roster"
	}
	if renderers == nil {
		renderers = map[export.Format]export.Renderer{
			export.FormatCSV: export.NewCSVExporter(),
			export.FormatPDF: export.NewPDFExporter(),
		}
	}
	return &ExportService{schema: schema, students: students, renderers: renderers, logger: logger, cfg: cfg, now: time.Now}
}

// Dataset builds the roster table: ID then one column per keyed field.
func (s *ExportService) Dataset(ctx context.Context, filter models.StudentFilter) (export.Dataset, error) {
	schema, err := s.schema.Schema(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	students, err := s.students.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, err
	}

	headers := []string{"ID"}
	keys := make([]string, 0, len(schema))
	for _, f := range schema {
		if f.Key == "" {
			continue
		}
		label := f.Label
		if label == "" {
			label = f.Key
		}
		headers = append(headers, label)
		keys = append(keys, f.Key)
	}

	rows := make([][]string, 0, len(students))
	for _, st := range students {
		row := make([]string, 0, len(keys)+1)
		row = append(row, strconv.FormatInt(st.ID, 10))
		for _, k := range keys {
			row = append(row, st.Value(k))
		}
		rows = append(rows, row)
	}
	return export.Dataset{Title: s.cfg.Title, Headers: headers, Rows: rows}, nil
}

// Roster renders the roster in the requested format.
func (s *ExportService) Roster(ctx context.Context, format string, filter models.StudentFilter) (*ExportFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}
	renderer, ok := s.renderers[f]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export format %s is not enabled", f))
	}

	data, err := s.Dataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	s.logger.Info("roster exported", zap.String("format", string(f)), zap.Int("rows", len(data.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("roster-%s.%s", s.now().UTC().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}
