package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/pkg/export"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type complianceOverviewer interface {
	Overview(ctx context.Context, month string) (*dto.ComplianceOverview, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportService renders the compliance overview into downloadable files.
type ExportService struct {
	compliance complianceOverviewer
	renderers  map[string]datasetRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the package defaults.
func NewExportService(compliance complianceOverviewer, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		compliance: compliance,
		renderers:  map[string]datasetRenderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		logger:     logger,
	}
}

// Export renders the month's compliance overview in the requested format.
func (s *ExportService) Export(ctx context.Context, month, format string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	overview, err := s.compliance.Overview(ctx, month)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Render(complianceDataset(overview))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("compliance export rendered", zap.String("month", overview.Month), zap.String("format", format), zap.Int("bytes", len(content)))
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("compliance-%s.%s", overview.Month, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

// complianceDataset lays out one row per gym with an actual/required column per tracked type.
func complianceDataset(overview *dto.ComplianceOverview) export.Dataset {
	typeSet := map[string]struct{}{}
	for _, report := range overview.Reports {
		for eventType := range report.PerType {
			typeSet[eventType] = struct{}{}
		}
	}
	types := make([]string, 0, len(typeSet))
	for eventType := range typeSet {
		types = append(types, eventType)
	}
	sort.Strings(types)

	headers := append([]string{"gym", "compliant"}, types...)
	headers = append(headers, "missing")
	data := export.Dataset{
		Title:   fmt.Sprintf("Compliance %s (as of %s)", overview.Month, overview.AsOf),
		Headers: headers,
		Rows:    make([]map[string]string, 0, len(overview.Reports)),
		Flagged: map[int]bool{},
	}
	for i, report := range overview.Reports {
		row := map[string]string{"gym": report.GymID, "compliant": yesNo(report.Compliant)}
		var missing []string
		for _, eventType := range types {
			tc, ok := report.PerType[eventType]
			if !ok {
				continue
			}
			if tc.Excused {
				row[eventType] = "excused"
				continue
			}
			row[eventType] = strconv.Itoa(tc.Actual) + "/" + strconv.Itoa(tc.Required)
			if tc.Missing > 0 {
				missing = append(missing, fmt.Sprintf("%s x%d", eventType, tc.Missing))
			}
		}
		row["missing"] = strings.Join(missing, "; ")
		if !report.Compliant {
			data.Flagged[i] = true
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
