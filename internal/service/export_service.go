package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/models"
	"github.com/fieldops/fieldops-api/internal/repository"
	appErrors "github.com/fieldops/fieldops-api/pkg/errors"
	"github.com/fieldops/fieldops-api/pkg/export"
)

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type exportSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string) (exportID, relPath string, expiresAt time.Time, err error)
}

// ExportService renders intervention reports as PDF files served behind
// signed download tokens, and intervention lists as CSV.
type ExportService struct {
	interventions interventionStore
	pdf           *export.PDFExporter
	csv           *export.CSVExporter
	storage       exportStorage
	signer        exportSigner
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewExportService constructs the service; metrics may be nil.
func NewExportService(interventions interventionStore, storage exportStorage, signer exportSigner, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		interventions: interventions,
		pdf:           export.NewPDFExporter(),
		csv:           export.NewCSVExporter(),
		storage:       storage,
		signer:        signer,
		metrics:       metrics,
		logger:        logger,
	}
}

// ReportExport is the handle returned for a generated report.
type ReportExport struct {
	ExportID  string    `json:"exportId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GenerateInterventionReport renders the intervention header and its audit
// trail into a stored PDF and returns a signed download token.
func (s *ExportService) GenerateInterventionReport(ctx context.Context, interventionID string) (*ReportExport, error) {
	itv, err := s.interventions.GetByID(ctx, interventionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervention")
	}
	logs, err := s.interventions.ListLogs(ctx, interventionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervention logs")
	}

	doc := export.ReportDocument{
		Title: fmt.Sprintf("Rapport d'intervention - %s", itv.Title),
		Fields: []export.Field{
			{Label: "Intervention", Value: itv.ID},
			{Label: "Dossier", Value: itv.CaseID},
			{Label: "Type", Value: string(itv.Type)},
			{Label: "Priorité", Value: string(itv.Priority)},
			{Label: "Statut", Value: string(itv.Status)},
			{Label: "Technicien", Value: stringOrDash(itv.TechnicianID)},
			{Label: "Début réel", Value: timeOrDash(itv.ActualStart)},
			{Label: "Fin réelle", Value: timeOrDash(itv.ActualEnd)},
		},
		Table: export.Dataset{
			Headers: []string{"Date", "De", "Vers", "Par", "Note"},
			Rows:    logRows(logs),
		},
	}
	payload, err := s.pdf.RenderReport(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("intervention-%s-%s.pdf", itv.ID, exportID)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report token")
	}
	if s.metrics != nil {
		s.metrics.RecordExport("pdf")
	}
	s.logger.Info("intervention report generated",
		zap.String("intervention_id", interventionID),
		zap.String("export_id", exportID))
	return &ReportExport{ExportID: exportID, Token: token, ExpiresAt: expiresAt}, nil
}

// OpenExport validates a download token and opens the stored file.
func (s *ExportService) OpenExport(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return file, nil
}

// InterventionsCSV renders the filtered intervention list as CSV.
func (s *ExportService) InterventionsCSV(ctx context.Context, filter repository.InterventionFilter) ([]byte, error) {
	interventions, err := s.interventions.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interventions")
	}

	headers := []string{"id", "caseId", "title", "type", "priority", "status", "technicianId", "scheduledStart", "actualStart", "actualEnd"}
	rows := make([]map[string]string, 0, len(interventions))
	for _, itv := range interventions {
		rows = append(rows, map[string]string{
			"id":             itv.ID,
			"caseId":         itv.CaseID,
			"title":          itv.Title,
			"type":           string(itv.Type),
			"priority":       string(itv.Priority),
			"status":         string(itv.Status),
			"technicianId":   stringOrDash(itv.TechnicianID),
			"scheduledStart": timeOrDash(itv.ScheduledStart),
			"actualStart":    timeOrDash(itv.ActualStart),
			"actualEnd":      timeOrDash(itv.ActualEnd),
		})
	}
	payload, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	if s.metrics != nil {
		s.metrics.RecordExport("csv")
	}
	return payload, nil
}

func logRows(logs []models.InterventionLog) []map[string]string {
	rows := make([]map[string]string, 0, len(logs))
	for _, log := range logs {
		from := ""
		if log.StatusFrom != nil {
			from = string(*log.StatusFrom)
		}
		rows = append(rows, map[string]string{
			"Date": log.CreatedAt.Format("02/01/2006 15:04"),
			"De":   from,
			"Vers": string(log.StatusTo),
			"Par":  log.CreatedByID,
			"Note": stringOrDash(log.Note),
		})
	}
	return rows
}

func stringOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func timeOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02/01/2006 15:04")
}
