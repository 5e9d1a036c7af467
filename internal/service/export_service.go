package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/pkg/export"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
)

type exportLedgerReader interface {
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
}

type exportProfessionalReader interface {
	FindByID(ctx context.Context, id string) (*models.Professional, error)
}

type exportStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders appointment reports as CSV or a printable PDF agenda.
type ExportService struct {
	ledger        exportLedgerReader
	professionals exportProfessionalReader
	students      exportStudentReader
	csv           csvRenderer
	pdf           pdfRenderer
	logger        *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(ledger exportLedgerReader, professionals exportProfessionalReader, students exportStudentReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{ledger: ledger, professionals: professionals, students: students, csv: csv, pdf: pdf, logger: logger}
}

// AppointmentsCSV renders the filtered appointment ledger as CSV bytes.
func (s *ExportService) AppointmentsCSV(ctx context.Context, filter models.AppointmentFilter) ([]byte, error) {
	dataset, err := s.buildDataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

// AgendaPDF renders one professional's agenda for a UTC day as PDF bytes.
func (s *ExportService) AgendaPDF(ctx context.Context, professionalID string, dayStart, dayEnd time.Time) ([]byte, error) {
	professional, err := s.professionals.FindByID(ctx, professionalID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "professional not found")
	}
	filter := models.AppointmentFilter{
		ProfessionalID: professionalID,
		From:           &dayStart,
		To:             &dayEnd,
		PageSize:       200,
		SortBy:         "starts_at",
		SortOrder:      "asc",
	}
	dataset, err := s.buildDataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Agenda %s %s", professional.FullName, dayStart.Format("2006-01-02"))
	payload, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

func (s *ExportService) buildDataset(ctx context.Context, filter models.AppointmentFilter) (export.Dataset, error) {
	appointments, _, err := s.ledger.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}

	studentNames := make(map[string]string)
	rows := make([]map[string]string, 0, len(appointments))
	for _, a := range appointments {
		name, ok := studentNames[a.StudentID]
		if !ok {
			if student, err := s.students.FindByID(ctx, a.StudentID); err == nil {
				name = student.FullName
			}
			studentNames[a.StudentID] = name
		}
		location := ""
		if a.Location != nil {
			location = *a.Location
		}
		rows = append(rows, map[string]string{
			"starts_at": a.StartsAt.Format(time.RFC3339),
			"ends_at":   a.EndsAt.Format(time.RFC3339),
			"service":   a.Service,
			"student":   name,
			"status":    string(a.Status),
			"location":  location,
		})
	}

	return export.Dataset{
		Headers: []string{"starts_at", "ends_at", "service", "student", "status", "location"},
		Rows:    rows,
	}, nil
}
