package reports

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"hrkyc/internal/domain/directory"
	"hrkyc/internal/domain/documents"
)

type EmployeeSource interface {
	Get(ctx context.Context, empID string) (*directory.Employee, error)
}

type RegistrySource interface {
	List(ctx context.Context, empID string) ([]documents.RegistryEntry, error)
}

type Service struct {
	Employees EmployeeSource
	Registry  RegistrySource
}

func NewService(employees EmployeeSource, registry RegistrySource) *Service {
	return &Service{Employees: employees, Registry: registry}
}

// KYCSummary renders the employee's verification status as a PDF: one line
// per catalog type with its status and any rejection reason.
func (s *Service) KYCSummary(ctx context.Context, empID string) ([]byte, error) {
	emp, err := s.Employees.Get(ctx, empID)
	if err != nil {
		return nil, err
	}
	entries, err := s.Registry.List(ctx, empID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "KYC Verification Summary")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", emp.Name, emp.EmpID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", emp.OfficialEmail))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Designation: %s", emp.Designation))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(80, 8, "Document")
	pdf.Cell(40, 8, "Status")
	pdf.Cell(0, 8, "Note")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)

	for _, entry := range entries {
		status := "not uploaded"
		note := ""
		if entry.Uploaded {
			status = entry.Document.Status
			note = entry.Document.RejectReason
		}
		pdf.Cell(80, 7, displayName(entry.Type))
		pdf.Cell(40, 7, status)
		pdf.Cell(0, 7, note)
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func displayName(docType string) string {
	return strings.ReplaceAll(docType, "_", " ")
}
