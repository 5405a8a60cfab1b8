package documents

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"hrkyc/internal/domain/directory"
	"hrkyc/internal/platform/storage"
)

type StoreAPI interface {
	Get(ctx context.Context, docID string) (*Document, error)
	GetByEmployeeAndType(ctx context.Context, empID, docType string) (*Document, error)
	ListByEmployee(ctx context.Context, empID string) ([]Document, error)
	Upsert(ctx context.Context, empID, docType, storageKey, fileURL string) (*Document, error)
	Approve(ctx context.Context, docID string) (*Document, error)
	Reject(ctx context.Context, docID, reason string) (*Document, error)
	EmployeeForDocument(ctx context.Context, docID string) (name, officialEmail string, err error)
}

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	Store   StoreAPI
	Objects storage.ObjectStore
	Mailer  Mailer
	From    string
}

func NewService(store StoreAPI, objects storage.ObjectStore, mailer Mailer, from string) *Service {
	return &Service{Store: store, Objects: objects, Mailer: mailer, From: from}
}

// List joins the fixed catalog against uploaded rows: exactly one entry per
// catalog type, in catalog order, with a not-uploaded placeholder where no
// row exists.
func (s *Service) List(ctx context.Context, empID string) ([]RegistryEntry, error) {
	uploaded, err := s.Store.ListByEmployee(ctx, empID)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]*Document, len(uploaded))
	for i := range uploaded {
		byType[uploaded[i].Type] = &uploaded[i]
	}

	entries := make([]RegistryEntry, 0, len(Catalog))
	for _, docType := range Catalog {
		entry := RegistryEntry{Type: docType}
		if doc, ok := byType[docType]; ok {
			entry.Uploaded = true
			entry.Document = doc
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Upload stores the blob, then upserts the metadata row to pending. Order
// matters: a storage failure aborts before any metadata is written, so a row
// can never point at a missing blob. The reverse gap (row write failing
// after a successful store) leaves an orphaned blob and is accepted.
func (s *Service) Upload(ctx context.Context, empID, docType, filename string, file io.Reader) (*Document, error) {
	if !IsCatalogType(docType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, docType)
	}

	key := StorageKey(empID, docType, filename)
	url, err := s.Objects.Put(ctx, key, contentTypeFor(filename), file)
	if err != nil {
		return nil, err
	}

	return s.Store.Upsert(ctx, empID, docType, key, url)
}

// StorageKey builds {sanitized_emp_id}/{type}{.ext}. Sanitization of the
// employee id is what keeps a crafted id from traversing storage paths.
func StorageKey(empID, docType, filename string) string {
	key := directory.SanitizeEmpID(empID) + "/" + docType
	if ext := path.Ext(filename); ext != "" {
		key += ext
	}
	return key
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// DownloadURL returns a short-lived presigned link for the stored file.
func (s *Service) DownloadURL(ctx context.Context, empID, docType string, expires time.Duration) (string, error) {
	doc, err := s.Store.GetByEmployeeAndType(ctx, empID, docType)
	if err != nil {
		return "", err
	}
	return s.Objects.PresignGet(ctx, doc.StorageKey, expires)
}

// Approve moves a pending document to approved. Approved and rejected are
// terminal until a fresh upload resets the row to pending.
func (s *Service) Approve(ctx context.Context, docID string) (*Document, error) {
	doc, err := s.Store.Approve(ctx, docID)
	if err != nil {
		return nil, err
	}
	s.notifyReview(ctx, doc)
	return doc, nil
}

// Reject moves a pending document to rejected with a mandatory reason.
func (s *Service) Reject(ctx context.Context, docID, reason string) (*Document, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	doc, err := s.Store.Reject(ctx, docID, reason)
	if err != nil {
		return nil, err
	}
	s.notifyReview(ctx, doc)
	return doc, nil
}

// notifyReview emails the employee about the outcome. Best effort: a mail
// failure never rolls back or fails the transition.
func (s *Service) notifyReview(ctx context.Context, doc *Document) {
	if s.Mailer == nil {
		return
	}
	name, email, err := s.Store.EmployeeForDocument(ctx, doc.ID)
	if err != nil {
		slog.Warn("review notification lookup failed", "docId", doc.ID, "err", err)
		return
	}

	subject := fmt.Sprintf("Document %s: %s", doc.Status, doc.Type)
	body := fmt.Sprintf("Hi %s,\n\nYour %s document was %s.", name, doc.Type, doc.Status)
	if doc.Status == StatusRejected && doc.RejectReason != "" {
		body += "\nReason: " + doc.RejectReason + "\nPlease upload a corrected copy."
	}

	if err := s.Mailer.Send(ctx, s.From, email, subject, body); err != nil {
		slog.Warn("review notification failed", "docId", doc.ID, "to", email, "err", err)
	}
}
