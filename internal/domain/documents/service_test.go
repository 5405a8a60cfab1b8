package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"hrkyc/internal/platform/storage"
)

type fakeStore struct {
	docs        []*Document
	upsertCalls int
}

func (f *fakeStore) find(docID string) *Document {
	for _, doc := range f.docs {
		if doc.ID == docID {
			return doc
		}
	}
	return nil
}

func (f *fakeStore) Get(ctx context.Context, docID string) (*Document, error) {
	if doc := f.find(docID); doc != nil {
		copied := *doc
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (f *fakeStore) GetByEmployeeAndType(ctx context.Context, empID, docType string) (*Document, error) {
	for _, doc := range f.docs {
		if doc.EmpID == empID && doc.Type == docType {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ListByEmployee(ctx context.Context, empID string) ([]Document, error) {
	var out []Document
	for _, doc := range f.docs {
		if doc.EmpID == empID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeStore) Upsert(ctx context.Context, empID, docType, storageKey, fileURL string) (*Document, error) {
	f.upsertCalls++
	for _, doc := range f.docs {
		if doc.EmpID == empID && doc.Type == docType {
			doc.StorageKey = storageKey
			doc.FileURL = fileURL
			doc.Status = StatusPending
			doc.RejectReason = ""
			doc.UploadedAt = time.Now()
			doc.ReviewedAt = nil
			copied := *doc
			return &copied, nil
		}
	}
	doc := &Document{
		ID:         fmt.Sprintf("doc-%d", len(f.docs)+1),
		EmpID:      empID,
		Type:       docType,
		StorageKey: storageKey,
		FileURL:    fileURL,
		Status:     StatusPending,
		UploadedAt: time.Now(),
	}
	f.docs = append(f.docs, doc)
	copied := *doc
	return &copied, nil
}

func (f *fakeStore) Approve(ctx context.Context, docID string) (*Document, error) {
	doc := f.find(docID)
	if doc == nil {
		return nil, ErrNotFound
	}
	if doc.Status != StatusPending {
		return nil, ErrInvalidState
	}
	now := time.Now()
	doc.Status = StatusApproved
	doc.RejectReason = ""
	doc.ReviewedAt = &now
	copied := *doc
	return &copied, nil
}

func (f *fakeStore) Reject(ctx context.Context, docID, reason string) (*Document, error) {
	doc := f.find(docID)
	if doc == nil {
		return nil, ErrNotFound
	}
	if doc.Status != StatusPending {
		return nil, ErrInvalidState
	}
	now := time.Now()
	doc.Status = StatusRejected
	doc.RejectReason = reason
	doc.ReviewedAt = &now
	copied := *doc
	return &copied, nil
}

func (f *fakeStore) EmployeeForDocument(ctx context.Context, docID string) (string, string, error) {
	if f.find(docID) == nil {
		return "", "", ErrNotFound
	}
	return "Asha Verma", "asha@example.com", nil
}

type fakeMailer struct {
	sent []string
	fail bool
}

func (f *fakeMailer) Send(ctx context.Context, from, to, subject, body string) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, to+": "+subject)
	return nil
}

func newTestService(store *fakeStore, objects storage.ObjectStore, mailer Mailer) *Service {
	return NewService(store, objects, mailer, "hr@example.com")
}

func TestListReturnsOneEntryPerCatalogType(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, storage.NewMemoryStore(), nil)

	if _, err := store.Upsert(context.Background(), "EMP001", TypePAN, "EMP001/pan.pdf", "url"); err != nil {
		t.Fatal(err)
	}

	entries, err := svc.List(context.Background(), "EMP001")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(entries) != len(Catalog) {
		t.Fatalf("expected %d entries, got %d", len(Catalog), len(entries))
	}
	for i, entry := range entries {
		if entry.Type != Catalog[i] {
			t.Fatalf("entry %d out of catalog order: got %s want %s", i, entry.Type, Catalog[i])
		}
		switch entry.Type {
		case TypePAN:
			if !entry.Uploaded || entry.Document == nil || entry.Document.Status != StatusPending {
				t.Fatalf("expected uploaded pending pan entry, got %+v", entry)
			}
		default:
			if entry.Uploaded || entry.Document != nil {
				t.Fatalf("expected not-uploaded placeholder for %s, got %+v", entry.Type, entry)
			}
		}
	}
}

func TestUploadStoresBlobThenUpsertsPending(t *testing.T) {
	store := &fakeStore{}
	objects := storage.NewMemoryStore()
	svc := newTestService(store, objects, nil)

	doc, err := svc.Upload(context.Background(), "HR/2024/001", TypeAadhar, "scan.pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if doc.Status != StatusPending {
		t.Fatalf("expected pending after upload, got %s", doc.Status)
	}
	if doc.StorageKey != "HR2024001/aadhar.pdf" {
		t.Fatalf("unexpected storage key %q", doc.StorageKey)
	}
	if _, ok := objects.Object("HR2024001/aadhar.pdf"); !ok {
		t.Fatalf("blob not stored, have %v", objects.Keys())
	}
	if doc.FileURL == "" {
		t.Fatal("expected a retrievable URL")
	}
}

func TestUploadUnknownTypeRejected(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, storage.NewMemoryStore(), nil)

	_, err := svc.Upload(context.Background(), "EMP001", "passport", "p.pdf", strings.NewReader("x"))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if store.upsertCalls != 0 {
		t.Fatal("unknown type must not reach the store")
	}
}

func TestUploadStorageFailureWritesNoMetadata(t *testing.T) {
	store := &fakeStore{}
	objects := storage.NewMemoryStore()
	objects.FailPuts = true
	svc := newTestService(store, objects, nil)

	_, err := svc.Upload(context.Background(), "EMP001", TypeAadhar, "scan.pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected storage error")
	}
	// no row may point at a blob that was never stored
	if store.upsertCalls != 0 {
		t.Fatalf("expected zero upserts after storage failure, got %d", store.upsertCalls)
	}
}

func TestReuploadResetsStatusToPending(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, storage.NewMemoryStore(), nil)

	doc, err := svc.Upload(context.Background(), "EMP001", TypePAN, "pan.pdf", strings.NewReader("v1"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Approve(context.Background(), doc.ID); err != nil {
		t.Fatal(err)
	}

	again, err := svc.Upload(context.Background(), "EMP001", TypePAN, "pan.pdf", strings.NewReader("v2"))
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != doc.ID {
		t.Fatalf("re-upload must upsert the same row, got %s and %s", doc.ID, again.ID)
	}
	if again.Status != StatusPending || again.RejectReason != "" || again.ReviewedAt != nil {
		t.Fatalf("re-upload must reset review state, got %+v", again)
	}
}

func TestApprovePendingDocument(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	svc := newTestService(store, storage.NewMemoryStore(), mailer)

	doc, _ := store.Upsert(context.Background(), "EMP001", TypeAadhar, "k", "u")

	approved, err := svc.Approve(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one notification, got %v", mailer.sent)
	}
}

func TestApproveIsNotRepeatable(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, storage.NewMemoryStore(), nil)

	doc, _ := store.Upsert(context.Background(), "EMP001", TypeAadhar, "k", "u")
	if _, err := svc.Approve(context.Background(), doc.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Approve(context.Background(), doc.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second approve, got %v", err)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, storage.NewMemoryStore(), nil)

	doc, _ := store.Upsert(context.Background(), "EMP001", TypeAadhar, "k", "u")

	if _, err := svc.Reject(context.Background(), doc.ID, "   "); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	if got, _ := store.Get(context.Background(), doc.ID); got.Status != StatusPending {
		t.Fatalf("document must stay pending, got %s", got.Status)
	}
}

func TestRejectPersistsReasonVerbatim(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, storage.NewMemoryStore(), nil)

	doc, _ := store.Upsert(context.Background(), "EMP001", TypeAadhar, "k", "u")

	reason := "Photo is blurred; please re-scan at 300dpi. "
	rejected, err := svc.Reject(context.Background(), doc.ID, reason)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if rejected.RejectReason != reason {
		t.Fatalf("reason not persisted verbatim: %q", rejected.RejectReason)
	}
}

func TestMailFailureDoesNotFailTransition(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, storage.NewMemoryStore(), &fakeMailer{fail: true})

	doc, _ := store.Upsert(context.Background(), "EMP001", TypeAadhar, "k", "u")

	approved, err := svc.Approve(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("approve must not fail on mail error: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
}

func TestStorageKey(t *testing.T) {
	cases := []struct {
		empID, docType, filename, want string
	}{
		{"EMP001", TypeAadhar, "scan.pdf", "EMP001/aadhar.pdf"},
		{"HR/2024/001", TypePAN, "pan.jpeg", "HR2024001/pan.jpeg"},
		{"EMP001", TypeBankPassbook, "noext", "EMP001/bank_passbook"},
		{"../EMP001", TypeAadhar, "a.png", "EMP001/aadhar.png"},
	}
	for _, tc := range cases {
		if got := StorageKey(tc.empID, tc.docType, tc.filename); got != tc.want {
			t.Errorf("StorageKey(%q, %q, %q) = %q, want %q", tc.empID, tc.docType, tc.filename, got, tc.want)
		}
	}
}
