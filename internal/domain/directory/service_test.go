package directory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hrkyc/internal/platform/storage"
)

type fakeStore struct {
	employees   map[string]*Employee
	createCalls int
	picURLs     map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{employees: map[string]*Employee{}, picURLs: map[string]string{}}
}

func (f *fakeStore) Get(ctx context.Context, empID string) (*Employee, error) {
	emp, ok := f.employees[empID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *emp
	return &copied, nil
}

func (f *fakeStore) List(ctx context.Context) ([]Employee, error) {
	var out []Employee
	for _, emp := range f.employees {
		out = append(out, *emp)
	}
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, emp Employee) error {
	f.createCalls++
	f.employees[emp.EmpID] = &emp
	return nil
}

func (f *fakeStore) Update(ctx context.Context, empID string, emp Employee) error {
	existing, ok := f.employees[empID]
	if !ok {
		return ErrNotFound
	}
	emp.EmpID = existing.EmpID
	emp.UserID = existing.UserID
	f.employees[empID] = &emp
	return nil
}

func (f *fakeStore) SetProfilePic(ctx context.Context, empID, url string) error {
	emp, ok := f.employees[empID]
	if !ok {
		return ErrNotFound
	}
	emp.ProfilePicURL = url
	f.picURLs[empID] = url
	return nil
}

func (f *fakeStore) BindUser(ctx context.Context, empID, userID string) error {
	emp, ok := f.employees[empID]
	if !ok {
		return ErrNotFound
	}
	emp.UserID = userID
	return nil
}

func (f *fakeStore) UnbindUser(ctx context.Context, empID string) error {
	emp, ok := f.employees[empID]
	if !ok {
		return ErrNotFound
	}
	emp.UserID = ""
	return nil
}

type recordedUpload struct {
	empID      string
	docType    string
	storageKey string
	fileURL    string
}

type fakeRecorder struct {
	records []recordedUpload
}

func (f *fakeRecorder) RecordUpload(ctx context.Context, empID, docType, storageKey, fileURL string) error {
	f.records = append(f.records, recordedUpload{empID, docType, storageKey, fileURL})
	return nil
}

func validEmployee() Employee {
	joined := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return Employee{
		EmpID:         "HR/2024/001",
		Name:          "Asha Verma",
		OfficialEmail: "asha@example.com",
		Designation:   "Engineer",
		Phone:         "9999999999",
		DateOfJoining: &joined,
	}
}

func TestCreateMissingFieldsPerformsNoWrites(t *testing.T) {
	store := newFakeStore()
	objects := storage.NewMemoryStore()
	svc := NewService(store, objects, &fakeRecorder{})

	_, err := svc.Create(context.Background(), Employee{}, nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Issues) != 6 {
		t.Fatalf("expected one issue per missing field (6), got %d: %+v", len(verr.Issues), verr.Issues)
	}
	if store.createCalls != 0 {
		t.Fatalf("expected zero store writes, got %d", store.createCalls)
	}
	if len(objects.Keys()) != 0 {
		t.Fatalf("expected zero storage writes, got %v", objects.Keys())
	}
}

func TestCreateMissingSingleField(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, storage.NewMemoryStore(), &fakeRecorder{})

	emp := validEmployee()
	emp.Phone = ""
	_, err := svc.Create(context.Background(), emp, nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Issues) != 1 || verr.Issues[0].Field != "phone" {
		t.Fatalf("expected exactly one issue for phone, got %+v", verr.Issues)
	}
	if store.createCalls != 0 {
		t.Fatal("validation failure must not reach the store")
	}
}

func TestCreateProvisionsStorageScaffold(t *testing.T) {
	store := newFakeStore()
	objects := storage.NewMemoryStore()
	svc := NewService(store, objects, &fakeRecorder{})

	created, err := svc.Create(context.Background(), validEmployee(), nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.EmpID != "HR/2024/001" {
		t.Fatalf("unexpected employee: %+v", created)
	}

	for _, key := range []string{
		"employees_info/HR2024001/profile_pic/.keep",
		"employees_info/HR2024001/kyc_documents/.keep",
	} {
		if _, ok := objects.Object(key); !ok {
			t.Errorf("expected scaffold object %s, have %v", key, objects.Keys())
		}
	}
}

func TestCreateWithAvatarRecordsDocumentRow(t *testing.T) {
	store := newFakeStore()
	objects := storage.NewMemoryStore()
	recorder := &fakeRecorder{}
	svc := NewService(store, objects, recorder)

	_, err := svc.Create(context.Background(), validEmployee(), strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	key := "employees_info/HR2024001/profile_pic/profile_picture.jpeg"
	if _, ok := objects.Object(key); !ok {
		t.Fatalf("expected avatar at %s, have %v", key, objects.Keys())
	}
	if url := store.picURLs["HR/2024/001"]; url == "" {
		t.Fatal("expected profile pic url to be set")
	}
	if len(recorder.records) != 1 {
		t.Fatalf("expected one document record, got %+v", recorder.records)
	}
	rec := recorder.records[0]
	if rec.docType != ProfilePictureType {
		t.Fatalf("expected a %s record, got %+v", ProfilePictureType, rec)
	}
	// the recorded storage key must be the object key so presigned
	// downloads resolve, never the public URL
	if rec.storageKey != key {
		t.Fatalf("recorded storage key %q, want %q", rec.storageKey, key)
	}
	if rec.fileURL == rec.storageKey {
		t.Fatal("file url and storage key must be distinct values")
	}
	if _, err := objects.PresignGet(context.Background(), rec.storageKey, time.Minute); err != nil {
		t.Fatalf("recorded key is not presignable: %v", err)
	}
}

func TestCreateStorageFailureKeepsRow(t *testing.T) {
	store := newFakeStore()
	objects := storage.NewMemoryStore()
	objects.FailPuts = true
	svc := NewService(store, objects, &fakeRecorder{})

	_, err := svc.Create(context.Background(), validEmployee(), nil)
	if err == nil {
		t.Fatal("expected scaffold error")
	}
	// the row insert preceded the scaffold and is not rolled back
	if store.createCalls != 1 {
		t.Fatalf("expected the employee row to be created, calls=%d", store.createCalls)
	}
}

func TestFilterEmployees(t *testing.T) {
	employees := []Employee{
		{EmpID: "EMP001", Name: "Asha Verma"},
		{EmpID: "EMP002", Name: "Bilal Khan"},
		{EmpID: "HR/2024/001", Name: "Chitra Rao"},
	}

	cases := []struct {
		search string
		want   int
	}{
		{"", 3},
		{"asha", 1},
		{"EMP", 2},
		{"hr/2024", 1},
		{"nobody", 0},
		{"  VERMA  ", 1},
	}

	for _, tc := range cases {
		got := FilterEmployees(employees, tc.search)
		if len(got) != tc.want {
			t.Errorf("FilterEmployees(%q) returned %d, want %d", tc.search, len(got), tc.want)
		}
	}
}

func TestUpdateUnknownEmployee(t *testing.T) {
	svc := NewService(newFakeStore(), storage.NewMemoryStore(), &fakeRecorder{})

	_, err := svc.Update(context.Background(), "missing", validEmployee())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
