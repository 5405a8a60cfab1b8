package directory

import (
	"context"
	"fmt"
	"io"
	"strings"

	"hrkyc/internal/platform/storage"
)

// ProfilePictureType is the document type of the avatar row. It lives
// outside the KYC catalog but is tracked with the same document rows so the
// avatar shows up in the registry. The documents package aliases it as
// TypeProfilePicture.
const ProfilePictureType = "profile_picture"

type StoreAPI interface {
	Get(ctx context.Context, empID string) (*Employee, error)
	List(ctx context.Context) ([]Employee, error)
	Create(ctx context.Context, emp Employee) error
	Update(ctx context.Context, empID string, emp Employee) error
	SetProfilePic(ctx context.Context, empID, url string) error
	BindUser(ctx context.Context, empID, userID string) error
	UnbindUser(ctx context.Context, empID string) error
}

// DocumentRecorder records an uploaded file as a document row. Implemented
// by the documents store; declared here so the directory does not depend on
// the documents package. The storage key is the object's real key, not its
// URL; presigned downloads are built from it.
type DocumentRecorder interface {
	RecordUpload(ctx context.Context, empID, docType, storageKey, fileURL string) error
}

type Service struct {
	Store   StoreAPI
	Objects storage.ObjectStore
	Docs    DocumentRecorder
}

func NewService(store StoreAPI, objects storage.ObjectStore, docs DocumentRecorder) *Service {
	return &Service{Store: store, Objects: objects, Docs: docs}
}

// Create validates, inserts the row, provisions the storage scaffold and
// uploads the avatar when supplied. The steps are sequential and not
// transactional: a storage failure after the insert leaves the row in place
// and surfaces the error to the caller.
func (s *Service) Create(ctx context.Context, emp Employee, avatar io.Reader) (*Employee, error) {
	if verr := validateRequired(emp); verr != nil {
		return nil, verr
	}
	if SanitizeEmpID(emp.EmpID) == "" {
		return nil, &ValidationError{Issues: []FieldIssue{{Field: "empId", Reason: "must contain path-safe characters"}}}
	}

	emp.OfficialEmail = strings.ToLower(strings.TrimSpace(emp.OfficialEmail))
	if err := s.Store.Create(ctx, emp); err != nil {
		return nil, err
	}

	if err := s.provisionScaffold(ctx, emp.EmpID); err != nil {
		return &emp, fmt.Errorf("storage scaffold for %s: %w", emp.EmpID, err)
	}

	if avatar != nil {
		if err := s.AttachProfilePicture(ctx, emp.EmpID, avatar); err != nil {
			return &emp, err
		}
	}

	created, err := s.Store.Get(ctx, emp.EmpID)
	if err != nil {
		return &emp, nil
	}
	return created, nil
}

func (s *Service) provisionScaffold(ctx context.Context, empID string) error {
	sid := SanitizeEmpID(empID)
	for _, prefix := range []string{"profile_pic", "kyc_documents"} {
		key := fmt.Sprintf("employees_info/%s/%s/.keep", sid, prefix)
		if _, err := s.Objects.Put(ctx, key, "application/octet-stream", strings.NewReader("")); err != nil {
			return err
		}
	}
	return nil
}

// AttachProfilePicture uploads the cropped avatar, points the profile at it
// and records a profile_picture document row.
func (s *Service) AttachProfilePicture(ctx context.Context, empID string, avatar io.Reader) error {
	key := ProfilePictureKey(empID)
	url, err := s.Objects.Put(ctx, key, "image/jpeg", avatar)
	if err != nil {
		return fmt.Errorf("profile picture upload for %s: %w", empID, err)
	}
	if err := s.Store.SetProfilePic(ctx, empID, url); err != nil {
		return err
	}
	return s.Docs.RecordUpload(ctx, empID, ProfilePictureType, key, url)
}

func ProfilePictureKey(empID string) string {
	return fmt.Sprintf("employees_info/%s/profile_pic/profile_picture.jpeg", SanitizeEmpID(empID))
}

func (s *Service) Get(ctx context.Context, empID string) (*Employee, error) {
	return s.Store.Get(ctx, empID)
}

// Update replaces the full record. The emp_id itself is immutable.
func (s *Service) Update(ctx context.Context, empID string, emp Employee) (*Employee, error) {
	if verr := validateRequired(emp); verr != nil {
		return nil, verr
	}
	emp.OfficialEmail = strings.ToLower(strings.TrimSpace(emp.OfficialEmail))
	if err := s.Store.Update(ctx, empID, emp); err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, empID)
}

// List fetches the whole directory and filters by a case-insensitive
// substring match on name and id. Empty search returns everything.
func (s *Service) List(ctx context.Context, search string) ([]Employee, error) {
	employees, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterEmployees(employees, search), nil
}

func FilterEmployees(employees []Employee, search string) []Employee {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return employees
	}
	filtered := make([]Employee, 0, len(employees))
	for _, emp := range employees {
		if strings.Contains(strings.ToLower(emp.Name), search) ||
			strings.Contains(strings.ToLower(emp.EmpID), search) {
			filtered = append(filtered, emp)
		}
	}
	return filtered
}

func (s *Service) BindUser(ctx context.Context, empID, userID string) error {
	return s.Store.BindUser(ctx, empID, userID)
}

// UnbindUser clears the identity link. Profiles are never hard-deleted;
// revoking login access is the only removal operation.
func (s *Service) UnbindUser(ctx context.Context, empID string) error {
	return s.Store.UnbindUser(ctx, empID)
}
