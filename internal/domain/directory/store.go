package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("employee not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
    emp_id,
    COALESCE(user_id::text, ''),
    name, personal_email, official_email, designation,
    date_of_joining, phone, emergency_contact, date_of_birth, address,
    COALESCE(profile_pic_url, ''),
    created_at, updated_at`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.EmpID, &emp.UserID, &emp.Name, &emp.PersonalEmail, &emp.OfficialEmail,
		&emp.Designation, &emp.DateOfJoining, &emp.Phone, &emp.EmergencyContact,
		&emp.DateOfBirth, &emp.Address, &emp.ProfilePicURL, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (s *Store) Get(ctx context.Context, empID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE emp_id = $1
  `, empID)
	return scanEmployee(row)
}

// ByOfficialEmail binds a login identity to its profile. The official_email
// column carries a UNIQUE constraint, so "first row wins" cannot arise.
func (s *Store) ByOfficialEmail(ctx context.Context, email string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE lower(official_email) = lower($1)
  `, email)
	return scanEmployee(row)
}

func (s *Store) List(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    ORDER BY emp_id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, emp Employee) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (emp_id, name, personal_email, official_email, designation,
      date_of_joining, phone, emergency_contact, date_of_birth, address)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `,
		emp.EmpID, emp.Name, emp.PersonalEmail, emp.OfficialEmail, emp.Designation,
		emp.DateOfJoining, emp.Phone, emp.EmergencyContact, emp.DateOfBirth, emp.Address,
	)
	return err
}

// Update is a full-record replace. emp_id and user_id are never touched
// here; the id is immutable and the identity link has its own operations.
func (s *Store) Update(ctx context.Context, empID string, emp Employee) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET name = $1,
        personal_email = $2,
        official_email = $3,
        designation = $4,
        date_of_joining = $5,
        phone = $6,
        emergency_contact = $7,
        date_of_birth = $8,
        address = $9,
        updated_at = now()
    WHERE emp_id = $10
  `,
		emp.Name, emp.PersonalEmail, emp.OfficialEmail, emp.Designation,
		emp.DateOfJoining, emp.Phone, emp.EmergencyContact, emp.DateOfBirth, emp.Address,
		empID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetProfilePic(ctx context.Context, empID, url string) error {
	cmd, err := s.DB.Exec(ctx, "UPDATE employees SET profile_pic_url = $1, updated_at = now() WHERE emp_id = $2", url, empID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) BindUser(ctx context.Context, empID, userID string) error {
	cmd, err := s.DB.Exec(ctx, "UPDATE employees SET user_id = $1, updated_at = now() WHERE emp_id = $2", userID, empID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UnbindUser(ctx context.Context, empID string) error {
	cmd, err := s.DB.Exec(ctx, "UPDATE employees SET user_id = NULL, updated_at = now() WHERE emp_id = $1", empID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
