package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/scooter-reservation/internal/model"
)

// UserRepo reads accounts together with their customer or staff profile.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// FindUserByID loads a user and whichever profiles it carries.  Returns
// ErrNotFound when the ID is unknown.
func (r *UserRepo) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	const q = `
SELECT u.id, u.email, u.account_type, u.status,
       c.id, c.institution_id,
       m.id, m.institution_id
FROM users u
LEFT JOIN customers c ON c.user_id = u.id
LEFT JOIN institution_members m ON m.user_id = u.id
WHERE u.id = ?
LIMIT 1`
	var (
		u                    model.User
		accountType, status  string
		custID, custInst     sql.NullString
		memberID, memberInst sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Email, &accountType, &status,
		&custID, &custInst, &memberID, &memberInst,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	u.AccountType = model.AccountType(accountType)
	u.Status = model.UserStatus(status)
	if custID.Valid {
		u.Customer = &model.Customer{ID: custID.String, UserID: u.ID, InstitutionID: custInst.String}
	}
	if memberID.Valid {
		u.InstitutionMember = &model.InstitutionMember{ID: memberID.String, UserID: u.ID, InstitutionID: memberInst.String}
	}
	return &u, nil
}
