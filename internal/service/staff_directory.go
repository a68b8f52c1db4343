package service

import (
	"context"
	"errors"
)

// ErrStaffNotFound indicates the external user service knows no such person.
var ErrStaffNotFound = errors.New("staff member not found")

// StaffIdentity is the slice of the external user record the engine needs.
type StaffIdentity struct {
	ID    uint
	Name  string
	Email string
	Role  string
}

// StaffDirectory resolves teacher and sale identities. User management lives
// outside this service; this is the seam it is consumed through.
type StaffDirectory interface {
	ByID(ctx context.Context, id uint) (StaffIdentity, error)
	ByEmail(ctx context.Context, email string) (StaffIdentity, error)
}

type emptyDirectory struct{}

// NewEmptyDirectory returns a directory that resolves nobody, for deployments
// where order payloads always carry complete references.
func NewEmptyDirectory() StaffDirectory {
	return emptyDirectory{}
}

func (emptyDirectory) ByID(context.Context, uint) (StaffIdentity, error) {
	return StaffIdentity{}, ErrStaffNotFound
}

func (emptyDirectory) ByEmail(context.Context, string) (StaffIdentity, error) {
	return StaffIdentity{}, ErrStaffNotFound
}
