package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	SubjectID string    `json:"subjectId"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserRepository interface {
	GetByID(id uuid.UUID) (*User, error)
	GetBySubject(subjectID string) (*User, error)
	CreateOrGetBySubject(subjectID, email string, name *string) (*User, error)
	UpdateName(subjectID string, name string) (*User, error)
}
