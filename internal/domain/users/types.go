package users

import (
	"errors"
	"time"

	"aerokit/internal/domain/accesscontrol"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateEmail    = errors.New("a user with that email already exists")
	QueryTimeoutDuration = time.Second * 5
)

type User struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Password  password           `json:"-"`
	Role      accesscontrol.Role `json:"role"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Principal is the identity view of u that travels in login responses and
// request contexts.
func (u *User) Principal() accesscontrol.Principal {
	return accesscontrol.Principal{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}
