package model

import "time"

const (
	RoleCustomer   = "customer"
	RoleSeamstress = "seamstress"
)

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	DisplayName  string     `json:"display_name"`
	Bio          string     `json:"bio,omitempty"`
	Specialty    string     `json:"specialty,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SeamstressProfile is the public directory view of a seamstress.
type SeamstressProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
	Specialty   string `json:"specialty,omitempty"`
}
