package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Media struct {
	URL       string `json:"url"`
	ObjectKey string `json:"objectKey"`
}

type OTP struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (o *OTP) Expired(now time.Time) bool {
	return o == nil || !now.Before(o.ExpiresAt)
}

// Account holds credentials as hashes only: PasswordHash is bcrypt and
// PasswordResetDigest is the SHA-256 of the outstanding reset token.
type Account struct {
	ID                  string
	FirstName           string
	LastName            string
	Email               string
	Mobile              string
	PasswordHash        []byte
	Role                Role
	IsBlocked           bool
	IsVerified          bool
	Avatar              *Media
	OTP                 *OTP
	RefreshToken        string
	PasswordResetDigest string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Profile is the part of an account its owner can edit.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	Mobile    string
}

func (a Account) Profile() Profile {
	return Profile{FirstName: a.FirstName, LastName: a.LastName, Email: a.Email, Mobile: a.Mobile}
}

func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type AccountInfo struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Mobile     string    `json:"mobile"`
	Role       Role      `json:"role"`
	IsBlocked  bool      `json:"isBlocked"`
	IsVerified bool      `json:"isVerified"`
	Avatar     *Media    `json:"avatar"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (a Account) Info() AccountInfo {
	return AccountInfo{
		ID:         a.ID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		Mobile:     a.Mobile,
		Role:       a.Role,
		IsBlocked:  a.IsBlocked,
		IsVerified: a.IsVerified,
		Avatar:     a.Avatar,
		CreatedAt:  a.CreatedAt,
	}
}

type Address struct {
	ID              string `json:"id"`
	AccountID       string `json:"-"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	PrimaryMobile   string `json:"primaryMobile"`
	SecondaryMobile string `json:"secondaryMobile,omitempty"`
	Address         string `json:"address"`
	MoreInfo        string `json:"moreInfo,omitempty"`
	Region          string `json:"region"`
	City            string `json:"city"`
	IsDefault       bool   `json:"isDefault"`
}
