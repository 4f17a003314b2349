package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ParseRole normalises a role name; ok is false for unknown roles.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleStaff:
		return RoleStaff, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Degree is the faculty a student belongs to. The zero value means "not set".
type Degree string

const (
	DegreeIT      Degree = "IT"
	DegreeAI      Degree = "AI"
	DegreeDesign  Degree = "Design"
	DegreeGeneral Degree = "General"
)

// ParseDegree accepts degree names case-insensitively. An empty input yields
// the unset degree with ok=true.
func ParseDegree(raw string) (Degree, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", true
	}
	for _, d := range []Degree{DegreeIT, DegreeAI, DegreeDesign, DegreeGeneral} {
		if strings.EqualFold(raw, string(d)) {
			return d, true
		}
	}
	return "", false
}

// User is the persisted account record.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Degree       Degree    `json:"degree,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated identity a chat turn runs as.
type Principal struct {
	ID     int64
	Role   Role
	Degree Degree
}

// Principal projects the user onto the identity used by the chat core.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, Degree: u.Degree}
}
