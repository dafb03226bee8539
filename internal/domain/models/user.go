package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role gates mutation routes.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an operator account. PasswordHash never leaves the server.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Email        string              `bson:"email" json:"email"`
	PasswordHash string              `bson:"passwordHash" json:"-"`
	Role         Role                `bson:"role" json:"role"`
	Company      *primitive.ObjectID `bson:"company,omitempty" json:"company,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
}
