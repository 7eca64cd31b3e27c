package models

import "time"

// User is an account row. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Password         string    `json:"-"`
	Role             string    `json:"role"`
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// SystemSession is a server-side session row backing a JWT. The token id
// (jti) is the primary key; revocation is checked on every request.
type SystemSession struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Token            string    `json:"token"`
	ExpiresAt        time.Time `json:"expires_at"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
	IsRevoked        bool      `json:"is_revoked"`
	LastActivity     time.Time `json:"last_activity"`
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}
