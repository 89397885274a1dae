package domain

import "time"

// Identity is the authenticated principal established for a request.
type Identity struct {
	Subject string
	Role    Role
	ClubID  *string
}

// Token represents an issued signed token and its claims.
type Token struct {
	Value     string
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
