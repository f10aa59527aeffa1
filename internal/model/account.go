package model

import "time"

// Account represents an application account as stored in the
// `accounts` table.  It is the only persistent entity of the service.
// The secret digests never leave the server: handlers render accounts
// through AccountView, which has no field for them.
//
// Fields:
//  ID                 – UUID v4 assigned at creation, never changed.
//  UserName           – unique, case-sensitive login key.
//  FirstName          – given name.
//  LastName           – family name.
//  HashedPassword     – argon2id digest of the password.
//  SecurityAnswerHash – argon2id digest of the security question answer.
//  IsActive           – inactive accounts cannot log in.
//  IsAdmin            – admins may manage every account.
//  DateCreated        – creation timestamp.
//  LastUpdate         – timestamp of the last modification.
//  LastLogin          – timestamp of the last successful login (nil until then).
type Account struct {
	ID                 string     // accounts.id
	UserName           string     // accounts.user_name
	FirstName          string     // accounts.first_name
	LastName           string     // accounts.last_name
	HashedPassword     string     // accounts.hashed_password
	SecurityAnswerHash string     // accounts.security_answer_hash
	IsActive           bool       // accounts.is_active
	IsAdmin            bool       // accounts.is_admin
	DateCreated        time.Time  // accounts.date_created
	LastUpdate         time.Time  // accounts.last_update
	LastLogin          *time.Time // accounts.last_login (nullable)
}

// AccountView is the single password-free shape in which accounts are
// returned to clients.
type AccountView struct {
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsActive  bool   `json:"isActive"`
	IsAdmin   bool   `json:"isAdmin"`
}

// View projects a onto the client-facing shape.
func (a Account) View() AccountView {
	return AccountView{
		ID:        a.ID,
		UserName:  a.UserName,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		IsActive:  a.IsActive,
		IsAdmin:   a.IsAdmin,
	}
}

// Views projects a slice of accounts.  The result is never nil so that an
// empty store renders as [] rather than null.
func Views(accounts []Account) []AccountView {
	out := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.View())
	}
	return out
}

// Token is the login response body.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
