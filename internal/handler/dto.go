package handler

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Request bodies.  Names are trimmed before validation; passwords and
// security answers are taken verbatim.

const maxField = 255

type registerReq struct {
	UserName       string `json:"userName"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Password       string `json:"password"`
	SecurityAnswer string `json:"securityQuestionAnswer"`
}

func (r *registerReq) normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r registerReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required, validation.Length(1, maxField)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, maxField)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, maxField)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 1024)),
		validation.Field(&r.SecurityAnswer, validation.Required, validation.Length(1, 1024)),
	)
}

type updateMeReq struct {
	ID             string `json:"id"`
	UserName       string `json:"userName"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Password       string `json:"password"`
	SecurityAnswer string `json:"securityQuestionAnswer"`
}

func (r *updateMeReq) normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.UserName = strings.TrimSpace(r.UserName)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r updateMeReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.UserName, validation.Required, validation.Length(1, maxField)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, maxField)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, maxField)),
		validation.Field(&r.Password, validation.Length(0, 1024)),
		validation.Field(&r.SecurityAnswer, validation.Length(0, 1024)),
	)
}

type adminUpdateReq struct {
	UserName       string `json:"userName"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Password       string `json:"password"`
	SecurityAnswer string `json:"securityQuestionAnswer"`
	IsActive       *bool  `json:"isActive"`
	IsAdmin        *bool  `json:"isAdmin"`
}

func (r *adminUpdateReq) normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r adminUpdateReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required, validation.Length(1, maxField)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, maxField)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, maxField)),
		validation.Field(&r.Password, validation.Length(0, 1024)),
		validation.Field(&r.SecurityAnswer, validation.Length(0, 1024)),
	)
}

type forgotPasswordReq struct {
	UserName       string `json:"userName"`
	SecurityAnswer string `json:"securityQuestionAnswer"`
	NewPassword    string `json:"newPassword"`
}

func (r *forgotPasswordReq) normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
}

func (r forgotPasswordReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required),
		validation.Field(&r.SecurityAnswer, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(1, 1024)),
	)
}

// loginReq accepts the OAuth2 password form or the same fields as JSON.
type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (r *loginReq) normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r loginReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}
