package domain

import "time"

// User is the session record for the authenticated visitor, as returned by
// the login endpoints of the remote API.
type User struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Image       *string    `json:"image"`
	Role        string     `json:"role"`
	DeletedAt   *time.Time `json:"deletedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	AccessToken string     `json:"accessToken,omitempty"`
}

// ImageURL returns the avatar reference or an empty string.
func (u User) ImageURL() string {
	if u.Image == nil {
		return ""
	}
	return *u.Image
}

// UserPatch is a partial user record. Nil fields are left untouched when the
// patch is applied. Decoding a user payload into a UserPatch yields exactly
// the keys the server sent.
type UserPatch struct {
	Name        *string    `json:"name"`
	Email       *string    `json:"email"`
	Image       *string    `json:"image"`
	Role        *string    `json:"role"`
	DeletedAt   *time.Time `json:"deletedAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
	AccessToken *string    `json:"accessToken"`
}

// Apply returns a copy of u with the non-nil fields of p merged in.
func (u User) Apply(p UserPatch) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Image != nil {
		img := *p.Image
		u.Image = &img
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		u.DeletedAt = &t
	}
	if p.UpdatedAt != nil {
		u.UpdatedAt = *p.UpdatedAt
	}
	if p.AccessToken != nil {
		u.AccessToken = *p.AccessToken
	}
	return u
}

// Clone returns a deep copy of the record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Image != nil {
		img := *u.Image
		c.Image = &img
	}
	if u.DeletedAt != nil {
		t := *u.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}
