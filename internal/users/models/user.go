package models

import (
	"github.com/google/uuid"
)

// User is a single owned record.
//
// Invariants:
//   - ID is assigned once by the store and never reused.
//   - Owner is stamped from the authenticated principal at creation and is
//     immutable afterwards; it is never taken from a request body.
//   - Birthday lies strictly in the past and satisfies the configured
//     minimum age (checked by validation before any store mutation).
//
// A record is visible and mutable only through owner-filtered lookups, so a
// record owned by someone else is indistinguishable from an absent one.
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Birthday    Date      `json:"birthday"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Address     string    `json:"address,omitempty"`
	Owner       string    `json:"owner"`
}

// Clone returns a copy so store internals never alias caller memory.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// ApplyUpdate overwrites the mutable fields from a replacement payload.
// ID and Owner are deliberately untouched.
func (u *User) ApplyUpdate(req UserRequest) {
	u.Name = req.Name
	u.LastName = req.LastName
	u.Email = req.Email
	u.Birthday = req.Birthday
	u.PhoneNumber = req.PhoneNumber
	u.Address = req.Address
}
