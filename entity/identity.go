package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type IdentityKind string

const (
	IdentityUser    IdentityKind = "user"
	IdentityStudent IdentityKind = "student"
)

var ErrBadIdentity = errors.New("invalid identity reference")

// Identity names exactly one principal: a staff user or a student.
type Identity struct {
	Kind IdentityKind
	ID   uint
}

func UserIdentity(id uint) Identity    { return Identity{Kind: IdentityUser, ID: id} }
func StudentIdentity(id uint) Identity { return Identity{Kind: IdentityStudent, ID: id} }

// Key renders the identity as its wire form, e.g. "user-3" or "student-12".
func (i Identity) Key() string {
	return fmt.Sprintf("%s-%d", i.Kind, i.ID)
}

func (i Identity) IsZero() bool { return i.ID == 0 }

// ParseIdentity parses a prefixed id ("user-<id>" or "student-<id>").
// Literal "null"/"undefined" artifacts from sloppy callers are rejected.
func ParseIdentity(prefixed string) (Identity, error) {
	s := strings.TrimSpace(prefixed)
	if s == "" || s == "null" || s == "undefined" {
		return Identity{}, ErrBadIdentity
	}
	var kind IdentityKind
	switch {
	case strings.HasPrefix(s, "user-"):
		kind = IdentityUser
		s = strings.TrimPrefix(s, "user-")
	case strings.HasPrefix(s, "student-"):
		kind = IdentityStudent
		s = strings.TrimPrefix(s, "student-")
	default:
		return Identity{}, ErrBadIdentity
	}
	if s == "null" || s == "undefined" {
		return Identity{}, ErrBadIdentity
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return Identity{}, ErrBadIdentity
	}
	return Identity{Kind: kind, ID: uint(id)}, nil
}

// IdentityRef is the persisted form of Identity: two nullable columns with
// exactly one set. Rows are only ever written through NewIdentityRef, which
// keeps the pair mutually exclusive.
type IdentityRef struct {
	UserID    *uint `json:"user_id" gorm:"index"`
	StudentID *uint `json:"student_id" gorm:"index"`
}

func NewIdentityRef(id Identity) IdentityRef {
	v := id.ID
	switch id.Kind {
	case IdentityStudent:
		return IdentityRef{StudentID: &v}
	default:
		return IdentityRef{UserID: &v}
	}
}

// Identity returns the tagged form, reporting false for a malformed row
// (neither or both columns set).
func (r IdentityRef) Identity() (Identity, bool) {
	switch {
	case r.UserID != nil && r.StudentID == nil:
		return UserIdentity(*r.UserID), true
	case r.StudentID != nil && r.UserID == nil:
		return StudentIdentity(*r.StudentID), true
	}
	return Identity{}, false
}

func (r IdentityRef) Is(id Identity) bool {
	got, ok := r.Identity()
	return ok && got == id
}
