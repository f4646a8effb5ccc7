package catalog

import (
	"fmt"
	"strings"
)

// Role decides which conversational branches a session may use.
type Role int

const (
	RolePatron Role = iota
	RoleStaff
)

func (r Role) String() string {
	if r == RoleStaff {
		return "staff"
	}
	return "patron"
}

// ParseRole accepts staff/librarian and patron/user, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "staff", "librarian", "admin":
		return RoleStaff, nil
	case "patron", "user", "":
		return RolePatron, nil
	}
	return RolePatron, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
