// Package access decides which Telegram users may drive the bot and which of
// them may review posts.
package access

import (
	"fmt"
	"strconv"
	"strings"
)

// Role is the capability level of a caller.
type Role int

const (
	// RoleNone callers are rejected before any state is touched.
	RoleNone Role = iota
	// RoleOperator callers can create, list, edit and delete posts.
	RoleOperator
	// RoleReviewer callers can also change review status.
	RoleReviewer
)

func (r Role) String() string {
	switch r {
	case RoleOperator:
		return "operator"
	case RoleReviewer:
		return "reviewer"
	}
	return "none"
}

// Identity is the caller as seen by Telegram.
type Identity struct {
	ID       int64
	Username string
}

// Label renders the identity for author and reviewer stamps.
func (i Identity) Label() string {
	if i.Username != "" {
		return "@" + i.Username
	}
	return strconv.FormatInt(i.ID, 10)
}

// List is a set of allowed users by numeric id or case-insensitive username.
type List struct {
	ids   map[int64]struct{}
	names map[string]struct{}
}

// ParseList accepts entries like "@name", "name" or "123456".
func ParseList(entries []string) (List, error) {
	l := List{ids: map[int64]struct{}{}, names: map[string]struct{}{}}
	for _, raw := range entries {
		e := strings.TrimSpace(raw)
		if e == "" {
			continue
		}
		if id, err := strconv.ParseInt(e, 10, 64); err == nil {
			l.ids[id] = struct{}{}
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(e, "@"))
		if name == "" || strings.ContainsAny(name, " @") {
			return List{}, fmt.Errorf("access: invalid entry %q", raw)
		}
		l.names[name] = struct{}{}
	}
	return l, nil
}

// Len reports the number of entries.
func (l List) Len() int { return len(l.ids) + len(l.names) }

// Contains reports whether id matches any entry.
func (l List) Contains(id Identity) bool {
	if _, ok := l.ids[id.ID]; ok && id.ID != 0 {
		return true
	}
	if id.Username == "" {
		return false
	}
	_, ok := l.names[strings.ToLower(id.Username)]
	return ok
}

// Policy evaluates both allow-lists. Reviewers are implicitly operators.
type Policy struct {
	operators List
	reviewers List
}

// NewPolicy parses operator and reviewer entries.
func NewPolicy(operators, reviewers []string) (*Policy, error) {
	ops, err := ParseList(operators)
	if err != nil {
		return nil, fmt.Errorf("operators: %w", err)
	}
	revs, err := ParseList(reviewers)
	if err != nil {
		return nil, fmt.Errorf("reviewers: %w", err)
	}
	if ops.Len()+revs.Len() == 0 {
		return nil, fmt.Errorf("access: at least one operator or reviewer is required")
	}
	return &Policy{operators: ops, reviewers: revs}, nil
}

// RoleOf returns the highest role granted to id.
func (p *Policy) RoleOf(id Identity) Role {
	switch {
	case p.reviewers.Contains(id):
		return RoleReviewer
	case p.operators.Contains(id):
		return RoleOperator
	}
	return RoleNone
}
