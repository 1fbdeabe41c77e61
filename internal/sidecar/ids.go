package sidecar

import (
	"fmt"
	"os/user"
	"strconv"
)

// IDResolver looks names up in the system account and group databases.
type IDResolver interface {
	LookupUser(name string) (int, error)
	LookupGroup(name string) (int, error)
}

// SystemResolver resolves names with os/user, which reads /etc/passwd and
// /etc/group (or NSS when built with cgo).
type SystemResolver struct{}

// NewSystemResolver creates a SystemResolver.
func NewSystemResolver() *SystemResolver {
	return &SystemResolver{}
}

func (r *SystemResolver) LookupUser(name string) (int, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, err
	}
	return parseID(u.Uid)
}

func (r *SystemResolver) LookupGroup(name string) (int, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}
	return parseID(g.Gid)
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("non-numeric id %q: %w", raw, err)
	}
	return id, nil
}

// StaticResolver resolves names from fixed tables. Unknown names fail.
type StaticResolver struct {
	Users  map[string]int
	Groups map[string]int
}

func (r *StaticResolver) LookupUser(name string) (int, error) {
	if id, ok := r.Users[name]; ok {
		return id, nil
	}
	return 0, user.UnknownUserError(name)
}

func (r *StaticResolver) LookupGroup(name string) (int, error) {
	if id, ok := r.Groups[name]; ok {
		return id, nil
	}
	return 0, user.UnknownGroupError(name)
}
