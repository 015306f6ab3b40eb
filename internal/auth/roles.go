package auth

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Role constants used across the console.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// PrefixRole namespaces role subjects inside the casbin policy.
const PrefixRole = "role:"

//go:embed model.conf
var casbinModelContent string

//go:embed policy.csv
var casbinPolicyContent string

// RoleExpander maps role names to the permission sets they imply, backed
// by a casbin enforcer over an embedded RBAC model and policy. Permission
// claims from the token stay authoritative; the expander only adds the
// role closure on top.
type RoleExpander struct {
	enforcer casbin.IEnforcer
}

// NewRoleExpander creates the enforcer from the embedded model and policy.
func NewRoleExpander() (*RoleExpander, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	if err := loadEmbeddedPolicy(enforcer); err != nil {
		return nil, fmt.Errorf("load casbin policies: %w", err)
	}

	return &RoleExpander{enforcer: enforcer}, nil
}

// ExpandPermissions returns the sorted union of permissions implied by
// the given roles. Unknown roles contribute nothing.
func (e *RoleExpander) ExpandPermissions(roles []string) []string {
	seen := make(map[string]struct{})
	for _, role := range roles {
		policies, err := e.enforcer.GetFilteredPolicy(0, PrefixRole+role)
		if err != nil {
			continue
		}
		for _, rule := range policies {
			if len(rule) >= 2 {
				seen[rule[1]] = struct{}{}
			}
		}
	}

	perms := make([]string, 0, len(seen))
	for perm := range seen {
		perms = append(perms, perm)
	}
	sort.Strings(perms)
	return perms
}

// FullPermissionSet returns every permission the admin role implies; the
// synthetic development principal carries exactly this set.
func (e *RoleExpander) FullPermissionSet() []string {
	return e.ExpandPermissions([]string{RoleAdmin})
}

// MergePermissions unions token-asserted permissions with the role
// closure, deduplicated and sorted.
func (e *RoleExpander) MergePermissions(asserted, roles []string) []string {
	seen := make(map[string]struct{}, len(asserted))
	for _, perm := range asserted {
		seen[perm] = struct{}{}
	}
	for _, perm := range e.ExpandPermissions(roles) {
		seen[perm] = struct{}{}
	}

	perms := make([]string, 0, len(seen))
	for perm := range seen {
		perms = append(perms, perm)
	}
	sort.Strings(perms)
	return perms
}

func loadEmbeddedPolicy(enforcer casbin.IEnforcer) error {
	for _, line := range strings.Split(casbinPolicyContent, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 3 || strings.TrimSpace(fields[0]) != "p" {
			return fmt.Errorf("malformed policy line: %q", line)
		}
		sub := strings.TrimSpace(fields[1])
		perm := strings.TrimSpace(fields[2])
		if _, err := enforcer.AddPolicy(sub, perm); err != nil {
			return fmt.Errorf("add policy %s %s: %w", sub, perm, err)
		}
	}
	return nil
}
