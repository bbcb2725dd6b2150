// Package policy is the single place where role capabilities live. Handlers
// and services ask the table instead of carrying their own conditionals, so
// rules like "an admin cannot delete itself" are data, not code paths.
package policy

import "userdesk/services/api/internal/models"

type Action string

const (
	ActionListUsers  Action = "users:list"
	ActionCreateUser Action = "users:create"
	ActionUpdateUser Action = "users:update"
	ActionChangeRole Action = "users:change_role"
	ActionDeleteUser Action = "users:delete"
)

type rule struct {
	action Action
	role   string
	self   bool
	allow  bool
}

// Earlier rows win. Anything not matched is denied.
var table = []rule{
	{ActionDeleteUser, models.RoleAdmin, true, false},
	{ActionChangeRole, models.RoleAdmin, true, false},

	{ActionListUsers, models.RoleAdmin, false, true},
	{ActionCreateUser, models.RoleAdmin, false, true},
	{ActionUpdateUser, models.RoleAdmin, false, true},
	{ActionUpdateUser, models.RoleAdmin, true, true},
	{ActionChangeRole, models.RoleAdmin, false, true},
	{ActionDeleteUser, models.RoleAdmin, false, true},
}

func Allow(action Action, role string, self bool) bool {
	for _, r := range table {
		if r.action == action && r.role == role && r.self == self {
			return r.allow
		}
	}
	return false
}
