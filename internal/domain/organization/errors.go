package organization

import "errors"

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrBranchNotFound       = errors.New("branch not found")
)
