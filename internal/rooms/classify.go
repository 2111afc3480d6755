package rooms

import "strings"

// #region classifier

// Classifier derives room roles from display-name prefixes. It only applies
// to instances that arrive without explicit roles.
type Classifier struct {
	Critical []string `json:"critical"`
	Eligible []string `json:"eligible"`
	Optional []string `json:"optional"`
	Terminal []string `json:"terminal"`
}

// DefaultClassifier returns the generator's naming convention.
func DefaultClassifier() Classifier {
	return Classifier{
		Critical: []string{"Start", "Sword", "Room", "End"},
		Eligible: []string{"Sword", "Room", "End", "Optional", "DeadEnd"},
		Optional: []string{"Optional", "DeadEnd"},
		Terminal: []string{"End"},
	}
}

// Roles returns every role whose allow-list has a case-insensitive prefix of
// name.
func (c Classifier) Roles(name string) []Role {
	var roles []Role
	if hasPrefixFold(name, c.Critical) {
		roles = append(roles, RoleCritical)
	}
	if hasPrefixFold(name, c.Eligible) {
		roles = append(roles, RoleEligible)
	}
	if hasPrefixFold(name, c.Optional) {
		roles = append(roles, RoleOptional)
	}
	if hasPrefixFold(name, c.Terminal) {
		roles = append(roles, RoleTerminal)
	}
	return roles
}

func hasPrefixFold(name string, prefixes []string) bool {
	if name == "" {
		return false
	}
	for _, p := range prefixes {
		if p == "" || len(name) < len(p) {
			continue
		}
		if strings.EqualFold(name[:len(p)], p) {
			return true
		}
	}
	return false
}

// #endregion classifier
