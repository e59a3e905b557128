package types

import (
	"strings"

	"github.com/pkg/errors"
)

// MissingPolicy selects what happens when an optional input file does not exist.
type MissingPolicy int

const (
	// MissingFail reports a missing file as an error.
	MissingFail MissingPolicy = iota
	// MissingIgnore treats a missing file as if no path was given.
	MissingIgnore
	// MissingCreate creates the file. Only meaningful for files that are written.
	MissingCreate
)

var policyNames = map[MissingPolicy]string{
	MissingFail:   "fail",
	MissingIgnore: "ignore",
	MissingCreate: "create",
}

func (p MissingPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParseMissingPolicy converts a policy name. allowed restricts the accepted values.
func ParseMissingPolicy(s string, allowed ...MissingPolicy) (MissingPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range allowed {
		if policyNames[p] == s {
			return p, nil
		}
	}
	names := make([]string, len(allowed))
	for i, p := range allowed {
		names[i] = p.String()
	}
	return 0, errors.Errorf("invalid policy %q (want one of %s)", s, strings.Join(names, ", "))
}
