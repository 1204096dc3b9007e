package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"cargo-add/internal/types"
)

// ParseIdentifier classifies one crate argument. URLs become git
// identifiers, arguments that look like filesystem paths become local
// identifiers, and everything else is a name with an optional
// "@requirement" suffix.
func ParseIdentifier(raw string) (types.Identifier, error) {
	raw = strings.TrimSpace(raw)
	id := types.Identifier{Raw: raw}
	switch {
	case raw == "":
		return id, invalidCrateName(raw)
	case strings.Contains(raw, "://"):
		id.GitURL = raw
		return id, nil
	case looksLikePath(raw):
		id.LocalPath = raw
		return id, nil
	}
	name, requirement, hasRequirement := strings.Cut(raw, "@")
	if name == "" {
		return id, invalidCrateName(raw)
	}
	id.Name = name
	if hasRequirement && strings.TrimSpace(requirement) == "" {
		return id, types.NewEditError(
			types.ErrorKindInvalidVersionRequirement,
			errbuilder.CodeInvalidArgument,
			fmt.Sprintf("empty version requirement in %q", raw),
		).For(name)
	}
	id.Requirement = requirement
	return id, nil
}

func looksLikePath(raw string) bool {
	return strings.HasPrefix(raw, ".") ||
		strings.HasPrefix(raw, "~") ||
		strings.ContainsAny(raw, `/\`)
}

func invalidCrateName(raw string) error {
	return types.NewEditError(
		types.ErrorKindInvalidCrateName,
		errbuilder.CodeInvalidArgument,
		fmt.Sprintf("invalid crate argument %q", raw),
	)
}
