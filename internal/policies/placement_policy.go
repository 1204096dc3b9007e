package policies

import (
	"github.com/ZanzyTHEbar/errbuilder-go"

	"cargo-add/internal/types"
)

// PlacementPolicy holds the rules deciding which dependency table a
// request may write to.
type PlacementPolicy struct{}

func NewPlacementPolicy() PlacementPolicy {
	return PlacementPolicy{}
}

// DependencyKind maps the dev/build flags to a kind. Both flags at once
// are rejected.
func (p PlacementPolicy) DependencyKind(dev bool, build bool) (types.DependencyKind, error) {
	switch {
	case dev && build:
		return "", types.NewEditError(
			types.ErrorKindConflictingDependencyKind,
			errbuilder.CodeInvalidArgument,
			"a dependency cannot be both a dev and a build dependency",
		)
	case dev:
		return types.DependencyKindDev, nil
	case build:
		return types.DependencyKindBuild, nil
	default:
		return types.DependencyKindNormal, nil
	}
}

// CheckOptional rejects optional dependencies outside the normal table.
func (p PlacementPolicy) CheckOptional(kind types.DependencyKind, optional bool) error {
	if optional && kind != types.DependencyKindNormal {
		return types.NewEditError(
			types.ErrorKindOptionalNotAllowedForDevBuild,
			errbuilder.CodeInvalidArgument,
			"optional dependencies are only allowed in the dependencies table",
		)
	}
	return nil
}

// CheckTarget accepts a missing target or any non-empty qualifier.
func (p PlacementPolicy) CheckTarget(target *string) error {
	if target != nil && *target == "" {
		return types.NewEditError(
			types.ErrorKindEmptyTarget,
			errbuilder.CodeInvalidArgument,
			"target must not be empty",
		)
	}
	return nil
}
