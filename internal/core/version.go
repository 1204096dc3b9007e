package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"cargo-add/internal/types"
)

// upgradePrefixes maps each upgrade strategy to the operator written in
// front of a resolved version.
var upgradePrefixes = map[types.UpgradeStrategy]string{
	types.UpgradeDefault: "",
	types.UpgradeNone:    "=",
	types.UpgradePatch:   "~",
	types.UpgradeMinor:   "^",
	types.UpgradeAll:     ">=",
}

// requirementClause matches one comma separated clause of a version
// requirement: an optional operator followed by a dotted numeric
// version, or a wildcard.
var requirementClause = regexp.MustCompile(`^(=|~|\^|>=|>|<=|<)?\s*(\*|[0-9]+(\.([0-9]+|\*)){0,2}(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?)$`)

// ParseUpgradeStrategy validates an upgrade token. The empty token is the
// default strategy.
func ParseUpgradeStrategy(raw string) (types.UpgradeStrategy, error) {
	strategy := types.UpgradeStrategy(raw)
	if _, ok := upgradePrefixes[strategy]; !ok {
		return types.UpgradeDefault, types.NewEditError(
			types.ErrorKindInvalidUpgradeStrategy,
			errbuilder.CodeInvalidArgument,
			fmt.Sprintf("invalid upgrade strategy %q (expected none, patch, minor or all)", raw),
		)
	}
	return strategy, nil
}

// FormatRequirement turns a concrete registry version into the
// requirement stored in the manifest.
func FormatRequirement(version string, strategy types.UpgradeStrategy) (string, error) {
	prefix, ok := upgradePrefixes[strategy]
	if !ok {
		return "", types.NewEditError(
			types.ErrorKindInvalidUpgradeStrategy,
			errbuilder.CodeInvalidArgument,
			fmt.Sprintf("invalid upgrade strategy %q", string(strategy)),
		)
	}
	return prefix + strings.TrimSpace(version), nil
}

// ValidateRequirement checks the syntax of a user supplied requirement.
func ValidateRequirement(raw string) error {
	trimmed := strings.TrimSpace(raw)
	invalid := func(cause error) error {
		editErr := types.NewEditError(
			types.ErrorKindInvalidVersionRequirement,
			errbuilder.CodeInvalidArgument,
			fmt.Sprintf("invalid version requirement %q", raw),
		)
		if cause != nil {
			editErr.Err = errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid version requirement %q", raw)).
				WithCause(cause)
		}
		return editErr
	}
	if trimmed == "" {
		return invalid(nil)
	}
	for _, clause := range strings.Split(trimmed, ",") {
		if !requirementClause.MatchString(strings.TrimSpace(clause)) {
			return invalid(nil)
		}
	}
	if _, err := semver.NewConstraint(trimmed); err != nil {
		return invalid(err)
	}
	return nil
}

// LatestVersion picks the highest version from available. Pre-releases
// are only considered when allowPrerelease is set or nothing else exists.
// Values that are not semantic versions are skipped.
func LatestVersion(name string, available []string, allowPrerelease bool) (string, error) {
	var stable, pre semver.Collection
	for _, raw := range available {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if v.Prerelease() != "" {
			pre = append(pre, v)
			continue
		}
		stable = append(stable, v)
	}
	candidates := stable
	if allowPrerelease || len(candidates) == 0 {
		candidates = append(candidates, pre...)
	}
	if len(candidates) == 0 {
		return "", types.NewEditError(
			types.ErrorKindLookup,
			errbuilder.CodeNotFound,
			fmt.Sprintf("no available versions for %s", name),
		).For(name)
	}
	sort.Stable(candidates)
	return candidates[len(candidates)-1].Original(), nil
}
