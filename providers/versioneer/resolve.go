package versioneer

// Selection is the result of filtering a catalog through a pragma.
type Selection struct {
	// Pinned is set when the pragma declares one exact version (e.g. 'pragma solidity 0.8.1;').
	Pinned string
	// Versions lists the compatible releases in ascending order.
	Versions []string
}

// IsPinned reports whether the pragma pins an exact version.
func (s *Selection) IsPinned() bool {
	return s != nil && s.Pinned != ""
}

// CompatibleVersions returns the catalog releases compatible with the pragma.
//
// It returns nil for a nil pragma and a pinned selection for an exact clause.
// A selection without matches has an empty, non-nil Versions slice.
func CompatibleVersions(p *Pragma, c *Catalog) *Selection {
	if p == nil {
		return nil
	}

	if p.First.Operator == OpExact && p.First.HasPatch {
		return &Selection{Pinned: p.First.Version().String()}
	}

	versions := []string{}
	for _, v := range c.versions {
		if p.Match(v) {
			versions = append(versions, v.String())
		}
	}
	return &Selection{Versions: versions}
}

// RecommendedVersion computes the single version to install for the pragma.
//
// The result is a target rather than a validated release: for '>' and '<' the bound
// is stepped to the neighbouring patch, or to the neighbouring minor series when the
// bound is at the edge of its series. Running past the latest release (or before the
// earliest one) fails with a *NoCompatibleVersionError.
//
// A nil pragma yields an empty string and no error.
func RecommendedVersion(p *Pragma, c *Catalog, earliest Version) (string, error) {
	if p == nil {
		return "", nil
	}

	first := p.First
	bound := first.Version()

	switch first.Operator {
	case OpExact:
		if !first.HasPatch {
			patch, ok := c.MaxPatch(first.Major, first.Minor)
			if !ok {
				return "", &NoCompatibleVersionError{Kind: "series", Value: first.String()}
			}
			return NewVersion(first.Major, first.Minor, patch).String(), nil
		}
		return bound.String(), nil
	case OpCaret, OpGreaterOrEqual, OpLessOrEqual:
		return bound.String(), nil
	case OpGreater:
		return recommendAbove(bound, c)
	case OpLess:
		return recommendBelow(bound, c, earliest)
	}

	return "", nil
}

func recommendAbove(bound Version, c *Catalog) (string, error) {
	if bound.GreaterThanOrEqual(c.Latest()) {
		return "", &NoCompatibleVersionError{Kind: "latest", Value: c.Latest().String()}
	}

	maxPatch, ok := c.MaxPatch(bound.major, bound.minor)
	if !ok || bound.patch >= maxPatch {
		next, _ := c.MinPatch(bound.major, bound.minor+1)
		return NewVersion(bound.major, bound.minor+1, next).String(), nil
	}

	return NewVersion(bound.major, bound.minor, bound.patch+1).String(), nil
}

func recommendBelow(bound Version, c *Catalog, earliest Version) (string, error) {
	if bound.LessThanOrEqual(earliest) {
		return "", &NoCompatibleVersionError{Kind: "earliest", Value: earliest.String()}
	}

	minPatch, ok := c.MinPatch(bound.major, bound.minor)
	if ok && bound.patch > minPatch {
		return NewVersion(bound.major, bound.minor, bound.patch-1).String(), nil
	}

	if bound.minor > 0 {
		prev, _ := c.MaxPatch(bound.major, bound.minor-1)
		return NewVersion(bound.major, bound.minor-1, prev).String(), nil
	}

	// Crossing into the previous major release line.
	minors := c.Minors(bound.major - 1)
	if bound.major == 0 || len(minors) == 0 {
		return "", &NoCompatibleVersionError{Kind: "earliest", Value: earliest.String()}
	}
	minor := minors[len(minors)-1]
	prev, _ := c.MaxPatch(bound.major-1, minor)
	return NewVersion(bound.major-1, minor, prev).String(), nil
}
