package versioneer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

/*
'pragma solidity' statements parsing.

The statement is matched first ('pragma solidity <body>;') and the body is then
split into clauses, so each rule of the grammar can be checked on its own.
*/

// Supported clause operators.
const (
	OpExact          = ""
	OpCaret          = "^"
	OpGreater        = ">"
	OpGreaterOrEqual = ">="
	OpLess           = "<"
	OpLessOrEqual    = "<="
)

var (
	statementRgxCompiled = regexp.MustCompile(`^\s*pragma\s+solidity([^;]*);`)
	clauseRgxCompiled    = regexp.MustCompile(`(\^|>=|<=|>|<|=)?[\s"']*(\d+)\s*\.\s*(\d+)(?:\s*\.\s*(\d+))?[\s"']*`)
)

// pragmaPrefixRgxCompiled is used to spot the statement line in a source file.
var pragmaPrefixRgxCompiled = regexp.MustCompile(`^pragma\s+solidity`)

// Clause represents one comparator bound of a pragma (e.g. '>=0.6.0').
type Clause struct {
	Operator string
	Major    int
	Minor    int
	Patch    int
	// HasPatch is false for incomplete clauses like '0.8'.
	HasPatch bool
}

// NewClause constructs a complete clause.
func NewClause(op string, v Version) Clause {
	return Clause{Operator: op, Major: v.major, Minor: v.minor, Patch: v.patch, HasPatch: true}
}

// Version returns the bound version of the clause, the patch is 0 for incomplete clauses.
func (c Clause) Version() Version {
	return NewVersion(c.Major, c.Minor, c.Patch)
}

// Match reports whether the version satisfies the clause.
func (c Clause) Match(v Version) bool {
	if !c.HasPatch {
		return v.major == c.Major && v.minor == c.Minor
	}
	compare, ok := clauseOperators[c.Operator]
	if !ok {
		return false
	}
	return compare(v, c.Version())
}

func (c Clause) String() string {
	if !c.HasPatch {
		return fmt.Sprintf("%s%d.%d", c.Operator, c.Major, c.Minor)
	}
	return c.Operator + c.Version().String()
}

// clauseOperators maps every operator to the check of a version against the bound.
var clauseOperators = map[string]func(v, bound Version) bool{
	OpExact:          Version.Equal,
	OpCaret:          Version.CompatibleWith,
	OpGreater:        Version.GreaterThan,
	OpGreaterOrEqual: Version.GreaterThanOrEqual,
	OpLess:           Version.LessThan,
	OpLessOrEqual:    Version.LessThanOrEqual,
}

// Pragma represents a parsed version constraint: one clause or a two clauses range.
//
// A nil *Pragma means that no constraint was declared.
type Pragma struct {
	First  Clause
	Second *Clause
}

// Match reports whether the version satisfies every clause of the pragma.
func (p *Pragma) Match(v Version) bool {
	if !p.First.Match(v) {
		return false
	}
	return p.Second == nil || p.Second.Match(v)
}

func (p *Pragma) String() string {
	if p == nil {
		return ""
	}
	if p.Second == nil {
		return p.First.String()
	}
	return p.First.String() + " " + p.Second.String()
}

// ParsePragma parses a 'pragma solidity ...;' statement.
//
// It returns nil when the statement does not match the grammar, declares more than
// two clauses, has an incomplete clause anywhere but as a sole exact clause, or
// declares a range with the lower bound above the upper one.
func ParsePragma(statement string) *Pragma {
	matches := statementRgxCompiled.FindStringSubmatch(statement)
	if matches == nil {
		return nil
	}

	clauses, ok := parseClauses(matches[1])
	if !ok {
		return nil
	}

	return newPragma(clauses)
}

// PragmaFromSource parses the pragma of a solidity source text.
//
// The first line starting with 'pragma solidity' is used, when there is none the whole text is matched.
func PragmaFromSource(source string) *Pragma {
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if pragmaPrefixRgxCompiled.MatchString(trimmed) {
			return ParsePragma(trimmed)
		}
	}
	return ParsePragma(source)
}

// parseClauses splits a statement body into clauses.
// Only whitespace and quotes are allowed between the clauses.
func parseClauses(body string) ([]Clause, bool) {
	locs := clauseRgxCompiled.FindAllStringSubmatchIndex(body, -1)

	clauses := make([]Clause, 0, len(locs))
	last := 0
	for _, loc := range locs {
		if strings.Trim(body[last:loc[0]], " \t\r\n\"'") != "" {
			return nil, false
		}
		last = loc[1]

		c, ok := clauseFromMatch(body, loc)
		if !ok {
			return nil, false
		}
		clauses = append(clauses, c)
	}
	if strings.Trim(body[last:], " \t\r\n\"'") != "" {
		return nil, false
	}

	return clauses, true
}

func clauseFromMatch(body string, loc []int) (Clause, bool) {
	group := func(n int) string {
		if loc[2*n] < 0 {
			return ""
		}
		return body[loc[2*n]:loc[2*n+1]]
	}

	var (
		err error
		c   = Clause{Operator: group(1)}
	)
	if c.Operator == "=" {
		c.Operator = OpExact
	}
	if c.Major, err = strconv.Atoi(group(2)); err != nil {
		return Clause{}, false
	}
	if c.Minor, err = strconv.Atoi(group(3)); err != nil {
		return Clause{}, false
	}
	if patch := group(4); patch != "" {
		if c.Patch, err = strconv.Atoi(patch); err != nil {
			return Clause{}, false
		}
		c.HasPatch = true
	}
	return c, true
}

// newPragma applies the clause combination rules.
func newPragma(clauses []Clause) *Pragma {
	// An incomplete second clause is ignored.
	if len(clauses) == 2 && !clauses[1].HasPatch {
		clauses = clauses[:1]
	}

	switch len(clauses) {
	case 1:
		first := clauses[0]
		if !first.HasPatch && first.Operator != OpExact {
			return nil
		}
		return &Pragma{First: first}
	case 2:
		first, second := clauses[0], clauses[1]
		if !first.HasPatch || first.Operator == OpExact || second.Operator == OpExact {
			return nil
		}
		if first.Version().GreaterThan(second.Version()) {
			return nil
		}
		return &Pragma{First: first, Second: &second}
	}

	return nil
}
