package services

import (
	"fmt"
	"strings"
)

// MovieFilters is the flat set of optional query filters. Empty string
// means the filter is absent.
type MovieFilters struct {
	SearchTerm       string
	DoubanID         string
	Genres           string // comma-separated
	ParentID         string // library scope
	IncludeItemTypes string // comma-separated
	Person           string
	Studio           string
	Series           string
}

// jsonContains builds the LIKE pattern for substring containment against a
// JSON-encoded list column. Matching '%"value"%' is knowingly fuzzy: a
// stored value that is a textual substring of another will false-positive,
// and SQL wildcard characters in the value are not escaped. This mirrors
// how the columns have always been queried; fixing it properly means
// normalized join tables, not a cleverer pattern.
func jsonContains(value string) string {
	return `%"` + value + `"%`
}

// BuildMovieWhereClause turns the filters into a SQL boolean expression
// and its positional parameter list. Every user value is bound, never
// interpolated. No filters yields the always-true predicate. Filters AND
// together; values within one filter OR together.
func BuildMovieWhereClause(f MovieFilters) (string, []any) {
	clauses := []string{}
	args := []any{}

	n := func() string { return fmt.Sprintf("$%d", len(args)) }

	if f.SearchTerm != "" {
		args = append(args, "%"+f.SearchTerm+"%")
		p := n()
		clauses = append(clauses, fmt.Sprintf("(title ILIKE %s OR original_title ILIKE %s OR plot ILIKE %s)", p, p, p))
	}

	if f.DoubanID != "" {
		// Prefix match so partial ids from the client still resolve
		args = append(args, f.DoubanID+"%")
		clauses = append(clauses, "douban_id LIKE "+n())
	}

	if f.Genres != "" {
		ors := []string{}
		for _, g := range splitAndTrim(f.Genres) {
			args = append(args, jsonContains(g))
			ors = append(ors, "genres LIKE "+n())
		}
		if len(ors) > 0 {
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if f.ParentID != "" {
		args = append(args, f.ParentID)
		clauses = append(clauses, "library = "+n())
	}

	if f.IncludeItemTypes != "" {
		ors := []string{}
		for _, t := range splitAndTrim(f.IncludeItemTypes) {
			args = append(args, t)
			ors = append(ors, "item_type = "+n())
		}
		if len(ors) > 0 {
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if f.Person != "" {
		args = append(args, jsonContains(f.Person))
		a := n()
		args = append(args, jsonContains(f.Person))
		d := n()
		clauses = append(clauses, fmt.Sprintf("(actors LIKE %s OR directors LIKE %s)", a, d))
	}

	if f.Studio != "" {
		args = append(args, f.Studio)
		clauses = append(clauses, "studio = "+n())
	}

	if f.Series != "" {
		args = append(args, f.Series)
		clauses = append(clauses, "set_name = "+n())
	}

	if len(clauses) == 0 {
		return "1=1", args
	}
	return strings.Join(clauses, " AND "), args
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
