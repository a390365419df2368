package pdb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andrew-torda/afprep/pkg/atomtab"
)

// operCount says how many copies an operator expression from
// _pdbx_struct_assembly_gen makes. Expressions look like
//
//	1    1,2    1-60    (1-3)    (1,2)(3-5)
//
// A list of parenthesised groups is a product, so the last one
// gives 2 * 3 = 6 copies.
func operCount(expr string) (int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, errors.New("empty operator expression")
	}
	var groups []string
	if expr[0] != '(' {
		groups = []string{expr}
	} else {
		for rest := expr; rest != ""; {
			if rest[0] != '(' {
				return 0, fmt.Errorf("operator expression %q: want '('", expr)
			}
			end := strings.IndexByte(rest, ')')
			if end < 0 {
				return 0, fmt.Errorf("operator expression %q: unbalanced", expr)
			}
			groups = append(groups, rest[1:end])
			rest = rest[end+1:]
		}
	}
	total := 1
	for _, g := range groups {
		n, err := groupCount(g)
		if err != nil {
			return 0, fmt.Errorf("operator expression %q: %w", expr, err)
		}
		total *= n
	}
	return total, nil
}

// groupCount counts the operators in "1,2,5-7".
func groupCount(g string) (int, error) {
	n := 0
	for _, piece := range strings.Split(g, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			return 0, errors.New("empty operator")
		}
		lo, hi, isRange := strings.Cut(piece, "-")
		if !isRange {
			n++
			continue
		}
		a, e1 := strconv.Atoi(lo)
		b, e2 := strconv.Atoi(hi)
		if e1 != nil || e2 != nil || b < a {
			return 0, fmt.Errorf("bad operator range %q", piece)
		}
		n += b - a + 1
	}
	return n, nil
}

// applyAssembly keeps the chains named by the assembly and says how
// many copies of each there are. With no assembly id, every chain is
// kept once.
func applyAssembly(t *atomtab.Table, gen []map[string]string, id string) (*atomtab.Table, map[string]int, error) {
	copies := make(map[string]int)
	if id == "" {
		for _, c := range t.ChainID {
			copies[c] = 1
		}
		return t, copies, nil
	}
	found := false
	for _, row := range gen {
		if row["assembly_id"] != id {
			continue
		}
		found = true
		n, err := operCount(row["oper_expression"])
		if err != nil {
			return nil, nil, err
		}
		for _, c := range strings.Split(row["asym_id_list"], ",") {
			if c = strings.TrimSpace(c); c != "" {
				copies[c] += n
			}
		}
	}
	if !found {
		return nil, nil, fmt.Errorf("no assembly %q", id)
	}
	keep := make([]bool, t.Len())
	for i, c := range t.ChainID {
		keep[i] = copies[c] > 0
	}
	return t.Select(keep), copies, nil
}
