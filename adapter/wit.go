package adapter

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/host-bundles/errors"
)

// Operation is one function declared by a bundle's interface description.
type Operation struct {
	// Name is the WIT function name (kebab-case).
	Name string

	// Namespace is the WIT interface path, e.g. "keyvalue:store/store".
	// Empty when the WIT text has no package or interface declaration.
	Namespace string

	Params  []wit.Type
	Results []wit.Type
}

// Symbol returns the flat C symbol name for the operation: the namespace
// (version stripped) and function name joined and mangled, '-', ':', '/'
// and '.' all mapped to '_'. "keyvalue:store/store" / "list-keys" becomes
// "keyvalue_store_store_list_keys".
func (op Operation) Symbol() string {
	ns := op.Namespace
	if i := strings.IndexByte(ns, '@'); i != -1 {
		ns = ns[:i]
	}
	s := op.Name
	if ns != "" {
		s = ns + "_" + s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ':', '/', '.':
			return '_'
		}
		return r
	}, s)
}

var (
	// Pattern: [export] name: func(params) -> result;
	funcPattern = regexp.MustCompile(`(?:export\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

	packagePattern   = regexp.MustCompile(`package\s+([a-zA-Z][a-zA-Z0-9:_-]*(?:@[0-9][0-9a-zA-Z.+-]*)?)\s*;`)
	interfacePattern = regexp.MustCompile(`interface\s+([a-zA-Z_][a-zA-Z0-9_-]*)\s*\{`)
)

// parseWitOperations reads the interface description at path, either a
// .wit file or a directory whose .wit files are read in name order, and
// extracts the declared operations.
func parseWitOperations(path string) ([]Operation, error) {
	texts, err := readWitTexts(path)
	if err != nil {
		return nil, err
	}

	var ops []Operation
	for _, text := range texts {
		parsed, err := parseWitText(text)
		if err != nil {
			if e, ok := err.(*errors.Error); ok && e.Path == "" {
				e.Path = path
			}
			return nil, err
		}
		ops = append(ops, parsed...)
	}
	return ops, nil
}

func readWitTexts(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NotFound(errors.PhaseParse, "WIT definitions", path)
	}

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseParse, errors.KindParse, err, "read WIT file")
		}
		return []string{string(data)}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindParse, err, "read WIT directory")
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".wit") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	texts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(path, name))
		if err != nil {
			return nil, errors.Wrap(errors.PhaseParse, errors.KindParse, err, "read WIT file "+name)
		}
		texts = append(texts, string(data))
	}
	return texts, nil
}

// parseWitText extracts function signatures from WIT text. Functions are
// attributed to the interface block they appear after; the package
// declaration, when present, prefixes the interface name.
func parseWitText(text string) ([]Operation, error) {
	pkg := ""
	if m := packagePattern.FindStringSubmatch(text); m != nil {
		pkg = m[1]
	}

	ifaceStarts := interfacePattern.FindAllStringSubmatchIndex(text, -1)
	ifaceName := func(pos int) string {
		name := ""
		for _, m := range ifaceStarts {
			if m[0] > pos {
				break
			}
			name = text[m[2]:m[3]]
		}
		return name
	}

	matches := funcPattern.FindAllStringSubmatchIndex(text, -1)
	ops := make([]Operation, 0, len(matches))

	for _, m := range matches {
		name := text[m[2]:m[3]]
		paramsStr := strings.TrimSpace(text[m[4]:m[5]])
		resultStr := ""
		if m[6] != -1 {
			resultStr = strings.TrimSpace(text[m[6]:m[7]])
		}

		op := Operation{Name: name}
		if iface := ifaceName(m[0]); iface != "" {
			if pkg != "" {
				op.Namespace = pkg + "/" + iface
			} else {
				op.Namespace = iface
			}
		}

		if paramsStr != "" {
			for _, p := range splitParams(paramsStr) {
				typStr := p
				if idx := strings.LastIndex(p, ":"); idx != -1 {
					typStr = strings.TrimSpace(p[idx+1:])
				}
				t, err := parseTypeExpr(typStr)
				if err != nil {
					return nil, errors.Wrap(errors.PhaseParse, errors.KindParse, err, "parse param type "+typStr)
				}
				op.Params = append(op.Params, t)
			}
		}

		if resultStr != "" && resultStr != "()" {
			if strings.HasPrefix(resultStr, "(") && strings.HasSuffix(resultStr, ")") {
				inner := strings.TrimSuffix(strings.TrimPrefix(resultStr, "("), ")")
				if inner != "" {
					for _, part := range splitParams(inner) {
						t, err := parseTypeExpr(strings.TrimSpace(part))
						if err != nil {
							return nil, errors.Wrap(errors.PhaseParse, errors.KindParse, err, "parse result type "+part)
						}
						op.Results = append(op.Results, t)
					}
				}
			} else {
				t, err := parseTypeExpr(resultStr)
				if err != nil {
					return nil, errors.Wrap(errors.PhaseParse, errors.KindParse, err, "parse result type "+resultStr)
				}
				op.Results = []wit.Type{t}
			}
		}

		ops = append(ops, op)
	}

	return ops, nil
}

// parseTypeExpr parses a WIT type expression. Compound types (list, option,
// tuple, result) are handled here with their type arguments parsed
// recursively; everything else is delegated to wit.ParseType.
func parseTypeExpr(s string) (wit.Type, error) {
	s = strings.TrimSpace(s)

	head, args, ok := splitGeneric(s)
	if !ok {
		return wit.ParseType(s)
	}

	switch head {
	case "list":
		if len(args) != 1 {
			return nil, errors.InvalidInput(errors.PhaseParse, "list takes one type argument: "+s)
		}
		t, err := parseTypeExpr(args[0])
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.List{Type: t}}, nil

	case "option":
		if len(args) != 1 {
			return nil, errors.InvalidInput(errors.PhaseParse, "option takes one type argument: "+s)
		}
		t, err := parseTypeExpr(args[0])
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: t}}, nil

	case "tuple":
		tup := &wit.Tuple{}
		for _, arg := range args {
			t, err := parseTypeExpr(arg)
			if err != nil {
				return nil, err
			}
			tup.Types = append(tup.Types, t)
		}
		return &wit.TypeDef{Kind: tup}, nil

	case "result":
		if len(args) > 2 {
			return nil, errors.InvalidInput(errors.PhaseParse, "result takes at most two type arguments: "+s)
		}
		res := &wit.Result{}
		if len(args) >= 1 && args[0] != "_" {
			t, err := parseTypeExpr(args[0])
			if err != nil {
				return nil, err
			}
			res.OK = t
		}
		if len(args) == 2 && args[1] != "_" {
			t, err := parseTypeExpr(args[1])
			if err != nil {
				return nil, err
			}
			res.Err = t
		}
		return &wit.TypeDef{Kind: res}, nil
	}

	return wit.ParseType(s)
}

// splitGeneric splits "head<a, b>" into its head and type arguments. A bare
// "result" with no angle brackets also counts, with no arguments.
func splitGeneric(s string) (head string, args []string, ok bool) {
	open := strings.IndexByte(s, '<')
	if open == -1 {
		if s == "result" {
			return s, nil, true
		}
		return "", nil, false
	}
	if !strings.HasSuffix(s, ">") {
		return "", nil, false
	}
	head = strings.TrimSpace(s[:open])
	switch head {
	case "list", "option", "tuple", "result":
	default:
		return "", nil, false
	}
	inner := s[open+1 : len(s)-1]
	return head, splitParams(inner), true
}

// splitParams splits a parameter list, handling nested parens and angle
// brackets in compound types like list<tuple<string, u32>>.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
			current.WriteRune(ch)
		case ')', '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}
