package schema

import (
	"fmt"
	"strings"
)

// MaxDepth is the deepest nesting level ADE accepts. The root is depth 0.
const MaxDepth = 5

// RootPath is the path token for the schema root.
const RootPath = "root"

// Rule identifiers reported in Issue.Rule.
const (
	RuleRootType          = "root_type"
	RuleProhibitedKeyword = "prohibited_keyword"
	RuleMaxDepth          = "max_depth"
	RuleObjectProperties  = "object_properties"
	RuleUnknownRequired   = "unknown_required"
	RuleArrayItems        = "array_items"
	RuleTypeUnion         = "type_union"
	RuleMalformed         = "malformed"
	RuleModelType         = "model_type"
)

// Issue is one rule violation found in a schema.
type Issue struct {
	Path    string `json:"path" yaml:"path"`
	Rule    string `json:"rule" yaml:"rule"`
	Message string `json:"message" yaml:"message"`
}

// Report is the outcome of validating one schema.
type Report struct {
	Valid  bool    `json:"valid" yaml:"valid"`
	Issues []Issue `json:"issues" yaml:"issues"`
}

// Bullets renders one "- path: message" line per issue.
func (r Report) Bullets() string {
	var sb strings.Builder
	for i, issue := range r.Issues {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "- %s: %s", issue.Path, issue.Message)
	}
	return sb.String()
}

// NewReport builds a report from issues; Valid is true iff issues is empty.
func NewReport(issues []Issue) Report {
	if issues == nil {
		issues = []Issue{}
	}
	return Report{Valid: len(issues) == 0, Issues: issues}
}

// Validate checks a schema tree against ADE's rules. Issues come back in
// depth-first pre-order: a node's own issues, then its properties in source
// order, then its items.
func Validate(root *Node) Report {
	var w walker
	if root == nil {
		w.add(RootPath, RuleRootType, "schema is empty; top-level type must be \"object\"")
		return NewReport(w.issues)
	}

	if root.Kind != KindObject {
		w.add(RootPath, RuleRootType, fmt.Sprintf("top-level type must be \"object\", got %s", describeType(root)))
	}
	w.walk(root, RootPath)

	return NewReport(w.issues)
}

type walker struct {
	issues []Issue
}

func (w *walker) add(path, rule, message string) {
	w.issues = append(w.issues, Issue{Path: path, Rule: rule, Message: message})
}

func (w *walker) walk(n *Node, path string) {
	if n.Depth > MaxDepth {
		w.add(path, RuleMaxDepth, fmt.Sprintf("schema depth %d exceeds the maximum of %d", n.Depth, MaxDepth))
		return
	}

	for _, p := range n.Problems {
		// A non-object root is already covered by the root_type issue.
		if p.Field == "" && !n.isObject && path == RootPath {
			continue
		}
		w.add(joinPath(path, p.Field), RuleMalformed, p.Message)
	}

	for _, kw := range n.Prohibited {
		w.add(path+"."+kw, RuleProhibitedKeyword, fmt.Sprintf("keyword %q is not supported by ADE", kw))
	}

	if n.unionsComposite() {
		w.add(path+".type", RuleTypeUnion,
			fmt.Sprintf("type array %v cannot include \"object\" or \"array\"", n.Types))
	}

	switch n.Kind {
	case KindObject:
		if !n.HasProperties {
			w.add(path+".properties", RuleObjectProperties, "object must declare \"properties\"")
		} else if len(n.Properties) > 0 {
			for _, name := range n.Required {
				if !n.hasProperty(name) {
					w.add(path+".required", RuleUnknownRequired,
						fmt.Sprintf("required field %q is not declared in \"properties\"", name))
				}
			}
		}
	case KindArray:
		if !n.HasItems {
			w.add(path+".items", RuleArrayItems, "array must declare \"items\"")
		}
	}

	for _, p := range n.Properties {
		w.walk(p.Node, path+"."+p.Name)
	}
	if n.Items != nil {
		w.walk(n.Items, path+".items")
	}
}

func joinPath(path, field string) string {
	if field == "" {
		return path
	}
	return path + "." + field
}

func describeType(n *Node) string {
	switch {
	case !n.isObject:
		return "a non-object schema value"
	case len(n.Types) == 0:
		return "no type"
	case len(n.Types) == 1:
		return fmt.Sprintf("%q", n.Types[0])
	default:
		return fmt.Sprintf("%v", n.Types)
	}
}

// ValidateJSON parses and validates a schema document. Only malformed JSON
// is an error; rule violations are reported in the Report.
func ValidateJSON(data []byte) (Report, error) {
	root, err := Parse(data)
	if err != nil {
		return Report{}, err
	}
	return Validate(root), nil
}
