package injection

import "strings"

// Field names the part of a Connect-Protocol request path a Rule
// inspects.
type Field string

const (
	FieldPath    Field = "path"    // the full request path
	FieldService Field = "service" // the gRPC service name segment
	FieldMethod  Field = "method"  // the gRPC method name, the path's last segment
)

// Operator names how a Rule compares its Field's value against Value.
type Operator string

const (
	OpContains Operator = "contains"
	OpEquals   Operator = "equals"
	OpPrefix   Operator = "prefix"
)

// Rule is one eligibility predicate. A Matcher considers a path eligible
// if any of its rules match (disjunction), mirroring the hard-coded
// "contains Chat or Unified" check this matcher generalizes.
type Rule struct {
	Field    Field
	Operator Operator
	Value    string
}

// Matcher decides whether an intercepted request's path is eligible for
// injection (or capture — the same criterion applies to both).
type Matcher struct {
	rules []Rule
}

// NewMatcher builds a Matcher from explicit rules.
func NewMatcher(rules ...Rule) *Matcher {
	return &Matcher{rules: rules}
}

// DefaultMatcher reproduces the fixed predicate: the method name
// contains "Chat" or contains "Unified".
func DefaultMatcher() *Matcher {
	return NewMatcher(
		Rule{Field: FieldMethod, Operator: OpContains, Value: "Chat"},
		Rule{Field: FieldMethod, Operator: OpContains, Value: "Unified"},
	)
}

// Eligible reports whether path satisfies any rule. An empty rule set is
// never eligible, matching the fail-safe default of doing nothing rather
// than rewriting unexpectedly.
func (m *Matcher) Eligible(path string) bool {
	method := methodSegment(path)
	service := serviceSegment(path)

	for _, r := range m.rules {
		var subject string
		switch r.Field {
		case FieldPath:
			subject = path
		case FieldService:
			subject = service
		case FieldMethod:
			subject = method
		default:
			continue
		}
		if evaluate(r.Operator, subject, r.Value) {
			return true
		}
	}
	return false
}

func evaluate(op Operator, subject, value string) bool {
	switch op {
	case OpContains:
		return strings.Contains(subject, value)
	case OpEquals:
		return subject == value
	case OpPrefix:
		return strings.HasPrefix(subject, value)
	default:
		return false
	}
}

// methodSegment returns a Connect-Protocol path's final segment, the
// RPC method name, e.g. "StreamUnifiedChatWithTools" for
// "/aiserver.v1.ChatService/StreamUnifiedChatWithTools".
func methodSegment(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	return segments[len(segments)-1]
}

// serviceSegment returns the segment before the method name, e.g.
// "aiserver.v1.ChatService".
func serviceSegment(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	return segments[len(segments)-2]
}

// ServiceAndMethod exposes the same path-segment split Eligible uses
// internally, so callers that need the service/method pair for logging
// or event reporting do not have to re-parse the path themselves.
func ServiceAndMethod(path string) (service, method string) {
	return serviceSegment(path), methodSegment(path)
}
