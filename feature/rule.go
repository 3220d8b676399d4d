package feature

import (
	"fmt"
	"math"
	"strings"
)

// RuleError represents an error related with rules
type RuleError string

/*
ErrInvalidRule is the error returned when a rule is malformed: its feature
is unknown, its operator unsupported or its threshold is not a finite number.
*/
const ErrInvalidRule = RuleError("invalid rule")

func (re RuleError) Error() string {
	return string(re)
}

/*
Sample is an interface for something that can satisfy a Rule.

Its ValueFor method returns the value corresponding to the feature
with the name passed as parameter.
*/
type Sample interface {
	ValueFor(string) (float64, error)
}

// Operator is a comparison between a feature value and a threshold.
type Operator string

const (
	// LessThan is satisfied by values strictly below the threshold
	LessThan Operator = "<"
	// GreaterOrEqual is satisfied by values equal to or above the threshold
	GreaterOrEqual Operator = ">="
	// Equal is satisfied by values numerically equal to the threshold
	Equal Operator = "=="
)

// Operators holds every supported operator.
var Operators = []Operator{LessThan, GreaterOrEqual, Equal}

/*
ParseOperator takes a string and returns the Operator it represents or an
ErrInvalidRule error.
*/
func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.TrimSpace(s))
	if !op.Valid() {
		return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidRule, s)
	}
	return op, nil
}

// Valid returns whether the operator is supported.
func (op Operator) Valid() bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

/*
Compare takes a value and a threshold and returns whether the value
satisfies the operator against the threshold.
*/
func (op Operator) Compare(v, threshold float64) bool {
	switch op {
	case LessThan:
		return v < threshold
	case GreaterOrEqual:
		return v >= threshold
	case Equal:
		return v == threshold
	}
	return false
}

/*
Rule represents a constraint on a feature: the feature value compared with
the Operator against the Threshold.
*/
type Rule struct {
	Feature   string
	Operator  Operator
	Threshold float64
}

/*
NewRule takes a feature name, an operator and a threshold and returns the
rule they define, or an ErrInvalidRule error if it is malformed.
*/
func NewRule(feature string, op Operator, threshold float64) (Rule, error) {
	r := Rule{feature, op, threshold}
	return r, r.Validate()
}

/*
Validate returns an ErrInvalidRule error if the rule has no feature,
an unsupported operator or a threshold that is not a finite number.
*/
func (r Rule) Validate() error {
	if r.Feature == "" {
		return fmt.Errorf("%w: no feature", ErrInvalidRule)
	}
	if !r.Operator.Valid() {
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidRule, string(r.Operator))
	}
	if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) {
		return fmt.Errorf("%w: threshold %v is not a finite number", ErrInvalidRule, r.Threshold)
	}
	return nil
}

/*
SatisfiedBy receives a sample as parameter and returns a boolean indicating if
the sample's value for the rule's feature satisfies the rule. An error is
returned if the value cannot be obtained from the sample.
*/
func (r Rule) SatisfiedBy(sample Sample) (bool, error) {
	v, err := sample.ValueFor(r.Feature)
	if err != nil {
		return false, err
	}
	return r.Operator.Compare(v, r.Threshold), nil
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %g", r.Feature, r.Operator, r.Threshold)
}

/*
Describe returns the rule as a string with the threshold formatted
by the feature it applies to, so categorical thresholds show their label.
*/
func (r Rule) Describe(md *Metadata) string {
	if md != nil {
		if f, ok := md.Feature(r.Feature); ok {
			return fmt.Sprintf("%s %s %s", r.Feature, r.Operator, f.Format(r.Threshold))
		}
	}
	return r.String()
}

/*
ParseRule takes the metadata of a dataset, a feature name, an operator and the
textual threshold a user entered and returns the rule they define. Thresholds
for discrete features can be given as one of their values. An ErrInvalidRule
error is returned if the feature is unknown, the operator unsupported or the
threshold cannot be parsed into a finite number.
*/
func ParseRule(md *Metadata, featureName, operator, threshold string) (Rule, error) {
	f, ok := md.Feature(strings.TrimSpace(featureName))
	if !ok {
		return Rule{}, fmt.Errorf("%w: unknown feature %q", ErrInvalidRule, featureName)
	}
	op, err := ParseOperator(operator)
	if err != nil {
		return Rule{}, err
	}
	v, err := f.Parse(threshold)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return NewRule(f.Name(), op, v)
}

/*
ParseRuleExpression takes the metadata of a dataset and an expression like
"Sex == female" or "Age>=16" and returns the rule it defines using ParseRule.
*/
func ParseRuleExpression(md *Metadata, expr string) (Rule, error) {
	for _, op := range []Operator{GreaterOrEqual, Equal, LessThan} {
		i := strings.Index(expr, string(op))
		if i < 0 {
			continue
		}
		return ParseRule(md, expr[:i], string(op), expr[i+len(op):])
	}
	return Rule{}, fmt.Errorf("%w: no operator found in %q", ErrInvalidRule, expr)
}
