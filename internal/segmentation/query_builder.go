package segmentation

import (
	"fmt"
	"strings"

	"github.com/ignite/crm-pipeline/internal/domain"
)

// customerColumns is the SELECT list shared by every audience query.
const customerColumns = `
	SELECT id, email, name, total_spend, visit_count,
	       last_visit, last_order_date, is_mock_data, created_at, updated_at
	FROM customers
`

// allowed rule fields. Anything else is rejected before it can reach
// the SQL text.
const (
	FieldTotalSpend   = "total_spend"
	FieldVisitCount   = "visit_count"
	FieldInactiveDays = "inactive_days"
)

var allowedOperators = map[domain.RuleOperator]bool{
	domain.OpGreaterThan:    true,
	domain.OpLessThan:       true,
	domain.OpGreaterOrEqual: true,
	domain.OpLessOrEqual:    true,
	domain.OpEqual:          true,
	domain.OpNotEqual:       true,
}

// QueryBuilder translates a segment's rule list into a parameterized
// SQL query over the customers table. Field and operator names are
// whitelisted; rule values only ever travel as query arguments.
type QueryBuilder struct {
	args       []interface{}
	argCounter int
}

// NewQueryBuilder creates an empty builder.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{argCounter: 1}
}

// nextArg returns the next argument placeholder.
func (qb *QueryBuilder) nextArg(value interface{}) string {
	qb.args = append(qb.args, value)
	placeholder := fmt.Sprintf("$%d", qb.argCounter)
	qb.argCounter++
	return placeholder
}

// Build returns the audience query for the given rules. An empty rule
// list matches every customer (subject to the mock-data filter).
func (qb *QueryBuilder) Build(rules []domain.SegmentRule, condition domain.RuleCondition, includeMock bool) (string, []interface{}, error) {
	qb.args = nil
	qb.argCounter = 1

	join := " AND "
	if condition == domain.ConditionOr {
		join = " OR "
	}

	var ruleSQL []string
	for _, r := range rules {
		c, err := qb.buildCondition(r)
		if err != nil {
			return "", nil, err
		}
		ruleSQL = append(ruleSQL, c)
	}

	where := []string{"1=1"}
	if !includeMock {
		where = append(where, "is_mock_data = FALSE")
	}
	if len(ruleSQL) > 0 {
		where = append(where, "("+strings.Join(ruleSQL, join)+")")
	}

	query := customerColumns + "\tWHERE " + strings.Join(where, " AND ") + "\n\tORDER BY created_at"
	return query, qb.args, nil
}

func (qb *QueryBuilder) buildCondition(r domain.SegmentRule) (string, error) {
	if !allowedOperators[r.Operator] {
		return "", fmt.Errorf("unsupported operator %q", r.Operator)
	}

	switch r.Field {
	case FieldTotalSpend, FieldVisitCount:
		return fmt.Sprintf("%s %s %s", r.Field, r.Operator, qb.nextArg(r.Value)), nil
	case FieldInactiveDays:
		// inactive_days N compares how long ago the last visit was:
		// "inactive_days > 90" means no visit in the last 90 days.
		// The comparison flips because older timestamps are smaller.
		var op string
		switch r.Operator {
		case domain.OpGreaterThan:
			op = "<"
		case domain.OpGreaterOrEqual:
			op = "<="
		case domain.OpLessThan:
			op = ">"
		case domain.OpLessOrEqual:
			op = ">="
		default:
			return "", fmt.Errorf("operator %q not supported for %s", r.Operator, FieldInactiveDays)
		}
		return fmt.Sprintf("last_visit %s NOW() - (%s || ' days')::interval", op, qb.nextArg(r.Value)), nil
	default:
		return "", fmt.Errorf("unsupported rule field %q", r.Field)
	}
}
