package domain

import "time"

// RuleOperator enumerates the comparison operators a segment rule may use.
type RuleOperator string

const (
	OpGreaterThan    RuleOperator = ">"
	OpLessThan       RuleOperator = "<"
	OpGreaterOrEqual RuleOperator = ">="
	OpLessOrEqual    RuleOperator = "<="
	OpEqual          RuleOperator = "="
	OpNotEqual       RuleOperator = "!="
)

// RuleCondition joins the rules of a segment.
type RuleCondition string

const (
	ConditionAnd RuleCondition = "AND"
	ConditionOr  RuleCondition = "OR"
)

// SegmentRule is a single predicate over a customer field, e.g.
// total_spend > 10000 or inactive_days > 90.
type SegmentRule struct {
	Field    string       `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    float64      `json:"value"`
}

// Segment is a named, user-owned audience definition: a list of rules
// combined with AND/OR. AudienceSize is a snapshot taken at creation
// time, not a live count.
type Segment struct {
	ID           string        `json:"id" db:"id"`
	OwnerID      string        `json:"owner_id" db:"owner_id"`
	Name         string        `json:"name" db:"name"`
	Rules        []SegmentRule `json:"rules"`
	Condition    RuleCondition `json:"condition" db:"condition"`
	AudienceSize int           `json:"audience_size" db:"audience_size"`
	UseMockData  bool          `json:"use_mock_data" db:"use_mock_data"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}
