// Package segmentation resolves segment rules into customer audiences.
//
// A segment is a list of field/operator/value rules joined with AND/OR.
// The query builder translates them into one parameterized SQL query;
// the evaluator runs it and returns the matching customers, applying
// the segment's mock-data inclusion policy.
package segmentation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/crm-pipeline/internal/domain"
)

// SegmentSource loads segment definitions by id.
type SegmentSource interface {
	GetSegment(ctx context.Context, id string) (*domain.Segment, error)
}

// Evaluator resolves a segment id to its current audience. It
// satisfies the delivery orchestrator's AudienceResolver contract.
type Evaluator struct {
	db       *sql.DB
	segments SegmentSource
}

// NewEvaluator creates an evaluator over the customer database.
func NewEvaluator(db *sql.DB, segments SegmentSource) *Evaluator {
	return &Evaluator{db: db, segments: segments}
}

// ResolveAudience evaluates the segment's predicate and returns the
// matching customers. Synthetic (mock) customers are excluded unless
// the segment opts in.
func (e *Evaluator) ResolveAudience(ctx context.Context, segmentID string) ([]domain.Customer, error) {
	seg, err := e.segments.GetSegment(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	query, args, err := NewQueryBuilder().Build(seg.Rules, seg.Condition, seg.UseMockData)
	if err != nil {
		return nil, fmt.Errorf("build audience query for segment %s: %w", segmentID, err)
	}

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("run audience query for segment %s: %w", segmentID, err)
	}
	defer rows.Close()

	var audience []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(
			&c.ID, &c.Email, &c.Name, &c.TotalSpend, &c.VisitCount,
			&c.LastVisit, &c.LastOrderDate, &c.IsMockData, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		audience = append(audience, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audience: %w", err)
	}
	return audience, nil
}

// CountAudience returns the audience size without materializing rows.
// Used to snapshot a segment's audienceSize at creation time.
func (e *Evaluator) CountAudience(ctx context.Context, rules []domain.SegmentRule, condition domain.RuleCondition, includeMock bool) (int, error) {
	query, args, err := NewQueryBuilder().Build(rules, condition, includeMock)
	if err != nil {
		return 0, fmt.Errorf("build audience query: %w", err)
	}

	var n int
	countQ := "SELECT COUNT(*) FROM (" + query + ") a"
	if err := e.db.QueryRowContext(ctx, countQ, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audience: %w", err)
	}
	return n, nil
}
