package stream

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Record kinds on the wire. Every appended record carries a "kind" field
// so consumers can reject unknown shapes at decode time instead of
// silently producing partial objects.
const (
	KindCustomerIngest = "customer_ingest"
	KindOrderIngest    = "order_ingest"
	KindDeliveryTask   = "delivery_task"
)

// ErrBadRecord marks records that cannot be decoded: unknown kind or
// missing/invalid required fields. Consumers treat these as poison and
// ack them; redelivery can never succeed.
var ErrBadRecord = errors.New("malformed stream record")

// Record is the tagged union of the shapes that travel on the log.
type Record interface {
	Kind() string
	encode(map[string]interface{})
}

// CustomerIngest is a pending customer creation.
type CustomerIngest struct {
	Email      string
	Name       string
	TotalSpend float64
	VisitCount int
	LastVisit  *time.Time
	IsMock     bool
}

func (CustomerIngest) Kind() string { return KindCustomerIngest }

func (r CustomerIngest) encode(m map[string]interface{}) {
	m["email"] = r.Email
	m["name"] = r.Name
	m["total_spend"] = strconv.FormatFloat(r.TotalSpend, 'f', -1, 64)
	m["visit_count"] = strconv.Itoa(r.VisitCount)
	m["is_mock"] = strconv.FormatBool(r.IsMock)
	if r.LastVisit != nil {
		m["last_visit"] = r.LastVisit.UTC().Format(time.RFC3339)
	}
}

// OrderIngest is a pending order creation. ID is minted by the
// producer, not the consumer: a redelivered record must insert the
// same row so the store's primary key can dedupe it.
type OrderIngest struct {
	ID          string
	CustomerID  string
	OrderAmount float64
	OrderDate   time.Time
}

func (OrderIngest) Kind() string { return KindOrderIngest }

func (r OrderIngest) encode(m map[string]interface{}) {
	m["id"] = r.ID
	m["customer_id"] = r.CustomerID
	m["order_amount"] = strconv.FormatFloat(r.OrderAmount, 'f', -1, 64)
	m["order_date"] = r.OrderDate.UTC().Format(time.RFC3339)
}

// DeliveryTask is one per-customer delivery instruction on a campaign
// stream. It is fully denormalized so the consumer can record an outcome
// without any further lookups.
type DeliveryTask struct {
	LogID         string
	CampaignID    string
	SegmentName   string
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	Message       string
	ImageRef      string
	IsMock        bool
}

func (DeliveryTask) Kind() string { return KindDeliveryTask }

func (r DeliveryTask) encode(m map[string]interface{}) {
	m["log_id"] = r.LogID
	m["campaign_id"] = r.CampaignID
	m["segment_name"] = r.SegmentName
	m["customer_id"] = r.CustomerID
	m["customer_name"] = r.CustomerName
	m["customer_email"] = r.CustomerEmail
	m["message"] = r.Message
	m["image_ref"] = r.ImageRef
	m["is_mock"] = strconv.FormatBool(r.IsMock)
}

// Encode flattens a record for appending to a stream.
func Encode(r Record) map[string]interface{} {
	m := map[string]interface{}{"kind": r.Kind()}
	r.encode(m)
	return m
}

// Decode rebuilds a typed record from the flat field map read off a
// stream. Unknown kinds and missing required fields fail with
// ErrBadRecord.
func Decode(values map[string]interface{}) (Record, error) {
	d := &decoder{values: values}
	kind := d.str("kind")
	if d.err != nil {
		return nil, d.err
	}

	switch kind {
	case KindCustomerIngest:
		r := CustomerIngest{
			Email:      d.str("email"),
			Name:       d.str("name"),
			TotalSpend: d.float("total_spend"),
			VisitCount: d.int("visit_count"),
			IsMock:     d.bool("is_mock"),
			LastVisit:  d.optTime("last_visit"),
		}
		return r, d.err
	case KindOrderIngest:
		r := OrderIngest{
			ID:          d.str("id"),
			CustomerID:  d.str("customer_id"),
			OrderAmount: d.float("order_amount"),
			OrderDate:   d.time("order_date"),
		}
		return r, d.err
	case KindDeliveryTask:
		r := DeliveryTask{
			LogID:         d.str("log_id"),
			CampaignID:    d.str("campaign_id"),
			SegmentName:   d.optStr("segment_name"),
			CustomerID:    d.str("customer_id"),
			CustomerName:  d.optStr("customer_name"),
			CustomerEmail: d.optStr("customer_email"),
			Message:       d.optStr("message"),
			ImageRef:      d.optStr("image_ref"),
			IsMock:        d.bool("is_mock"),
		}
		return r, d.err
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrBadRecord, kind)
	}
}

// decoder accumulates the first field error so call sites stay flat.
type decoder struct {
	values map[string]interface{}
	err    error
}

func (d *decoder) raw(key string) (string, bool) {
	v, ok := d.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (d *decoder) fail(key, why string) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: field %q %s", ErrBadRecord, key, why)
	}
}

func (d *decoder) str(key string) string {
	s, ok := d.raw(key)
	if !ok || s == "" {
		d.fail(key, "missing")
		return ""
	}
	return s
}

func (d *decoder) optStr(key string) string {
	s, _ := d.raw(key)
	return s
}

func (d *decoder) float(key string) float64 {
	s, ok := d.raw(key)
	if !ok {
		d.fail(key, "missing")
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		d.fail(key, "not a number")
		return 0
	}
	return f
}

func (d *decoder) int(key string) int {
	s, ok := d.raw(key)
	if !ok {
		d.fail(key, "missing")
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		d.fail(key, "not an integer")
		return 0
	}
	return n
}

func (d *decoder) bool(key string) bool {
	s, ok := d.raw(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		d.fail(key, "not a boolean")
		return false
	}
	return b
}

func (d *decoder) time(key string) time.Time {
	s, ok := d.raw(key)
	if !ok {
		d.fail(key, "missing")
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		d.fail(key, "not an RFC3339 timestamp")
		return time.Time{}
	}
	return t
}

func (d *decoder) optTime(key string) *time.Time {
	s, ok := d.raw(key)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		d.fail(key, "not an RFC3339 timestamp")
		return nil
	}
	return &t
}
