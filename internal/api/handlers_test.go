package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignite/crm-pipeline/internal/delivery"
	"github.com/ignite/crm-pipeline/internal/domain"
	"github.com/ignite/crm-pipeline/internal/ingest"
)

type fakeIngestor struct {
	customers []ingest.CustomerInput
	orders    []ingest.OrderInput
	err       error
}

func (f *fakeIngestor) IngestCustomer(_ context.Context, in ingest.CustomerInput) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.customers = append(f.customers, in)
	return fmt.Sprintf("rec-%d", len(f.customers)), nil
}

func (f *fakeIngestor) IngestOrder(_ context.Context, in ingest.OrderInput) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.orders = append(f.orders, in)
	return fmt.Sprintf("rec-%d", len(f.orders)), nil
}

type fakeDispatcher struct {
	lastInput delivery.DispatchInput
	err       error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, in delivery.DispatchInput) (*delivery.DispatchSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastInput = in
	return &delivery.DispatchSummary{
		CampaignID:   "camp-1",
		MasterLogID:  "master-1",
		AudienceSize: 3,
		LogsCreated:  3,
		StreamBacked: true,
	}, nil
}

func (f *fakeDispatcher) DeliverNow(_ context.Context, in delivery.DispatchInput) (*delivery.SyncSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastInput = in
	return &delivery.SyncSummary{CampaignID: "camp-1", MasterLogID: "master-1", Sent: 2, Failed: 1}, nil
}

type fakeStats struct{ stats delivery.Stats }

func (f *fakeStats) CampaignStats(context.Context, string) (delivery.Stats, error) {
	return f.stats, nil
}

type fakeSegments struct {
	created *domain.Segment
	get     *domain.Segment
	getErr  error
}

func (f *fakeSegments) CreateSegment(_ context.Context, s *domain.Segment) (string, error) {
	f.created = s
	return "seg-1", nil
}

func (f *fakeSegments) GetSegment(context.Context, string) (*domain.Segment, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.get, nil
}

type fakeCounter struct {
	count int
	err   error
}

func (f *fakeCounter) CountAudience(context.Context, []domain.SegmentRule, domain.RuleCondition, bool) (int, error) {
	return f.count, f.err
}

type apiFixture struct {
	ingestor   *fakeIngestor
	dispatcher *fakeDispatcher
	stats      *fakeStats
	segments   *fakeSegments
	counter    *fakeCounter
	handler    http.Handler
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		ingestor:   &fakeIngestor{},
		dispatcher: &fakeDispatcher{},
		stats:      &fakeStats{},
		segments:   &fakeSegments{},
		counter:    &fakeCounter{count: 5},
	}
	h := NewHandlers(f.ingestor, f.dispatcher, f.stats, f.segments, f.counter, nil, nil, nil)
	f.handler = SetupRoutes(h, nil)
	return f
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateCustomerAccepted(t *testing.T) {
	f := setupAPI(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/customers", map[string]any{
		"email": "dana@example.com",
		"name":  "Dana",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, f.ingestor.customers, 1)
	require.Equal(t, "dana@example.com", f.ingestor.customers[0].Email)

	var resp enqueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "queued", resp.Status)
	require.NotEmpty(t, resp.RecordID)
}

func TestCreateCustomerValidationFailure(t *testing.T) {
	f := setupAPI(t)
	f.ingestor.err = fmt.Errorf("email is required: %w", ingest.ErrValidation)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/customers", map[string]any{"name": "Dana"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderAccepted(t *testing.T) {
	f := setupAPI(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/orders", map[string]any{
		"customer_id":  "cust-1",
		"order_amount": 42.5,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, f.ingestor.orders, 1)
}

func TestDispatchCampaign(t *testing.T) {
	f := setupAPI(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/campaigns", map[string]any{
		"segment_id": "seg-1",
		"message":    "Hi {{name}}!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "seg-1", f.dispatcher.lastInput.SegmentID)

	var resp delivery.DispatchSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.StreamBacked)
	require.Equal(t, 3, resp.LogsCreated)
}

func TestDispatchCampaignRequiresSegment(t *testing.T) {
	f := setupAPI(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/campaigns", map[string]any{
		"message": "hello",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchCampaignUnknownSegment(t *testing.T) {
	f := setupAPI(t)
	f.dispatcher.err = fmt.Errorf("segment seg-x: %w", delivery.ErrSegmentNotFound)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/campaigns", map[string]any{
		"segment_id": "seg-x",
		"message":    "hello",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeliverNowReturnsCounts(t *testing.T) {
	f := setupAPI(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/campaigns/deliver-now", map[string]any{
		"segment_id": "seg-1",
		"message":    "hello",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp delivery.SyncSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Sent)
	require.Equal(t, 1, resp.Failed)
}

func TestCampaignStats(t *testing.T) {
	f := setupAPI(t)
	f.stats.stats = delivery.Stats{Queued: 1, Sent: 7, Failed: 2}

	rec := doJSON(t, f.handler, http.MethodGet, "/api/campaigns/camp-1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp campaignStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "camp-1", resp.CampaignID)
	require.Equal(t, 10, resp.Total)
}

func TestCreateSegmentSnapshotsAudience(t *testing.T) {
	f := setupAPI(t)
	f.counter.count = 12

	rec := doJSON(t, f.handler, http.MethodPost, "/api/segments", map[string]any{
		"name": "big spenders",
		"rules": []map[string]any{
			{"field": "total_spend", "operator": ">", "value": 500},
		},
		"condition": "AND",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, f.segments.created)
	require.Equal(t, 12, f.segments.created.AudienceSize)

	var resp domain.Segment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "seg-1", resp.ID)
}

func TestCreateSegmentRejectsEmptyRules(t *testing.T) {
	f := setupAPI(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/segments", map[string]any{
		"name":  "empty",
		"rules": []map[string]any{},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSegmentNotFound(t *testing.T) {
	f := setupAPI(t)
	f.segments.getErr = delivery.ErrSegmentNotFound

	rec := doJSON(t, f.handler, http.MethodGet, "/api/segments/seg-x", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContentEndpointsUnavailableWithoutGenerator(t *testing.T) {
	f := setupAPI(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/content/suggest-message", map[string]any{
		"audience": "lapsed customers",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthWithoutDependencies(t *testing.T) {
	f := setupAPI(t)

	rec := doJSON(t, f.handler, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "healthy", resp.Status)
	require.Equal(t, "not_configured", resp.Checks["database"])
}
