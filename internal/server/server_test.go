package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	aggregationservice "github.com/smallbiznis/provisora/internal/aggregation/service"
	auditrepository "github.com/smallbiznis/provisora/internal/audit/repository"
	auditservice "github.com/smallbiznis/provisora/internal/audit/service"
	"github.com/smallbiznis/provisora/internal/clock"
	"github.com/smallbiznis/provisora/internal/config"
	contractrepository "github.com/smallbiznis/provisora/internal/contract/repository"
	contractservice "github.com/smallbiznis/provisora/internal/contract/service"
	costledgerdomain "github.com/smallbiznis/provisora/internal/costledger/domain"
	costledgerrepository "github.com/smallbiznis/provisora/internal/costledger/repository"
	costledgerservice "github.com/smallbiznis/provisora/internal/costledger/service"
	"github.com/smallbiznis/provisora/internal/export"
	"github.com/smallbiznis/provisora/internal/migration"
	"github.com/smallbiznis/provisora/internal/observability/metrics"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	"github.com/smallbiznis/provisora/internal/provision/lock"
	provisionrepository "github.com/smallbiznis/provisora/internal/provision/repository"
	provisionservice "github.com/smallbiznis/provisora/internal/provision/service"
	"github.com/smallbiznis/provisora/internal/reconciliation"
	"github.com/smallbiznis/provisora/internal/seed"
	workforcerepository "github.com/smallbiznis/provisora/internal/workforce/repository"
	workforceservice "github.com/smallbiznis/provisora/internal/workforce/service"
	"github.com/smallbiznis/provisora/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithSource(t, nil)
}

// newTestServerWithSource serves list and report reads from source when it is
// non-nil, and from the store otherwise.
func newTestServerWithSource(t *testing.T, source provisiondomain.Source) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.Run(conn))
	require.NoError(t, seed.EnsureSampleData(context.Background(), conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	m, err := metrics.NewWithRegisterer(prometheus.NewRegistry())
	require.NoError(t, err)

	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2025, time.August, 15, 12, 0, 0, 0, time.UTC))
	cfg := config.Config{Environment: "test", StoreTimeout: 2 * time.Second}
	holder := config.NewStaticReconciliationConfig(config.DefaultReconciliationConfig())
	engine := reconciliation.NewEngine(holder)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: auditrepository.Provide(),
	})
	contractSvc := contractservice.New(contractservice.Params{
		DB: conn, Log: log, Cfg: cfg, Repo: contractrepository.Provide(),
	})
	workforceSvc := workforceservice.New(workforceservice.Params{
		DB: conn, Log: log, Cfg: cfg, Repo: workforcerepository.Provide(),
	})
	provisionSvc := provisionservice.New(provisionservice.Params{
		DB:        conn,
		Log:       log,
		GenID:     node,
		Clock:     clk,
		Cfg:       cfg,
		Repo:      provisionrepository.Provide(),
		Engine:    engine,
		Locker:    lock.NewKeyedMutex(),
		Contracts: contractSvc,
		Audit:     auditSvc,
		Metrics:   m,
	})
	costSvc := costledgerservice.New(costledgerservice.Params{
		DB:       conn,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Cfg:      cfg,
		Repo:     costledgerrepository.Provide(),
		Validate: costledgerdomain.NewValidator(),
		Audit:    auditSvc,
		Metrics:  m,
	})
	if source == nil {
		source = provisionSvc
	}
	aggregationSvc := aggregationservice.NewService(aggregationservice.Params{
		Log: log, Clock: clk, Source: source, Costs: costSvc, Metrics: m,
	})
	exportSvc := export.NewService(export.Params{
		Log: log, Clock: clk, Source: source, Engine: engine, Cfg: holder, Metrics: m,
	})

	return NewServer(ServerParams{
		Gin:            NewEngine(cfg, log, m, tracenoop.NewTracerProvider()),
		Log:            log,
		Reconciliation: engine,
		ProvisionSvc:   provisionSvc,
		Source:         source,
		AuditSvc:       auditSvc,
		AggregationSvc: aggregationSvc,
		ExportSvc:      exportSvc,
		CostSvc:        costSvc,
		ContractSvc:    contractSvc,
		WorkforceSvc:   workforceSvc,
	})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error errorPayload    `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func dataMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestCreateProvision(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/provisions", map[string]any{
		"contract_id":      "1001",
		"month":            9,
		"year":             2025,
		"predicted_amount": 150000,
		"billed_amount":    "145000",
		"description":      " setembro ",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := dataMap(t, w)
	assert.Equal(t, "Shopping Center Norte", data["contract_name"])
	assert.Equal(t, "setembro", data["description"])
	assert.Equal(t, "aguardando_po", data["status"])
	derived := data["derived"].(map[string]any)
	assert.Equal(t, "96.67", derived["utilization_rate"])
	assert.Equal(t, "good", derived["utilization_tier"])
	assert.Equal(t, "green", derived["tier_color"])

	dup := do(t, s, http.MethodPost, "/api/provisions", map[string]any{
		"contract_id":      1001,
		"month":            9,
		"year":             2025,
		"predicted_amount": 0,
	})
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Equal(t, "duplicate_period", decode(t, dup).Error.Type)
}

func TestCreateProvisionValidation(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/provisions", map[string]any{
		"contract_id":      "1001",
		"month":            10,
		"year":             2025,
		"predicted_amount": "abc",
		"glosas":           "1,5",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	payload := decode(t, w).Error
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 2)
	assert.Equal(t, "predicted_amount", payload.Errors[0].Field)
	assert.Equal(t, "glosas", payload.Errors[1].Field)
	assert.Equal(t, "invalid_amount", payload.Errors[0].Code)

	w = do(t, s, http.MethodPost, "/api/provisions", map[string]any{
		"contract_id":      "1001",
		"month":            10,
		"year":             2025,
		"predicted_amount": -1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "predicted_amount", decode(t, w).Error.Errors[0].Field)

	w = do(t, s, http.MethodPost, "/api/provisions", map[string]any{
		"contract_id": "1001",
		"month":       13,
		"year":        2025,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_period", decode(t, w).Error.Errors[0].Code)

	w = do(t, s, http.MethodPost, "/api/provisions", map[string]any{
		"month": 10,
		"year":  2025,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "contract_id", decode(t, w).Error.Errors[0].Field)
}

func TestUpdateProvisionKeepsReceivedInvariant(t *testing.T) {
	s := newTestServer(t)

	// July record of Shopping Center Norte has 92000 received.
	w := do(t, s, http.MethodPatch, "/api/provisions/3002", map[string]any{"status": "aguardando_sla"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "inconsistent_state", decode(t, w).Error.Type)

	w = do(t, s, http.MethodPatch, "/api/provisions/3003", map[string]any{"status": "nf_emitida"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_transition", decode(t, w).Error.Type)

	w = do(t, s, http.MethodPatch, "/api/provisions/3003", map[string]any{
		"billed_amount": 148000,
		"status":        "nf_emitida",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, w)
	assert.Equal(t, "nf_emitida", data["status"])
	assert.EqualValues(t, 2, data["revision"])

	audit := do(t, s, http.MethodGet, "/api/provisions/3003/audit", nil)
	require.Equal(t, http.StatusOK, audit.Code)
	entries := dataMap(t, audit)["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "update", entries[0].(map[string]any)["action"])
}

func TestGetProvisionNotFound(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/provisions/999", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/provisions/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/unknown", nil).Code)
}

func TestGetProvisionByPeriod(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/periods/1002/2025/7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hospital Central", dataMap(t, w)["contract_name"])

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/periods/1002/2025/1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/periods/1002/2025/0", nil).Code)
}

func TestListProvisionsFilters(t *testing.T) {
	s := newTestServer(t)

	count := func(path string) int {
		w := do(t, s, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var rows []map[string]any
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &rows))
		return len(rows)
	}

	assert.Equal(t, 9, count("/api/provisions?contract_id=all&month=all&status=all"))
	assert.Equal(t, 3, count("/api/provisions?month=7&year=2025"))
	assert.Equal(t, 3, count("/api/provisions?contract_id=1003"))
	assert.Equal(t, 4, count("/api/provisions?status=nf_emitida"))
	assert.Equal(t, 3, count("/api/provisions?search=hospital"))

	w := do(t, s, http.MethodGet, "/api/provisions?status=paid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodGet, "/api/provisions?month=july", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndReportsShareSource(t *testing.T) {
	s := newTestServerWithSource(t, seed.EmptySource{})

	w := do(t, s, http.MethodGet, "/api/provisions", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &rows))
	assert.Empty(t, rows)

	w = do(t, s, http.MethodGet, "/api/reports/aggregates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), dataMap(t, w)["record_count"])

	// point reads and writes stay on the store
	w = do(t, s, http.MethodGet, "/api/provisions/3002", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReports(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/reports/aggregates?year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := dataMap(t, w)
	assert.Equal(t, "900000", summary["total_predicted"])
	assert.Len(t, summary["status_distribution"], 4)

	w = do(t, s, http.MethodGet, "/api/reports/variance?month=6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	variance := dataMap(t, w)
	assert.Len(t, variance["per_contract"], 3)
	// (298000 - 300000) / 300000 * 100
	assert.Equal(t, "-0.67", variance["grand_total"].(map[string]any)["variance_percent"])

	w = do(t, s, http.MethodGet, "/api/reports/monthly?year=2024", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataMap(t, w)["points"], 12)

	w = do(t, s, http.MethodGet, "/api/reports/deductions?contract_id=1001&month=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7500", dataMap(t, w)["total_indirect_costs"])

	w = do(t, s, http.MethodGet, "/api/reports/cost-breakdown?month=7&year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataMap(t, w)["categories"], len(costledgerdomain.Categories))
}

func TestExport(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/reports/export?format=csv&year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "Shopping Center Norte")

	w = do(t, s, http.MethodGet, "/api/reports/export?format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCostEntries(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/cost-entries", map[string]any{
		"date":        "2025-08-05",
		"category":    "insumos",
		"contract_id": "1001",
		"value":       "1234.56",
		"supplier":    "Distribuidora Alfa",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := dataMap(t, w)
	assert.Equal(t, "pendente", created["status"])
	id := created["id"].(string)

	path := "/api/cost-entries/" + id + "/status"
	w = do(t, s, http.MethodPatch, path, map[string]any{"status": "pago"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	for _, status := range []string{"aprovado", "pago"} {
		w = do(t, s, http.MethodPatch, path, map[string]any{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, status, dataMap(t, w)["status"])
	}

	w = do(t, s, http.MethodPatch, path, map[string]any{"status": "pendente"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, s, http.MethodPost, "/api/cost-entries", map[string]any{
		"date":        "2025-08-05",
		"category":    "lazer",
		"contract_id": "1001",
		"value":       "10",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "category", decode(t, w).Error.Errors[0].Field)

	w = do(t, s, http.MethodGet, "/api/cost-entries?contract_id=1003", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataMap(t, w)["entries"], 3)
}

func TestContracts(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/contracts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var contracts []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &contracts))
	assert.Len(t, contracts, 4)

	w = do(t, s, http.MethodGet, "/api/contracts/1002/fringe", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, dataMap(t, w)["headcount"])

	w = do(t, s, http.MethodGet, "/api/contracts/1002/employees", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var employees []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &employees))
	assert.Len(t, employees, 2)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/contracts/42/fringe", nil).Code)
}

func TestStoreUnavailableMapsToServiceUnavailable(t *testing.T) {
	for _, sentinel := range []error{provisiondomain.ErrStoreUnavailable, costledgerdomain.ErrStoreUnavailable} {
		status, payload := mapError(fmt.Errorf("%w: context deadline exceeded", sentinel))
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "service_unavailable", payload.Type)
	}
}
