package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bkante/entrepot/internal/domain/models"
	"github.com/bkante/entrepot/internal/repository"
	"github.com/bkante/entrepot/internal/server/handlers"
	"github.com/bkante/entrepot/internal/service/workflow"
)

const testLabel = "Tomato Sauce;12.50;2026-11-30;LOT-42;24;PAL-001"

type memStore struct {
	records []models.PalletRecord
	nextID  int64
}

func (m *memStore) FindByPalletID(_ context.Context, palletID string) (models.PalletRecord, bool, error) {
	for _, rec := range m.records {
		if rec.PalletID == palletID {
			return rec, true, nil
		}
	}
	return models.PalletRecord{}, false, nil
}

func (m *memStore) FindByLot(_ context.Context, lotID string) ([]models.PalletRecord, error) {
	var out []models.PalletRecord
	for _, rec := range m.records {
		if rec.LotID == lotID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) FindByLocation(_ context.Context, location string) (string, bool, error) {
	for _, rec := range m.records {
		if rec.LocationID != "" && rec.LocationID == location {
			return rec.PalletID, true, nil
		}
	}
	return "", false, nil
}

func (m *memStore) Insert(_ context.Context, rec models.PalletRecord) (int64, error) {
	for _, existing := range m.records {
		if existing.PalletID == rec.PalletID {
			return 0, repository.ErrDuplicatePallet
		}
	}
	m.nextID++
	rec.ID = m.nextID
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *memStore) UpdateLocation(_ context.Context, palletID, location string, ts time.Time) error {
	for i := range m.records {
		if m.records[i].PalletID == palletID {
			m.records[i].LocationID = location
			m.records[i].LastUpdate = ts
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore) Delete(_ context.Context, palletID string) error {
	for i := range m.records {
		if m.records[i].PalletID == palletID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore) Search(_ context.Context, query string, by models.SearchField) ([]models.PalletRecord, error) {
	var out []models.PalletRecord
	for _, rec := range m.records {
		field := rec.LotID
		if by == models.SearchByProduct {
			field = rec.ProductName
		}
		if strings.Contains(field, query) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) All(context.Context) ([]models.PalletRecord, error) {
	return append([]models.PalletRecord(nil), m.records...), nil
}

func (m *memStore) Close(context.Context) error { return nil }

type memAudit struct {
	entries []models.AuditEntry
}

func (m *memAudit) Append(_ context.Context, entry models.AuditEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memStore, *memAudit) {
	t.Helper()
	store := &memStore{}
	auditLog := &memAudit{}
	svc := workflow.NewService(store, auditLog, handlers.RequestScanner{}, handlers.RequestDecider{}, zap.NewNop())
	handler := handlers.NewWorkflowHandler(svc, zap.NewNop())
	return New(handler, zap.NewNop()), store, auditLog
}

func do(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var decoded map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
	}
	return w, decoded
}

func TestAddFlowOverHTTP(t *testing.T) {
	engine, store, auditLog := newTestRouter(t)

	w, resp := do(t, engine, http.MethodPost, "/api/v1/workflow/product-scan",
		`{"code":"`+testLabel+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("product-scan status = %d, body %s", w.Code, w.Body.String())
	}
	if resp["status"] != "awaiting_location_new" {
		t.Fatalf("status = %v, want awaiting_location_new", resp["status"])
	}
	if resp["state"] != "WAITING_LOCATION_NEW" {
		t.Fatalf("state = %v, want WAITING_LOCATION_NEW", resp["state"])
	}

	w, resp = do(t, engine, http.MethodPost, "/api/v1/workflow/location-scan",
		`{"code":"A.12"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("location-scan status = %d, body %s", w.Code, w.Body.String())
	}
	if resp["status"] != "added" {
		t.Fatalf("status = %v, want added", resp["status"])
	}
	record, ok := resp["record"].(map[string]any)
	if !ok {
		t.Fatalf("record missing in response: %v", resp)
	}
	if record["location_id"] != "A12" {
		t.Errorf("record location = %v, want A12", record["location_id"])
	}

	if len(store.records) != 1 || len(auditLog.entries) != 1 {
		t.Errorf("store=%d audit=%d, want 1 and 1", len(store.records), len(auditLog.entries))
	}
}

func TestStateConflictOverHTTP(t *testing.T) {
	engine, _, _ := newTestRouter(t)

	w, resp := do(t, engine, http.MethodPost, "/api/v1/workflow/location-scan", `{"code":"A12"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if resp["kind"] != "state_conflict" {
		t.Errorf("kind = %v, want state_conflict", resp["kind"])
	}
}

func TestEmptyScanOverHTTP(t *testing.T) {
	engine, _, _ := newTestRouter(t)

	w, resp := do(t, engine, http.MethodPost, "/api/v1/workflow/product-scan", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	if resp["kind"] != "scan_empty" {
		t.Errorf("kind = %v, want scan_empty", resp["kind"])
	}
}

func TestOccupiedLocationOverHTTP(t *testing.T) {
	engine, store, _ := newTestRouter(t)
	store.records = append(store.records, models.PalletRecord{
		ID: 1, PalletID: "PAL-009", LotID: "LOT-9", LocationID: "A12",
	})

	if w, _ := do(t, engine, http.MethodPost, "/api/v1/workflow/product-scan",
		`{"code":"`+testLabel+`"}`); w.Code != http.StatusOK {
		t.Fatalf("product-scan status = %d", w.Code)
	}

	w, resp := do(t, engine, http.MethodPost, "/api/v1/workflow/location-scan", `{"code":"A12"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if resp["kind"] != "location_occupied" || resp["occupied_by"] != "PAL-009" {
		t.Errorf("response = %v, want location_occupied by PAL-009", resp)
	}
	if resp["retryable"] != true {
		t.Errorf("retryable = %v, want true", resp["retryable"])
	}

	// The session survives, so a free slot still completes the add.
	w, resp = do(t, engine, http.MethodPost, "/api/v1/workflow/location-scan", `{"code":"B03"}`)
	if w.Code != http.StatusOK || resp["status"] != "added" {
		t.Fatalf("retry status = %d %v, want 200 added", w.Code, resp["status"])
	}
}

func TestDeleteFlowOverHTTP(t *testing.T) {
	engine, store, auditLog := newTestRouter(t)
	store.records = append(store.records, models.PalletRecord{
		ID: 1, PalletID: "PAL-001", ProductName: "Tomato Sauce", LotID: "LOT-42", LocationID: "A12",
	})

	w, resp := do(t, engine, http.MethodPost, "/api/v1/workflow/delete", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if resp["state"] != "WAITING_PALETTE_DELETE" {
		t.Fatalf("state = %v, want WAITING_PALETTE_DELETE", resp["state"])
	}

	// Without the confirm flag the delete is declined.
	w, resp = do(t, engine, http.MethodPost, "/api/v1/workflow/delete-scan",
		`{"code":"`+testLabel+`"}`)
	if w.Code != http.StatusOK || resp["status"] != "aborted" {
		t.Fatalf("unconfirmed delete = %d %v, want 200 aborted", w.Code, resp["status"])
	}
	if len(store.records) != 1 {
		t.Fatal("unconfirmed delete must not remove the record")
	}

	if w, _ := do(t, engine, http.MethodPost, "/api/v1/workflow/delete", ""); w.Code != http.StatusOK {
		t.Fatalf("re-arm delete status = %d", w.Code)
	}
	w, resp = do(t, engine, http.MethodPost, "/api/v1/workflow/delete-scan",
		`{"code":"`+testLabel+`","confirm":true}`)
	if w.Code != http.StatusOK || resp["status"] != "deleted" {
		t.Fatalf("confirmed delete = %d %v, want 200 deleted", w.Code, resp["status"])
	}
	if len(store.records) != 0 {
		t.Error("record still present after confirmed delete")
	}
	if len(auditLog.entries) != 1 || auditLog.entries[0].Action != models.ActionDelete {
		t.Errorf("audit entries = %+v, want one DELETE", auditLog.entries)
	}
}

func TestSearchAndListOverHTTP(t *testing.T) {
	engine, store, _ := newTestRouter(t)
	store.records = append(store.records,
		models.PalletRecord{ID: 1, PalletID: "PAL-001", ProductName: "Tomato Sauce", LotID: "LOT-42"},
		models.PalletRecord{ID: 2, PalletID: "PAL-002", ProductName: "Olive Oil", LotID: "LOT-99"},
	)

	w, resp := do(t, engine, http.MethodGet, "/api/v1/inventory/search?q=Olive&by=product_name", "")
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	if resp["count"] != float64(1) {
		t.Errorf("count = %v, want 1", resp["count"])
	}

	w, resp = do(t, engine, http.MethodGet, "/api/v1/inventory/search", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("search without query status = %d, want 400", w.Code)
	}

	w, resp = do(t, engine, http.MethodGet, "/api/v1/inventory", "")
	if w.Code != http.StatusOK || resp["count"] != float64(2) {
		t.Fatalf("list = %d %v, want 200 count 2", w.Code, resp["count"])
	}
}

func TestResetAndStateOverHTTP(t *testing.T) {
	engine, _, _ := newTestRouter(t)

	if w, _ := do(t, engine, http.MethodPost, "/api/v1/workflow/product-scan",
		`{"code":"`+testLabel+`"}`); w.Code != http.StatusOK {
		t.Fatalf("product-scan status = %d", w.Code)
	}

	w, resp := do(t, engine, http.MethodPost, "/api/v1/workflow/reset", "")
	if w.Code != http.StatusOK || resp["state"] != "IDLE" {
		t.Fatalf("reset = %d %v, want 200 IDLE", w.Code, resp["state"])
	}

	w, resp = do(t, engine, http.MethodGet, "/api/v1/workflow/state", "")
	if w.Code != http.StatusOK || resp["state"] != "IDLE" {
		t.Fatalf("state = %d %v, want 200 IDLE", w.Code, resp["state"])
	}
}
