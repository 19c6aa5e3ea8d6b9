package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rollbook/internal/attendance"
	"rollbook/internal/model"
	"rollbook/internal/queue"
	"rollbook/internal/roster"
	"rollbook/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router *gin.Engine
	store  *store.Memory
	events *queue.InMemory
}

func newTestAPI(t *testing.T, checks map[string]Check) *testAPI {
	t.Helper()
	st := store.NewMemory()
	events := queue.NewInMemory(256)
	h := New(Deps{
		Roster:  roster.NewService(st, roster.NewLocalLocker(), zap.NewNop()),
		Query:   roster.NewQuery(st),
		Tracker: attendance.NewService(st, zap.NewNop()),
		Events:  events,
		Checks:  checks,
		Log:     zap.NewNop(),
	})
	r := gin.New()
	h.Register(r)
	return &testAPI{router: r, store: st, events: events}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testAPI) seed(t *testing.T) (model.Department, model.Class) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/public/departments/add", gin.H{"name": "CS"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	d := decode[model.Department](t, w)

	w = a.do(t, http.MethodPost, "/api/public/classes/add", gin.H{"name": "Year1", "departmentId": d.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return d, decode[model.Class](t, w)
}

func TestAddStudent_EleventhIsRejected(t *testing.T) {
	api := newTestAPI(t, nil)
	d, c := api.seed(t)

	for i := 1; i <= 10; i++ {
		w := api.do(t, http.MethodPost, "/api/public/students/add",
			gin.H{"name": fmt.Sprintf("Student %d", i), "departmentId": d.ID, "classId": c.ID})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := api.do(t, http.MethodPost, "/api/public/students/add",
		gin.H{"name": "Student 11", "departmentId": d.ID, "classId": c.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Class full (Max 10)","code":"capacity"}`, w.Body.String())
}

func TestAddStudent_WireShape(t *testing.T) {
	api := newTestAPI(t, nil)
	d, c := api.seed(t)

	w := api.do(t, http.MethodPost, "/api/public/students/add",
		gin.H{"name": "Ali", "departmentId": d.ID, "classId": c.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode[map[string]any](t, w)
	assert.NotEmpty(t, body["_id"])
	assert.Equal(t, "Ali", body["name"])
	assert.Equal(t, d.ID, body["department"])
	assert.Equal(t, c.ID, body["className"])
	assert.Equal(t, "Absent", body["status"])
	assert.NotEmpty(t, body["lastUpdated"])
}

func TestAddStudent_HierarchyErrors(t *testing.T) {
	api := newTestAPI(t, nil)
	_, c := api.seed(t)
	w := api.do(t, http.MethodPost, "/api/public/departments/add", gin.H{"name": "Arts"})
	arts := decode[model.Department](t, w)

	w = api.do(t, http.MethodPost, "/api/public/students/add",
		gin.H{"name": "Ali", "departmentId": arts.ID, "classId": c.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "mismatch", decode[map[string]string](t, w)["code"])

	w = api.do(t, http.MethodPost, "/api/public/classes/add", gin.H{"name": "Y2", "departmentId": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Department not found","code":"not_found"}`, w.Body.String())
}

func TestAddDepartment_Validation(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodPost, "/api/public/departments/add", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode[map[string]string](t, w)["code"])

	req := httptest.NewRequest(http.MethodPost, "/api/public/departments/add", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode[map[string]string](t, rec)["message"])
}

func TestDeletes_AcknowledgeAndDoNotCascade(t *testing.T) {
	api := newTestAPI(t, nil)
	d, c := api.seed(t)
	w := api.do(t, http.MethodPost, "/api/public/students/add",
		gin.H{"name": "Ali", "departmentId": d.ID, "classId": c.ID})
	st := decode[model.Student](t, w)

	w = api.do(t, http.MethodDelete, "/api/public/departments/delete/"+d.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Dept deleted"}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/public/departments/"+d.ID+"/classes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Class](t, w), 1)

	w = api.do(t, http.MethodDelete, "/api/public/classes/delete/"+c.ID, nil)
	assert.JSONEq(t, `{"message":"Class deleted. Dept is safe!"}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/public/all-data", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap struct {
		Departments []model.Department `json:"departments"`
		Classes     []model.Class      `json:"classes"`
		Students    []map[string]any   `json:"students"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Empty(t, snap.Departments)
	assert.Empty(t, snap.Classes)
	require.Len(t, snap.Students, 1)
	assert.Nil(t, snap.Students[0]["department"])
	assert.Nil(t, snap.Students[0]["className"])

	w = api.do(t, http.MethodDelete, "/api/public/students/delete/"+st.ID, nil)
	assert.JSONEq(t, `{"message":"Student deleted"}`, w.Body.String())
}

func TestEdit(t *testing.T) {
	api := newTestAPI(t, nil)
	d, c := api.seed(t)

	w := api.do(t, http.MethodPatch, "/api/public/classes/edit/"+c.ID, gin.H{"name": "Year One"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Class](t, w)
	assert.Equal(t, "Year One", got.Name)
	assert.Equal(t, d.ID, got.DepartmentID)

	w = api.do(t, http.MethodPatch, "/api/public/departments/edit/"+d.ID, gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPatch, "/api/public/departments/edit/missing", gin.H{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendance_MarkPatchSummary(t *testing.T) {
	api := newTestAPI(t, nil)
	d, c := api.seed(t)
	w := api.do(t, http.MethodPost, "/api/public/students/add",
		gin.H{"name": "Ali", "departmentId": d.ID, "classId": c.ID})
	st := decode[model.Student](t, w)

	w = api.do(t, http.MethodPost, "/api/public/students/mark/"+st.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StatusLate, decode[model.Student](t, w).Status)

	w = api.do(t, http.MethodPatch, "/api/public/students/attendance/"+st.ID, gin.H{"status": "Present"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StatusPresent, decode[model.Student](t, w).Status)

	w = api.do(t, http.MethodPatch, "/api/public/students/attendance/"+st.ID, gin.H{"status": "Sick"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"status must be one of Present, Absent, Late","code":"validation"}`, w.Body.String())

	w = api.do(t, http.MethodPatch, "/api/public/students/attendance/"+st.ID, gin.H{"name": "Ali Khan"})
	require.Equal(t, http.StatusOK, w.Code)
	patched := decode[model.Student](t, w)
	assert.Equal(t, "Ali Khan", patched.Name)
	assert.Equal(t, model.StatusPresent, patched.Status)

	api.store.PutStudent(model.Student{Name: "legacy", DepartmentID: d.ID, ClassID: c.ID})

	w = api.do(t, http.MethodGet, "/api/public/classes/"+c.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.Summary{ClassID: c.ID, Present: 2, Total: 2}, decode[model.Summary](t, w))

	w = api.do(t, http.MethodPost, "/api/public/students/mark/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Student not found","code":"not_found"}`, w.Body.String())
}

func TestEventsArePublished(t *testing.T) {
	api := newTestAPI(t, nil)
	d, c := api.seed(t)
	w := api.do(t, http.MethodPost, "/api/public/students/add",
		gin.H{"name": "Ali", "departmentId": d.ID, "classId": c.ID})
	st := decode[model.Student](t, w)
	api.do(t, http.MethodPost, "/api/public/students/mark/"+st.ID, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msgs, err := api.events.Consume(ctx)
	require.NoError(t, err)

	var types []string
	for i := 0; i < 4; i++ {
		types = append(types, (<-msgs).Type)
	}
	assert.Equal(t, []string{queue.DepartmentCreated, queue.ClassCreated, queue.StudentAdmitted, queue.AttendanceMarked}, types)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, map[string]Check{
		"store": func(context.Context) error { return nil },
	})
	w := api.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"store":true}}`, w.Body.String())

	api = newTestAPI(t, map[string]Check{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	})
	w = api.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"store":true,"redis":false}}`, w.Body.String())
}
