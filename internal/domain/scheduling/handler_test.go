package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/token"
)

type fakeCreds struct {
	patients map[string]uuid.UUID
	doctors  map[string]uuid.UUID
}

func (f *fakeCreds) ResolveAdmin(_ context.Context, _ string) (uuid.UUID, error) {
	return uuid.Nil, auth.ErrPrincipalNotFound
}

func (f *fakeCreds) ResolveDoctor(_ context.Context, email string) (uuid.UUID, error) {
	if id, ok := f.doctors[email]; ok {
		return id, nil
	}
	return uuid.Nil, auth.ErrPrincipalNotFound
}

func (f *fakeCreds) ResolvePatient(_ context.Context, email string) (uuid.UUID, error) {
	if id, ok := f.patients[email]; ok {
		return id, nil
	}
	return uuid.Nil, auth.ErrPrincipalNotFound
}

func testServer(t *testing.T) (*echo.Echo, *Service, *mockRepo, uuid.UUID, uuid.UUID, string) {
	t.Helper()
	authority, err := token.NewAuthority([]byte("handler-test-secret-key-material"))
	if err != nil {
		t.Fatal(err)
	}
	patientID := uuid.New()
	creds := &fakeCreds{
		patients: map[string]uuid.UUID{"pat@clinic.test": patientID},
		doctors:  map[string]uuid.UUID{},
	}
	guard := auth.NewGuard(authority, creds)

	repo := newMockRepo()
	doctorID := uuid.New()
	dir := &mockDirectory{templates: map[uuid.UUID][]string{
		doctorID: {"09:00", "09:30", "10:00"},
	}}
	svc := newTestService(repo, dir)

	e := echo.New()
	NewHandler(svc, guard).RegisterRoutes(e.Group("/api"))

	tok, err := authority.Issue("pat@clinic.test")
	if err != nil {
		t.Fatal(err)
	}
	return e, svc, repo, doctorID, patientID, tok
}

func doJSON(e *echo.Echo, method, path, bearer, body string) *httptest.ResponseRecorder {
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAvailabilityRouteDeclaredRole(t *testing.T) {
	e, _, _, doctorID, _, tok := testServer(t)

	rec := doJSON(e, http.MethodGet, "/api/patient/doctors/"+doctorID.String()+"/availability?date=2026-09-01", tok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Slots []string `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Slots) != 3 {
		t.Fatalf("slots = %v, want full template", resp.Slots)
	}

	// The token belongs to a patient, so declaring the doctor role fails.
	rec = doJSON(e, http.MethodGet, "/api/doctor/doctors/"+doctorID.String()+"/availability", tok, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("cross-role declaration: status = %d, want 401", rec.Code)
	}

	// An undeclared role name is a bad request.
	rec = doJSON(e, http.MethodGet, "/api/nurse/doctors/"+doctorID.String()+"/availability", tok, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown role: status = %d, want 400", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/patient/doctors/"+doctorID.String()+"/availability", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", rec.Code)
	}
}

func TestBookRouteStatusMapping(t *testing.T) {
	e, _, _, doctorID, _, tok := testServer(t)

	body := `{"doctor_id":"` + doctorID.String() + `","start_time":"2026-09-01T09:30:00Z"}`
	rec := doJSON(e, http.MethodPost, "/api/patient/appointments", tok, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("book: status = %d body = %s", rec.Code, rec.Body.String())
	}

	// Same slot again is a conflict.
	rec = doJSON(e, http.MethodPost, "/api/patient/appointments", tok, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("double book: status = %d, want 409", rec.Code)
	}

	// Past time is invalid input.
	past := `{"doctor_id":"` + doctorID.String() + `","start_time":"2020-01-01T09:00:00Z"}`
	rec = doJSON(e, http.MethodPost, "/api/patient/appointments", tok, past)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("past booking: status = %d, want 400", rec.Code)
	}

	// Unknown doctor is not found.
	missing := `{"doctor_id":"` + uuid.NewString() + `","start_time":"2026-09-01T09:00:00Z"}`
	rec = doJSON(e, http.MethodPost, "/api/patient/appointments", tok, missing)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown doctor: status = %d, want 404", rec.Code)
	}
}

func TestCancelRouteOwnership(t *testing.T) {
	e, svc, _, doctorID, patientID, tok := testServer(t)

	other, err := svc.Book(context.Background(), uuid.New(), doctorID, slotTime(t, "09:00"))
	if err != nil {
		t.Fatal(err)
	}
	mine, err := svc.Book(context.Background(), patientID, doctorID, slotTime(t, "10:00"))
	if err != nil {
		t.Fatal(err)
	}

	rec := doJSON(e, http.MethodDelete, "/api/patient/appointments/"+other.ID.String(), tok, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign cancel: status = %d, want 403", rec.Code)
	}

	rec = doJSON(e, http.MethodDelete, "/api/patient/appointments/"+mine.ID.String(), tok, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("own cancel: status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodDelete, "/api/patient/appointments/"+mine.ID.String(), tok, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second cancel: status = %d, want 409", rec.Code)
	}
}
