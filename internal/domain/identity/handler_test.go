package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/token"
)

func testAPI(t *testing.T) (*echo.Echo, *token.Authority, *mockAdminRepo, *mockDoctorRepo, *mockPatientRepo) {
	t.Helper()
	authority, err := token.NewAuthority([]byte("identity-handler-test-secret-key"))
	if err != nil {
		t.Fatal(err)
	}
	admins := &mockAdminRepo{byUsername: map[string]*Admin{}}
	doctors := newMockDoctorRepo()
	patients := newMockPatientRepo()
	svc := NewService(admins, doctors, patients, authority, &mockPurger{}, nil)
	guard := auth.NewGuard(authority, NewCredentialStore(admins, doctors, patients))

	e := echo.New()
	NewHandler(svc, guard).RegisterRoutes(e.Group("/api"))
	return e, authority, admins, doctors, patients
}

func postJSON(e *echo.Echo, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoginRoute(t *testing.T) {
	e, _, admins, _, _ := testAPI(t)
	admins.byUsername["root"] = &Admin{ID: uuid.New(), Username: "root", PasswordHash: mustHash(t, "correct-horse")}

	rec := postJSON(e, "/api/admin/login", "", `{"username":"root","password":"correct-horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"token"`) {
		t.Fatalf("login body = %s, want token", rec.Body.String())
	}

	rec = postJSON(e, "/api/admin/login", "", `{"username":"root","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status = %d, want 401", rec.Code)
	}
}

func TestRegisterRouteDuplicateConflict(t *testing.T) {
	e, _, _, _, _ := testAPI(t)

	body := `{"name":"Ada","email":"ada@clinic.test","password":"longenough"}`
	rec := postJSON(e, "/api/patient/register", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d body = %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks password material: %s", rec.Body.String())
	}

	rec = postJSON(e, "/api/patient/register", "", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d, want 409", rec.Code)
	}
}

func TestDoctorAdminRouteRequiresAdminToken(t *testing.T) {
	e, authority, admins, _, patients := testAPI(t)
	admins.byUsername["root"] = &Admin{ID: uuid.New(), Username: "root", PasswordHash: mustHash(t, "correct-horse")}
	p := &Patient{Email: "pat@clinic.test", PasswordHash: mustHash(t, "waiting-room")}
	if err := patients.Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	body := `{"name":"Dr. Grey","specialty":"Cardiology","email":"grey@clinic.test","password":"cardiogram","availability":["09:00","09:30"]}`

	rec := postJSON(e, "/api/admin/doctors", "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	// A patient token is not an admin token.
	patientTok, err := authority.Issue("pat@clinic.test")
	if err != nil {
		t.Fatal(err)
	}
	rec = postJSON(e, "/api/admin/doctors", patientTok, body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("patient token: status = %d, want 401", rec.Code)
	}

	adminTok, err := authority.Issue("root")
	if err != nil {
		t.Fatal(err)
	}
	rec = postJSON(e, "/api/admin/doctors", adminTok, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin token: status = %d body = %s", rec.Code, rec.Body.String())
	}
}
