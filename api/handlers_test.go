package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"air_quality_api/airquality"
	"air_quality_api/auth"
	"air_quality_api/config"
	"air_quality_api/models"
	"air_quality_api/users"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testCSV = "Date;Time;CO(GT);PT08.S1(CO);NMHC(GT);C6H6(GT);PT08.S2(NMHC);NOx(GT);PT08.S3(NOx);NO2(GT);PT08.S4(NO2);PT08.S5(O3);T;RH;AH\n" +
	"10/03/2004;18.00.00;2,6;1360;150;11,9;1046;166;1056;113;1692;1268;13,6;48,9;0,7758\n"

type testEnv struct {
	router http.Handler
	jwt    *auth.JWTManager
	users  *users.Service
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(models.GetAllModels()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "handler-test-secret", TokenTTL: 60},
	}
	jwtManager, err := auth.NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("failed to create JWT manager: %v", err)
	}

	usersService := users.NewService(db, bcrypt.MinCost)
	authService := auth.NewService(usersService, jwtManager)
	handler := NewHandler(usersService, authService,
		airquality.NewImporter(db), airquality.NewService(db), t.TempDir())
	router := NewRouter(handler, auth.NewMiddleware(jwtManager))

	return &testEnv{router: router.Setup(), jwt: jwtManager, users: usersService, db: db}
}

// adminToken creates an admin user and returns a token for it.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	user, err := e.users.Create(users.CreateParams{
		Email:    "admin@example.com",
		Password: "secret1",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("failed to create admin user: %v", err)
	}

	token, err := e.jwt.GenerateToken(user.ID, user.Role)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// csvUpload builds a multipart body with one CSV file part.
func csvUpload(t *testing.T, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="data.csv"`)
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write multipart part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	return &buf, w.FormDataContentType()
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	// Register
	body, _ := json.Marshal(users.CreateParams{Email: "user@example.com", Password: "secret1", Role: models.RoleUser})
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
	if w := env.do(t, req); w.Code != http.StatusCreated {
		t.Fatalf("create user status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body)
	}

	// Login
	body, _ = json.Marshal(map[string]string{"email": "user@example.com", "password": "secret1"})
	w := env.do(t, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d: %s", w.Code, http.StatusOK, w.Body)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if resp["access_token"] == "" {
		t.Error("login response missing access_token")
	}

	// Wrong password
	body, _ = json.Marshal(map[string]string{"email": "user@example.com", "password": "wrong-1"})
	w = env.do(t, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUserRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/users", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated list status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	user, err := env.users.Create(users.CreateParams{Email: "plain@example.com", Password: "secret1", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	userToken, _ := env.jwt.GenerateToken(user.ID, user.Role)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	if w := env.do(t, req); w.Code != http.StatusForbidden {
		t.Errorf("non-admin list status = %d, want %d", w.Code, http.StatusForbidden)
	}

	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+env.adminToken(t))
	if w := env.do(t, req); w.Code != http.StatusOK {
		t.Errorf("admin list status = %d, want %d: %s", w.Code, http.StatusOK, w.Body)
	}
}

func TestUploadAndQuery(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	body, contentType := csvUpload(t, "text/csv", testCSV)
	req := httptest.NewRequest(http.MethodPost, "/air-quality/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	w := env.do(t, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body)
	}

	var summary airquality.Summary
	if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if len(summary.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(summary.Records))
	}

	// Query it back
	w = env.do(t, httptest.NewRequest(http.MethodGet,
		"/air-quality/data?startDate=2004-03-10&endDate=2004-03-10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("query status = %d, want %d: %s", w.Code, http.StatusOK, w.Body)
	}

	var data []models.AirQualityData
	if err := json.NewDecoder(w.Body).Decode(&data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if len(data) != 1 {
		t.Fatalf("len(data) = %d, want 1", len(data))
	}
	if data[0].CoGt == nil || *data[0].CoGt != 2.6 {
		t.Errorf("CoGt = %v, want 2.6", data[0].CoGt)
	}

	// Filtered query excluding the record
	w = env.do(t, httptest.NewRequest(http.MethodGet,
		"/air-quality/data?startDate=2004-03-10&endDate=2004-03-10&filters=co_gt:gt:3.0", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("filtered query status = %d, want %d", w.Code, http.StatusOK)
	}
	data = nil
	if err := json.NewDecoder(w.Body).Decode(&data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("len(data) = %d, want 0 with co_gt:gt:3.0", len(data))
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := csvUpload(t, "text/csv", testCSV)
	req := httptest.NewRequest(http.MethodPost, "/air-quality/upload", body)
	req.Header.Set("Content-Type", contentType)

	if w := env.do(t, req); w.Code != http.StatusUnauthorized {
		t.Errorf("upload status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUploadRejectsNonCSV(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	body, contentType := csvUpload(t, "application/json", `{"not": "csv"}`)
	req := httptest.NewRequest(http.MethodPost, "/air-quality/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	w := env.do(t, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("upload status = %d, want %d: %s", w.Code, http.StatusBadRequest, w.Body)
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	body, contentType := csvUpload(t, "text/csv", "")
	req := httptest.NewRequest(http.MethodPost, "/air-quality/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	w := env.do(t, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("upload status = %d, want %d: %s", w.Code, http.StatusBadRequest, w.Body)
	}
}

func TestUploadRejectsMissingColumns(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	bad := "Date;Time;CO(GT)\n10/03/2004;18.00.00;2,6\n"
	body, contentType := csvUpload(t, "text/csv", bad)
	req := httptest.NewRequest(http.MethodPost, "/air-quality/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	w := env.do(t, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("upload status = %d, want %d: %s", w.Code, http.StatusBadRequest, w.Body)
	}

	var count int64
	env.db.Model(&models.AirQualityData{}).Count(&count)
	if count != 0 {
		t.Errorf("record count = %d, want 0 after rejected upload", count)
	}
}

func TestDataRequiresDateRange(t *testing.T) {
	env := newTestEnv(t)

	for _, url := range []string{
		"/air-quality/data",
		"/air-quality/data?startDate=2004-03-10",
		"/air-quality/data?endDate=2004-03-10",
	} {
		if w := env.do(t, httptest.NewRequest(http.MethodGet, url, nil)); w.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want %d", url, w.Code, http.StatusBadRequest)
		}
	}
}

func TestDataRejectsBadFilters(t *testing.T) {
	env := newTestEnv(t)

	url := "/air-quality/data?startDate=2004-03-10&endDate=2004-03-10&filters=bogus:gte:1"
	if w := env.do(t, httptest.NewRequest(http.MethodGet, url, nil)); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUpdateAndDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	target, err := env.users.Create(users.CreateParams{Email: "target@example.com", Password: "secret1", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"role": models.RoleAdmin})
	req := httptest.NewRequest(http.MethodPut, "/users/"+target.ID, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := env.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d: %s", w.Code, http.StatusOK, w.Body)
	}

	var updated models.User
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode user: %v", err)
	}
	if updated.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want %q", updated.Role, models.RoleAdmin)
	}

	req = httptest.NewRequest(http.MethodDelete, "/users/"+target.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := env.do(t, req); w.Code != http.StatusOK {
		t.Errorf("delete status = %d, want %d", w.Code, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodDelete, "/users/"+target.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if w := env.do(t, req); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
