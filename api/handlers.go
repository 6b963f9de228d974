package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"air_quality_api/airquality"
	"air_quality_api/auth"
	"air_quality_api/logger"
	"air_quality_api/users"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// Handler holds the services the HTTP endpoints delegate to.
type Handler struct {
	users     *users.Service
	auth      *auth.Service
	importer  *airquality.Importer
	query     *airquality.Service
	uploadDir string
}

// NewHandler creates the API handler set. Uploaded files are kept in
// uploadDir as a backup of what was ingested.
func NewHandler(usersService *users.Service, authService *auth.Service,
	importer *airquality.Importer, query *airquality.Service, uploadDir string) *Handler {
	return &Handler{
		users:     usersService,
		auth:      authService,
		importer:  importer,
		query:     query,
		uploadDir: uploadDir,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a JWT access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		logger.Errorf("Login failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

// CreateUser registers a new user account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params users.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Create(params)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "Email already exists")
		case users.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			logger.Errorf("Error creating user: %v\n", err)
			writeError(w, http.StatusInternalServerError, "Error creating user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ListUsers returns all user accounts.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	all, err := h.users.List()
	if err != nil {
		logger.Errorf("Error fetching users: %v\n", err)
		writeError(w, http.StatusInternalServerError, "Error fetching users")
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// UpdateUser changes a user's email or role.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var params users.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Update(id, params)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, users.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "Email already in use")
		case users.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			logger.Errorf("Error updating user: %v\n", err)
			writeError(w, http.StatusInternalServerError, "Error updating user")
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.users.Delete(id); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		logger.Errorf("Error deleting user: %v\n", err)
		writeError(w, http.StatusInternalServerError, "Error deleting user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// UploadCSV ingests one semicolon-delimited air quality CSV file. The
// declared content type must be CSV and the file must be nonzero before
// any parsing starts.
func (h *Handler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if media, _, err := mime.ParseMediaType(contentType); err != nil || media != "text/csv" {
		writeError(w, http.StatusBadRequest, "Invalid file type. Only CSV files are allowed.")
		return
	}

	if header.Size == 0 {
		writeError(w, http.StatusBadRequest, "Uploaded file is empty.")
		return
	}

	path, err := h.saveUpload(file, header.Filename)
	if err != nil {
		logger.Errorf("Failed to store upload: %v\n", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	stored, err := os.Open(path)
	if err != nil {
		logger.Errorf("Failed to reopen upload: %v\n", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer stored.Close()

	summary, err := h.importer.Import(stored)
	if err != nil {
		if airquality.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Errorf("Import failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

// AirQualityData serves the date-range query with optional filters.
func (h *Handler) AirQualityData(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")
	if startDate == "" || endDate == "" {
		writeError(w, http.StatusBadRequest, "startDate and endDate are required.")
		return
	}

	filters := map[string]airquality.Filter{}
	if raw := r.URL.Query().Get("filters"); raw != "" {
		parsed, err := airquality.ParseFilters(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filters = parsed
	}

	data, err := h.query.Data(startDate, endDate, filters)
	if err != nil {
		if airquality.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Errorf("Query failed: %v\n", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// saveUpload copies the uploaded stream into the upload directory and
// returns the stored path.
func (h *Handler) saveUpload(src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(originalName))
	path := filepath.Join(h.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return path, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
