package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/youclicker/backend/internal/db"
	"github.com/youclicker/backend/internal/model"
	"github.com/youclicker/backend/internal/registry"
	"github.com/youclicker/backend/internal/store"
)

const testAccessCode = "secret-code"

func setupTestRouter(t *testing.T) (*gin.Engine, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	reg := registry.New()
	gate := NewAccessGate(testAccessCode)
	sessionHandler := NewSessionHandler(reg, gate)
	listHandler := NewQuestionListHandler(store.NewQuestionListRepository(database), gate)

	r := gin.New()
	api := r.Group("/api")
	gate.RegisterRoutes(api)
	sessionHandler.RegisterRoutes(api)
	listHandler.RegisterRoutes(api)

	return r, reg
}

func doJSON(t *testing.T, r *gin.Engine, method, path, accessCode string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if accessCode != "" {
		req.Header.Set("X-Access-Code", accessCode)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestTeacherLogin(t *testing.T) {
	r, _ := setupTestRouter(t)

	t.Run("valid code", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/teacher/login", "", map[string]string{"code": testAccessCode})
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("invalid code", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/teacher/login", "", map[string]string{"code": "wrong"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})
}

func TestSessionCreateAndLookup(t *testing.T) {
	r, _ := setupTestRouter(t)

	t.Run("create requires access code", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/session", "", map[string]string{"name": "Quiz"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("create and look up", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/session", testAccessCode, map[string]string{"name": "Quiz A"})
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
			t.Fatalf("Invalid response: %v", err)
		}
		if created.ID == "" {
			t.Fatal("Expected a session id")
		}

		w = doJSON(t, r, http.MethodGet, "/api/session/"+created.ID, "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}

		var info SessionResponse
		if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
			t.Fatalf("Invalid response: %v", err)
		}
		if info.ID != created.ID || info.Name != "Quiz A" || info.CreatedAt == "" {
			t.Errorf("Unexpected session info: %+v", info)
		}
	})

	t.Run("lookup of unknown session is 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/session/unknown", "", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}

func TestSessionQR(t *testing.T) {
	r, reg := setupTestRouter(t)
	info := reg.Create("QR Session")

	w := doJSON(t, r, http.MethodGet, "/api/session/"+info.ID+"/qr?size=300", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	// PNG signature
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("Response is not a PNG")
	}

	w = doJSON(t, r, http.MethodGet, "/api/session/unknown/qr", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}
}

func TestQuestionListCRUD(t *testing.T) {
	r, _ := setupTestRouter(t)

	body := map[string]any{
		"name": "Algebra",
		"questions": []model.Question{
			{Text: "2+2?", Choices: []string{"3", "4", "5"}},
		},
	}

	t.Run("write requires access code", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/question-lists/algebra", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("upsert, read, delete", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/question-lists/algebra", testAccessCode, body)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		w = doJSON(t, r, http.MethodGet, "/api/question-lists/algebra", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		var list model.QuestionList
		if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
			t.Fatalf("Invalid response: %v", err)
		}
		if list.Name != "Algebra" || len(list.Questions) != 1 {
			t.Errorf("Unexpected list: %+v", list)
		}

		w = doJSON(t, r, http.MethodGet, "/api/question-lists", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}

		w = doJSON(t, r, http.MethodDelete, "/api/question-lists/algebra", testAccessCode, nil)
		if w.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", w.Code)
		}

		w = doJSON(t, r, http.MethodGet, "/api/question-lists/algebra", "", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404 after delete, got %d", w.Code)
		}
	})

	t.Run("invalid slug is rejected", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/question-lists/Not%20Valid", testAccessCode, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}
