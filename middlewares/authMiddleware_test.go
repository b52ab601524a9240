package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/mmdatafocus/checklist_backend/middlewares"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"github.com/gin-gonic/gin"
)

func runAuthMiddleware(t *testing.T, authorization string) (*httptest.ResponseRecorder, string, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var empId string
	var reached bool

	r := gin.New()
	r.Use(middlewares.AuthMiddleware())
	r.GET("/probe", func(c *gin.Context) {
		reached = true
		empId, _ = utils.GetEmployeeIdFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	return w, empId, reached
}

func TestAuthMiddlewarePassesThroughWithoutToken(t *testing.T) {
	w, empId, reached := runAuthMiddleware(t, "")
	if !reached || w.Code != http.StatusOK {
		t.Fatalf("expected pass-through; code=%d reached=%v", w.Code, reached)
	}
	if empId != "" {
		t.Fatalf("expected no empid in context; got %q", empId)
	}
}

func TestAuthMiddlewareAttachesEmployeeId(t *testing.T) {
	token, err := utils.JwtGenerate("EMP-7")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	w, empId, reached := runAuthMiddleware(t, "Bearer "+token)
	if !reached || w.Code != http.StatusOK {
		t.Fatalf("expected request to reach handler; code=%d reached=%v", w.Code, reached)
	}
	if empId != "EMP-7" {
		t.Fatalf("expected empid EMP-7 in context; got %q", empId)
	}
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	w, _, reached := runAuthMiddleware(t, "Token abc")
	if reached {
		t.Fatal("expected request to be aborted")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401; got %d", w.Code)
	}
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	w, _, reached := runAuthMiddleware(t, "Bearer not-a-token")
	if reached {
		t.Fatal("expected request to be aborted")
	}
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403; got %d", w.Code)
	}
}
