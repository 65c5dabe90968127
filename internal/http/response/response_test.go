package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func recordJSON(t *testing.T, write func(c *gin.Context)) Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/", nil)
	write(c)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestErrorHelperCodes(t *testing.T) {
	cases := []struct {
		name  string
		write func(c *gin.Context)
		code  int
	}{
		{"bad_request", func(c *gin.Context) { BadRequest(c, "bad") }, CodeBadRequest},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "denied") }, CodeUnauthorized},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "no access") }, CodeForbidden},
		{"not_found", func(c *gin.Context) { NotFound(c, "missing") }, CodeNotFound},
	}
	for _, tc := range cases {
		resp := recordJSON(t, tc.write)
		if resp.StatusCode != tc.code {
			t.Fatalf("%s: status code want %d got %d", tc.name, tc.code, resp.StatusCode)
		}
	}
}

func TestErrorAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Set("request_id", "req-123")
	Forbidden(c, "no access")

	var resp struct {
		StatusCode int            `json:"status_code"`
		Data       map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.StatusCode != CodeForbidden {
		t.Fatalf("status code want %d got %d", CodeForbidden, resp.StatusCode)
	}
	if resp.Data["request_id"] != "req-123" {
		t.Fatalf("request_id not attached, data = %v", resp.Data)
	}
}

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(2, 20, 41)
	if p.TotalPage != 3 {
		t.Fatalf("total page want 3 got %d", p.TotalPage)
	}
	p = BuildPagination(1, 0, 41)
	if p.TotalPage != 0 {
		t.Fatalf("zero page size should yield 0 total pages, got %d", p.TotalPage)
	}
}
