package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindTarget struct {
	Username string `json:"username" binding:"required,max=10"`
	Email    string `json:"email" binding:"omitempty,email"`
	Age      int    `json:"age"`
}

func TestBindAndValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		body      string
		ok        bool
		wantField string
	}{
		{"valid", `{"username":"alice","email":"a@example.com"}`, true, ""},
		{"missing required", `{"email":"a@example.com"}`, false, "username"},
		{"bad email", `{"username":"alice","email":"nope"}`, false, "email"},
		{"too long", `{"username":"abcdefghijklmnop"}`, false, "username"},
		{"wrong type", `{"username":"alice","age":"old"}`, false, "age"},
		{"malformed", `{"username":`, false, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var target bindTarget
			ok := BindAndValidate(c, &target)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				return
			}

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp struct {
				Status int                 `json:"status"`
				Data   ValidationErrorData `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotEmpty(t, resp.Data.Errors)
			assert.Equal(t, tt.wantField, resp.Data.Errors[0].Field)
		})
	}
}
