package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prendasoft/prenda-api/internal/services"
	"github.com/stretchr/testify/assert"
)

// The renewal body is optional, but garbage is not the same as absent.
func TestRenewRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "tracking_number", Value: "3f2c7f9a"}}
	c.Request = httptest.NewRequest(http.MethodPost, "/loans/3f2c7f9a/renew", strings.NewReader("{renew"))
	c.Request.Header.Set("Content-Type", "application/json")

	NewLoanHandler(&services.LoanService{}).Renew(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
