package validation_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transfer struct {
	Owner  string          `json:"owner" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

func (t *transfer) Sanitize() {
	t.Owner = strings.TrimSpace(t.Owner)
}

func (t *transfer) Validate() error {
	if t.Amount.GreaterThan(decimal.NewFromInt(1000)) {
		return errors.New("amount over limit")
	}
	return nil
}

func bind(t *testing.T, body string) (*httptest.ResponseRecorder, *transfer, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var out transfer
	err := validation.BindAndValidate(c, &out, validation.Default())
	return rec, &out, err
}

func TestBindAndValidate_Valid(t *testing.T) {
	rec, out, err := bind(t, `{"owner":"  ana ","amount":"10.50"}`)

	require.NoError(t, err)
	assert.Equal(t, "ana", out.Owner)
	assert.True(t, out.Amount.Equal(decimal.RequireFromString("10.50")))
	assert.False(t, rec.Flushed)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestBindAndValidate_MalformedBody(t *testing.T) {
	rec, _, err := bind(t, `{"owner":`)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request_body")
}

func TestBindAndValidate_SanitizedBeforeValidation(t *testing.T) {
	rec, _, err := bind(t, `{"owner":"   ","amount":-1}`)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_failed")
	assert.Contains(t, rec.Body.String(), "Owner")
	assert.Contains(t, rec.Body.String(), "Amount")
}

func TestBindAndValidate_RunsOwnValidate(t *testing.T) {
	rec, _, err := bind(t, `{"owner":"ana","amount":"1000.01"}`)

	require.EqualError(t, err, "amount over limit")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_failed")
	assert.Contains(t, rec.Body.String(), "amount over limit")
}

func TestErrorsToMap_PlainError(t *testing.T) {
	assert.Equal(t, map[string]string{"error": "boom"}, validation.ErrorsToMap(errors.New("boom")))
}
