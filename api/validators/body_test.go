package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/quotedesk/quotedesk-backend/pkg/errors"
)

type decodeTarget struct {
	Title    string `json:"title" validate:"required,max=10"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"restock","quantity":3}`))
	var dest decodeTarget
	require.NoError(t, DecodeJSONBody(req, &dest))
	assert.Equal(t, "restock", dest.Title)
	assert.Equal(t, 3, dest.Quantity)
}

func TestDecodeJSONBodyUnknownField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x","quantity":1,"extra":true}`))
	var dest decodeTarget
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyValidationDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":-1}`))
	var dest decodeTarget
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	// fields are keyed by their json tag, not the Go name
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["title"])
	assert.Equal(t, "must be greater than 0", details["quantity"])
}

func TestDecodeJSONBodyMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	var dest decodeTarget
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
