package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Title string `validate:"required,min=1,max=500"`
	Price int64  `validate:"gte=0"`
	Image string `validate:"omitempty,url"`
}

func TestValidate_OK(t *testing.T) {
	err := Validate(sampleRequest{Title: "Red Hoodie", Price: 3999})
	assert.NoError(t, err)
}

func TestValidate_RequiredField(t *testing.T) {
	err := Validate(sampleRequest{Price: 100})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["Title"])
}

func TestValidate_NegativePrice(t *testing.T) {
	err := Validate(sampleRequest{Title: "x", Price: -1})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Price"], "greater than or equal to 0")
}

func TestValidate_InvalidURL(t *testing.T) {
	err := Validate(sampleRequest{Title: "x", Image: "not a url"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid URL", valErr.Fields()["Image"])
}
