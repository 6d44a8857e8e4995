package sources

import (
	"encoding/json"
	"testing"

	"findata-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalize(t *testing.T) {
	assert.Nil(t, Finalize(nil))
	assert.Nil(t, Finalize(&models.FinancialRecord{Industry: "  "}))

	rec := Finalize(&models.FinancialRecord{Industry: " Software "})
	require.NotNil(t, rec)
	assert.Equal(t, "Software", rec.Industry)
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
		D FlexString `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2012","b":2012,"c":null,"d":{"x":1}}`), &v))

	assert.Equal(t, "2012", v.A.String())
	assert.Equal(t, "2012", v.B.String())
	assert.Equal(t, "", v.C.String())
	assert.Equal(t, "", v.D.String())
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "crunchbase.com", HostOf("https://www.crunchbase.com/organization/acme"))
	assert.Equal(t, "", HostOf("not a url"))
	assert.True(t, HostMatches("news.crunchbase.com", "crunchbase.com"))
	assert.False(t, HostMatches("notcrunchbase.com", "crunchbase.com"))
}
