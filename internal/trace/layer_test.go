package trace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayer(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Layer
		wantErr bool
	}{
		{"tag", "L1", L1, false},
		{"tag lowercase", "l3", L3, false},
		{"code", "domain", L3, false},
		{"code uppercase", "INFRA", L6, false},
		{"trimmed", "  L2  ", L2, false},
		{"trimmed code", " data ", L5, false},
		{"unknown tag", "L7", 0, true},
		{"unknown code", "database", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLayer(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLayerAccessors(t *testing.T) {
	assert.Equal(t, "L1", L1.Tag())
	assert.Equal(t, "api", L1.Code())
	assert.Equal(t, "API", L1.Name())
	assert.Equal(t, 1, L1.Rank())
	assert.Equal(t, "L6", L6.Tag())
	assert.True(t, L4.IsValid())
	assert.False(t, Layer(0).IsValid())
	assert.False(t, Layer(7).IsValid())
}

func TestAllLayersRankOrder(t *testing.T) {
	all := AllLayers()
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Rank(), all[i-1].Rank())
	}
}

func TestLayerJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(L5)
	require.NoError(t, err)
	assert.Equal(t, `"data"`, string(data))

	var parsed Layer
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, L5, parsed)

	// Tags unmarshal too.
	require.NoError(t, json.Unmarshal([]byte(`"L2"`), &parsed))
	assert.Equal(t, L2, parsed)

	assert.Error(t, json.Unmarshal([]byte(`"L9"`), &parsed))
}
