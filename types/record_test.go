package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJSONFlattening(t *testing.T) {
	var record Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"test","first_name":"AAA","age":53,"sex":"Female"}`), &record))

	assert.Equal(t, "test", record.ID)
	assert.Equal(t, "AAA", record.Fields["first_name"])
	assert.Equal(t, float64(53), record.Fields["age"])
	assert.NotContains(t, record.Fields, "id")

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var roundTrip map[string]any
	require.NoError(t, json.Unmarshal(data, &roundTrip))
	assert.Equal(t, "test", roundTrip["id"])
	assert.Equal(t, "Female", roundTrip["sex"])
}

func TestRecordRequiresID(t *testing.T) {
	var record Record
	assert.Error(t, json.Unmarshal([]byte(`{"first_name":"AAA"}`), &record))
	assert.Error(t, json.Unmarshal([]byte(`{"id":"","first_name":"AAA"}`), &record))
	assert.Error(t, json.Unmarshal([]byte(`{"id":42}`), &record))
}
