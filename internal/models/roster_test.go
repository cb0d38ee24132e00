package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentRecordJSONIsFlat(t *testing.T) {
	record := StudentRecord{ID: 7, Values: map[string]string{"name": "Jane", "house": "Red"}}

	raw, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"name":"Jane","house":"Red"}`, string(raw))
}

func TestStudentRecordUnmarshalToleratesLegacyValues(t *testing.T) {
	var record StudentRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"12","name":"Jane","year":2024,"notes":null}`), &record))
	assert.Equal(t, int64(12), record.ID)
	assert.Equal(t, "2024", record.Value("year"))
	assert.Equal(t, "", record.Value("notes"))
	assert.Equal(t, "", record.Value("missing"))

	err := json.Unmarshal([]byte(`{"id":"abc"}`), &record)
	assert.Error(t, err)
}

func TestFieldDefinitionAlwaysEmitsOptions(t *testing.T) {
	raw, err := json.Marshal(FieldDefinition{ID: "cf-1", Type: FieldText})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"options":[]`)
}

func TestFieldDefinitionCloneIsDeep(t *testing.T) {
	original := FieldDefinition{ID: "cf-1", Type: FieldDropdown, Options: []string{"Red"}}
	clone := original.Clone()
	clone.Options[0] = "Blue"
	assert.Equal(t, "Red", original.Options[0])
}

func TestParseFieldType(t *testing.T) {
	for _, ft := range FieldTypes {
		parsed, err := ParseFieldType(string(ft))
		require.NoError(t, err)
		assert.Equal(t, ft, parsed)
	}
	_, err := ParseFieldType("color")
	assert.Error(t, err)
}

func TestSortGroupsFollowsOptionOrder(t *testing.T) {
	groups := []GroupCount{{Value: "Zed", Count: 1}, {Value: "Blue", Count: 2}, {Value: "Red", Count: 3}, {Value: "Amber", Count: 1}}
	SortGroups(groups, []string{"Red", "Blue"})
	assert.Equal(t, []string{"Red", "Blue", "Amber", "Zed"}, []string{groups[0].Value, groups[1].Value, groups[2].Value, groups[3].Value})
}

func TestSortGroupsRanksDuplicateOptionsByFirstPosition(t *testing.T) {
	groups := []GroupCount{{Value: "Blue", Count: 2}, {Value: "Red", Count: 1}, {Value: "Green", Count: 4}}
	SortGroups(groups, []string{"Red", "Green", "Blue", "Red"})
	assert.Equal(t, []string{"Red", "Green", "Blue"}, []string{groups[0].Value, groups[1].Value, groups[2].Value})
}
