package sequence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionMatches(t *testing.T) {
	vocab := DefaultVocabulary()

	assert.True(t, vocab.ActionMatches(ActionSlots, "slots"))
	assert.True(t, vocab.ActionMatches(ActionSlots, "get_slots"))
	assert.True(t, vocab.ActionMatches(ActionSlots, " Get_Slots "))
	assert.False(t, vocab.ActionMatches(ActionSlots, "book"))
	assert.False(t, vocab.ActionMatches(ActionSlots, ""))
}

func TestStringField(t *testing.T) {
	obj := map[string]any{
		"patient_id": "",
		"person_id":  " p-1 ",
		"id":         "ignored",
		"count":      3,
	}

	got := StringField(obj, []string{"patient_id", "patientId", "person_id", "id"})
	assert.Equal(t, "p-1", got)

	assert.Equal(t, "", StringField(obj, []string{"missing"}))
	assert.Equal(t, "", StringField(nil, []string{"patient_id"}))
}

func TestLoadVocabulary_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"book_tool: schedule_v2\nperson_id_fields: [pid]\n",
	), 0o644))

	vocab, err := LoadVocabulary(path)
	require.NoError(t, err)

	assert.Equal(t, "schedule_v2", vocab.BookTool)
	assert.Equal(t, []string{"pid"}, vocab.PersonIDFields)
	// Untouched fields keep the defaults.
	assert.Equal(t, "search_patients", vocab.SearchTool)
	assert.NotEmpty(t, vocab.ActionAliases[ActionBook])
}

func TestLoadVocabulary_MissingFile(t *testing.T) {
	vocab, err := LoadVocabulary(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	// The defaults still come back so callers can degrade gracefully.
	assert.Equal(t, "search_patients", vocab.SearchTool)
}
