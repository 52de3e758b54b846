package ingestion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonlDataset = `{"identifier": "1304-0", "sentence": "There is a blue square.", "label": "true", "structured_rep": [[{"y_loc": 21, "size": 20, "type": "square", "x_loc": 27, "color": "Blue"}], [], []]}

{"identifier": "1304-1", "sentence": "There is a yellow circle.", "label": "false", "structured_rep": [[{"y_loc": 0, "size": 10, "type": "circle", "x_loc": 0, "color": "Yellow"}]], "evals": {"r0": "true"}}
`

func TestReadRecords(t *testing.T) {
	t.Parallel()

	t.Run("JSONLines", func(t *testing.T) {
		t.Parallel()
		records, err := ReadRecords(strings.NewReader(jsonlDataset), "unused")
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "1304-0", records[0].Identifier)
		assert.Equal(t, "true", records[0].Label)
		require.Len(t, records[0].StructuredRep, 3)
		shape := records[0].StructuredRep[0][0]
		assert.Equal(t, 27, shape.XLoc)
		assert.Equal(t, 21, shape.YLoc)
		assert.Equal(t, "Blue", shape.Color)
		assert.Empty(t, records[0].StructuredRep[1])
	})

	t.Run("JSONArray", func(t *testing.T) {
		t.Parallel()
		input := `[{"identifier": "a", "structured_rep": [[]]}, {"identifier": "b", "structured_rep": []}]`
		records, err := ReadRecords(strings.NewReader(input), "unused")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "b", records[1].Identifier)
	})

	t.Run("PrettyPrintedObject", func(t *testing.T) {
		t.Parallel()
		input := "{\n  \"identifier\": \"x\",\n  \"structured_rep\": [\n    []\n  ]\n}\n"
		records, err := ReadRecords(strings.NewReader(input), "unused")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "x", records[0].Identifier)
	})

	t.Run("BareDescription", func(t *testing.T) {
		t.Parallel()
		input := `[[{"size": 10, "type": "square", "color": "blue", "x_loc": 5, "y_loc": 5}], []]`
		records, err := ReadRecords(strings.NewReader(input), "scene-7")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "scene-7", records[0].Identifier)
		assert.Len(t, records[0].StructuredRep, 2)
	})

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		records, err := ReadRecords(strings.NewReader("  \n"), "x")
		require.NoError(t, err)
		assert.Empty(t, records)

		records, err = ReadRecords(strings.NewReader("[]"), "")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("EmptyScene", func(t *testing.T) {
		t.Parallel()
		records, err := ReadRecords(strings.NewReader(" [ ]\n"), "blank")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "blank", records[0].Identifier)
		assert.NotNil(t, records[0].StructuredRep)
		assert.Empty(t, records[0].StructuredRep)
		assert.NoError(t, records[0].Validate())
	})

	t.Run("MissingStructuredRep", func(t *testing.T) {
		t.Parallel()
		input := `{"identifier": "ok", "structured_rep": []}` + "\n" + `{"identifier": "bad"}` + "\n"
		_, err := ReadRecords(strings.NewReader(input), "x")
		assert.ErrorIs(t, err, ErrMalformedRecord)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("MissingIdentifier", func(t *testing.T) {
		t.Parallel()
		_, err := ReadRecords(strings.NewReader(`[{"structured_rep": []}]`), "x")
		assert.ErrorIs(t, err, ErrMalformedRecord)
		assert.Contains(t, err.Error(), "element 0")
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		t.Parallel()
		_, err := ReadRecords(strings.NewReader("{not json}\n{}\n"), "x")
		assert.ErrorIs(t, err, ErrMalformedRecord)
	})
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "panel-42.json")
	require.NoError(t, os.WriteFile(path, []byte(`[[]]`), 0o644))

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "panel-42", records[0].Identifier)

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
