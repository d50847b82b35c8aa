package tabular

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workflowsCSV = `id,name,steps,score,public
wf-1,Assembly,12,0.5,true
wf-2,Annotation,3,na,false
wf-3,"Variant, calling",,1,TRUE
`

func TestReadCSV_InfersKinds(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(workflowsCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "steps", "score", "public"}, tbl.Columns)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, KindString, tbl.Kind("id"))
	assert.Equal(t, KindInt, tbl.Kind("steps"))
	assert.Equal(t, KindFloat, tbl.Kind("score"))
	assert.Equal(t, KindBool, tbl.Kind("public"))

	assert.Equal(t, int64(12), tbl.Rows[0]["steps"])
	assert.Nil(t, tbl.Rows[2]["steps"])
	assert.Nil(t, tbl.Rows[1]["score"])
	assert.Equal(t, float64(1), tbl.Rows[2]["score"])
	assert.Equal(t, true, tbl.Rows[2]["public"])
	assert.Equal(t, "Variant, calling", tbl.Rows[2]["name"])
}

func TestReadCSV_MixedColumnKeepsText(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("code\n007\nabc\n1.50\n"))
	require.NoError(t, err)
	assert.Equal(t, KindString, tbl.Kind("code"))
	assert.Equal(t, []any{"007", "abc", "1.50"},
		[]any{tbl.Rows[0]["code"], tbl.Rows[1]["code"], tbl.Rows[2]["code"]})
}

func TestReadCSV_Errors(t *testing.T) {
	for name, in := range map[string]string{
		"empty":            "",
		"duplicate header": "a,a\n1,2\n",
		"blank header":     "a,\n1,2\n",
		"ragged":           "a,b\n1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestReadJSON(t *testing.T) {
	in := `[
	  {"id": "a", "n": 1, "tags": ["x", "y"]},
	  {"id": "b", "n": 2.5, "extra": true}
	]`
	tbl, err := ReadJSON(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "n", "tags", "extra"}, tbl.Columns)
	assert.Equal(t, KindFloat, tbl.Kind("n"))
	assert.Equal(t, float64(1), tbl.Rows[0]["n"])
	assert.Equal(t, `["x","y"]`, tbl.Rows[0]["tags"])
	assert.Nil(t, tbl.Rows[0]["extra"])
	assert.Nil(t, tbl.Rows[1]["tags"])
	assert.Equal(t, true, tbl.Rows[1]["extra"])
}

func TestDecodeJSONRecords_SingleObject(t *testing.T) {
	docs, err := DecodeJSONRecords(strings.NewReader(` {"id": 9007199254740993}`))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, json.Number("9007199254740993"), docs[0]["id"])
}

func TestParquetRoundTrip(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(workflowsCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, tbl))

	back, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	assert.Equal(t, tbl.Len(), back.Len())
	assert.ElementsMatch(t, tbl.Columns, back.Columns)
	for i := range tbl.Rows {
		assert.Equal(t, tbl.Rows[i], back.Rows[i], "row %d", i)
	}
}

func TestToParquet(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "workflows.csv")
	require.NoError(t, os.WriteFile(input, []byte(workflowsCSV), 0o644))
	output := DefaultParquetPath(input)
	assert.Equal(t, filepath.Join(dir, "workflows.parquet"), output)

	tbl, err := ToParquet(input, output, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	back, err := ReadParquetFrom(f)
	require.NoError(t, err)
	assert.Equal(t, 3, back.Len())
	assert.ElementsMatch(t, []string{"id", "name", "steps", "score", "public"}, back.Columns)
}

func TestToParquet_MissingInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "missing.csv")
	output := filepath.Join(dir, "out.parquet")

	_, err := ToParquet(input, output, FormatCSV)
	require.ErrorIs(t, err, ErrInputNotFound)
	assert.Contains(t, err.Error(), input)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "output should not be created")
}

func TestToParquet_BadInputLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(input, []byte("{not json"), 0o644))
	output := filepath.Join(dir, "bad.parquet")

	_, err := ToParquet(input, output, FormatJSON)
	require.Error(t, err)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadDocuments(t *testing.T) {
	t.Run("json from stdin", func(t *testing.T) {
		docs, err := LoadDocuments("-", FormatJSON, strings.NewReader(`[{"id":1},{"id":2}]`))
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("csv from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "docs.csv")
		require.NoError(t, os.WriteFile(path, []byte(workflowsCSV), 0o644))
		docs, err := LoadDocuments(path, FormatCSV, nil)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "wf-1", docs[0]["id"])
		assert.Nil(t, docs[1]["score"])
	})

	t.Run("parquet from stdin", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader(workflowsCSV))
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, WriteParquet(&buf, tbl))

		docs, err := LoadDocuments("", FormatParquet, &buf)
		require.NoError(t, err)
		assert.Len(t, docs, 3)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDocuments(filepath.Join(t.TempDir(), "nope.json"), FormatJSON, nil)
		assert.ErrorIs(t, err, ErrInputNotFound)
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)

	got, ok := FormatFromPath("data/table.json")
	assert.True(t, ok)
	assert.Equal(t, FormatJSON, got)
}

func TestIsNullToken(t *testing.T) {
	for _, s := range []string{"", "na", "nan", " na "} {
		assert.True(t, IsNullToken(s), "%q", s)
	}
	for _, s := range []string{"NA", "0", "none"} {
		assert.False(t, IsNullToken(s), "%q", s)
	}
}
