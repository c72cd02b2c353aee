package curriculum

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "Informatika": {
    "1": [
      {"izena": "Matematika I", "mota": "derrigorrezkoa", "kredituak": 6,
       "currentOfficialRAs": ["RA1", "RA2"],
       "unitateak": [{"id": "u1", "izena": "Aljebra", "edukiak": {"gaiak": ["a", "b"]}, "data": "2025-09-01"}]},
      {"izena": "Programazioa"}
    ],
    "2": []
  },
  "Bioteknologia": {"1": [{"izena": "Kimika", "kredituak": "4.5"}]},
  "Arkitektura": {}
}`

func TestParseDocument_PreservesOrder(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDocument))
	require.NoError(t, err)

	require.Len(t, doc.Degrees, 3)
	assert.Equal(t, "Informatika", doc.Degrees[0].Name)
	assert.Equal(t, "Bioteknologia", doc.Degrees[1].Name)
	assert.Equal(t, "Arkitektura", doc.Degrees[2].Name)

	levels := doc.Degrees[0].Levels
	require.Len(t, levels, 2)
	assert.Equal(t, "1", levels[0].Key)
	assert.Equal(t, "2", levels[1].Key)
	assert.Empty(t, levels[1].Courses)
	assert.Empty(t, doc.Degrees[2].Levels)
}

func TestParseDocument_CourseFields(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDocument))
	require.NoError(t, err)

	courses := doc.Degrees[0].Levels[0].Courses
	require.Len(t, courses, 2)

	math := courses[0]
	assert.Nil(t, math.Err)
	require.NotNil(t, math.Name)
	assert.Equal(t, "Matematika I", *math.Name)
	require.NotNil(t, math.Type)
	assert.Equal(t, "derrigorrezkoa", *math.Type)
	require.NotNil(t, math.Credits)
	assert.Equal(t, 6.0, *math.Credits)
	assert.Equal(t, []string{"RA1", "RA2"}, math.OfficialRAs)
	assert.Equal(t, "Informatika/1[0]", math.Path)

	require.Len(t, math.Units, 1)
	unit := math.Units[0]
	assert.Equal(t, "u1", *unit.UnitID)
	assert.Equal(t, "Aljebra", *unit.Name)
	assert.Equal(t, "2025-09-01", *unit.Date)
	assert.JSONEq(t, `{"gaiak": ["a", "b"]}`, string(unit.Contents))

	prog := courses[1]
	assert.Nil(t, prog.Type)
	assert.Nil(t, prog.Credits)
	assert.NotNil(t, prog.OfficialRAs)
	assert.Empty(t, prog.OfficialRAs)
	assert.Empty(t, prog.Units)

	chem := doc.Degrees[1].Levels[0].Courses[0]
	require.NotNil(t, chem.Credits)
	assert.Equal(t, 4.5, *chem.Credits)
}

func TestParseDocument_ShapeErrorsAreDeferred(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"A": [],
		"B": {"1": {"not": "a list"}},
		"C": {"1": ["text", {"mota": "x"}, {"izena": "c", "kredituak": true}]}
	}`))
	require.NoError(t, err)
	require.Len(t, doc.Degrees, 3)

	require.NotNil(t, doc.Degrees[0].Err)
	assert.Equal(t, "A", doc.Degrees[0].Err.Path)

	require.NotNil(t, doc.Degrees[1].Levels[0].Err)

	courses := doc.Degrees[2].Levels[0].Courses
	require.Len(t, courses, 3)
	assert.NotNil(t, courses[0].Err)
	assert.Nil(t, courses[1].Err)
	assert.Nil(t, courses[1].Name)
	require.NotNil(t, courses[2].Err)
	assert.Equal(t, "C/1[2].kredituak", courses[2].Err.Path)
}

func TestParseDocument_RepeatedKeys(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"A": {"1": [{"izena": "old"}]},
		"B": {"1": []},
		"A": {"1": [{"izena": "first"}], "2": [], "1": [{"izena": "new", "izena": "newest", "kredituak": 3, "kredituak": 6}]}
	}`))
	require.NoError(t, err)

	require.Len(t, doc.Degrees, 2)
	assert.Equal(t, "A", doc.Degrees[0].Name)
	assert.Equal(t, "B", doc.Degrees[1].Name)

	levels := doc.Degrees[0].Levels
	require.Len(t, levels, 2)
	assert.Equal(t, "1", levels[0].Key)
	assert.Equal(t, "2", levels[1].Key)

	require.Len(t, levels[0].Courses, 1)
	course := levels[0].Courses[0]
	require.NotNil(t, course.Name)
	assert.Equal(t, "newest", *course.Name)
	require.NotNil(t, course.Credits)
	assert.Equal(t, 6.0, *course.Credits)
}

func TestParseDocument_InvalidUTF8(t *testing.T) {
	doc, err := ParseDocument([]byte("{\"A\xff\": {\"1\": [{\"izena\": \"x\xfe\"}]}}"))
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, ErrParse), "expected ErrParse, got: %v", err)
}

func TestParseDocument_OfficialRAsMustBeStrings(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"A": {"1": [{"izena": "c", "currentOfficialRAs": ["RA1", 2]}]}}`))
	require.NoError(t, err)

	course := doc.Degrees[0].Levels[0].Courses[0]
	require.NotNil(t, course.Err)
	assert.Equal(t, "A/1[0].currentOfficialRAs[1]", course.Err.Path)
}

func TestParseDocument_InvalidJSON(t *testing.T) {
	_, err := ParseDocument([]byte(`{"Informatika": `))
	assert.True(t, errors.Is(err, ErrParse), "expected ErrParse, got: %v", err)
}

func TestParseDocument_NotAnObject(t *testing.T) {
	_, err := ParseDocument([]byte(`["Informatika"]`))
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "$", schemaErr.Path)
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curriculum.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0644))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Len(t, doc.Degrees, 3)
}

func TestLoadDocument_FileNotFound(t *testing.T) {
	doc, err := LoadDocument(filepath.Join(t.TempDir(), "missing.json"))
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, ErrRead), "expected ErrRead, got: %v", err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseYearLevel(t *testing.T) {
	n, err := ParseYearLevel("Informatika", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for key, want := range map[string]int{" 1": 1, "2\n": 2, "1_0": 10, "-4": -4, "+5": 5} {
		n, err := ParseYearLevel("Informatika", key)
		require.NoError(t, err, key)
		assert.Equal(t, want, n, key)
	}

	_, err = ParseYearLevel("Informatika", "lehena")
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Informatika/lehena", schemaErr.Path)

	for _, key := range []string{"", "_1", "1_", "1__0", "1.5"} {
		_, err := ParseYearLevel("Informatika", key)
		assert.Error(t, err, key)
	}
}

func TestRowsEncodeNulls(t *testing.T) {
	b, err := json.Marshal(CourseRow{DegreeID: 1, YearLevel: 2, Name: "x", OfficialReferenceCodes: []string{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"gradu_id":1,"maila":2,"izena":"x","mota":null,"kredituak":null,"currentofficialras":[]}`, string(b))

	b, err = json.Marshal(UnitRow{CourseID: 9})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ikasgai_id":9,"unitate_id":null,"izena":null,"edukiak":null,"data":null}`, string(b))
}
