package curriculum

import "encoding/json"

type Entity string

const (
	EntityDegree Entity = "degree"
	EntityCourse Entity = "course"
	EntityUnit   Entity = "unit"
)

// Backend table names.
const (
	TableDegrees = "graduak"
	TableCourses = "ikasgaiak"
	TableUnits   = "unitateak"
)

// Document is a parsed curriculum export. Degrees, year levels, courses and
// units keep the order they have in the source file.
type Document struct {
	Degrees []Degree
}

type Degree struct {
	Name   string
	Levels []YearLevel
	// Err is set when the degree value is not an object.
	Err *SchemaError
}

type YearLevel struct {
	// Key is the raw year level key, converted to an integer at ingestion time.
	Key     string
	Courses []CourseRecord
	Err     *SchemaError
}

type CourseRecord struct {
	Path string
	// Name is nil when "izena" is absent or null.
	Name        *string
	Type        *string
	Credits     *float64
	OfficialRAs []string
	Units       []UnitRecord
	Err         *SchemaError
}

type UnitRecord struct {
	Path     string
	UnitID   *string
	Name     *string
	Contents json.RawMessage
	Date     *string
	Err      *SchemaError
}

// DegreeRow is the payload written to the degrees table.
type DegreeRow struct {
	Name string `json:"izena"`
}

// CourseRow is the payload written to the courses table. Absent optional
// values are sent as null; absent reference codes as an empty list.
type CourseRow struct {
	DegreeID               interface{} `json:"gradu_id"`
	YearLevel              int         `json:"maila"`
	Name                   string      `json:"izena"`
	Type                   *string     `json:"mota"`
	Credits                *float64    `json:"kredituak"`
	OfficialReferenceCodes []string    `json:"currentofficialras"`
}

// UnitRow is the payload written to the units table.
type UnitRow struct {
	CourseID interface{}     `json:"ikasgai_id"`
	UnitID   *string         `json:"unitate_id"`
	Name     *string         `json:"izena"`
	Contents json.RawMessage `json:"edukiak"`
	Date     *string         `json:"data"`
}

// NameOrEmpty returns the unit name for messages.
func (u UnitRecord) NameOrEmpty() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}
