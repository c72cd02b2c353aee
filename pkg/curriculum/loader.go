package curriculum

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// LoadDocument reads and parses the curriculum export at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}
	return ParseDocument(data)
}

// ParseDocument parses a curriculum export. Only the JSON syntax and the
// top-level object are checked here; shape problems further down are
// attached to the node they occur in and surface when ingestion reaches it.
func ParseDocument(data []byte) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrParse)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrParse)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &SchemaError{Path: "$", Reason: "document must be an object of degrees"}
	}

	doc := &Document{}
	for _, m := range members(root) {
		doc.Degrees = append(doc.Degrees, parseDegree(m.key, m.value))
	}
	return doc, nil
}

type member struct {
	key   string
	value gjson.Result
}

// members lists the fields of obj in document order. A repeated key keeps
// the position of its first occurrence and the value of its last.
func members(obj gjson.Result) []member {
	var out []member
	seen := make(map[string]int)
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if i, ok := seen[k]; ok {
			out[i].value = value
			return true
		}
		seen[k] = len(out)
		out = append(out, member{key: k, value: value})
		return true
	})
	return out
}

// field returns the last occurrence of key in obj.
func field(obj gjson.Result, key string) gjson.Result {
	var last gjson.Result
	obj.ForEach(func(k, value gjson.Result) bool {
		if k.String() == key {
			last = value
		}
		return true
	})
	return last
}

func parseDegree(name string, value gjson.Result) Degree {
	degree := Degree{Name: name}
	if !value.IsObject() {
		degree.Err = &SchemaError{Path: name, Reason: "year levels must be an object"}
		return degree
	}

	for _, m := range members(value) {
		courses := m.value
		level := YearLevel{Key: m.key}
		path := name + "/" + level.Key
		if !courses.IsArray() {
			level.Err = &SchemaError{Path: path, Reason: "courses must be an array"}
		} else {
			for i, c := range courses.Array() {
				level.Courses = append(level.Courses, parseCourse(fmt.Sprintf("%s[%d]", path, i), c))
			}
		}
		degree.Levels = append(degree.Levels, level)
	}
	return degree
}

func parseCourse(path string, value gjson.Result) CourseRecord {
	course := CourseRecord{Path: path}
	if !value.IsObject() {
		course.Err = &SchemaError{Path: path, Reason: "course must be an object"}
		return course
	}

	course.Name = optionalString(field(value, "izena"))
	course.Type = optionalString(field(value, "mota"))

	credits, err := optionalNumber(field(value, "kredituak"))
	if err != nil {
		course.Err = &SchemaError{Path: path + ".kredituak", Reason: err.Error()}
		return course
	}
	course.Credits = credits

	course.OfficialRAs = []string{}
	if ras := field(value, "currentOfficialRAs"); ras.Exists() && ras.Type != gjson.Null {
		if !ras.IsArray() {
			course.Err = &SchemaError{Path: path + ".currentOfficialRAs", Reason: "must be an array"}
			return course
		}
		for i, ra := range ras.Array() {
			if ra.Type != gjson.String {
				course.Err = &SchemaError{
					Path:   fmt.Sprintf("%s.currentOfficialRAs[%d]", path, i),
					Reason: fmt.Sprintf("expected a string, got %s", ra.Type),
				}
				return course
			}
			course.OfficialRAs = append(course.OfficialRAs, ra.Str)
		}
	}

	if units := field(value, "unitateak"); units.Exists() && units.Type != gjson.Null {
		if !units.IsArray() {
			course.Err = &SchemaError{Path: path + ".unitateak", Reason: "must be an array"}
			return course
		}
		for i, u := range units.Array() {
			course.Units = append(course.Units, parseUnit(fmt.Sprintf("%s.unitateak[%d]", path, i), u))
		}
	}
	return course
}

func parseUnit(path string, value gjson.Result) UnitRecord {
	unit := UnitRecord{Path: path}
	if !value.IsObject() {
		unit.Err = &SchemaError{Path: path, Reason: "unit must be an object"}
		return unit
	}

	unit.UnitID = optionalString(field(value, "id"))
	unit.Name = optionalString(field(value, "izena"))
	unit.Date = optionalString(field(value, "data"))
	if contents := field(value, "edukiak"); contents.Exists() {
		unit.Contents = json.RawMessage(contents.Raw)
	}
	return unit
}

func optionalString(r gjson.Result) *string {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	s := r.String()
	return &s
}

func optionalNumber(r gjson.Result) (*float64, error) {
	switch r.Type {
	case gjson.Null:
		return nil, nil
	case gjson.Number:
		f := r.Float()
		return &f, nil
	case gjson.String:
		f, err := strconv.ParseFloat(r.Str, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", r.Str)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("expected a number, got %s", r.Type)
	}
}

// ParseYearLevel converts a year level key to its integer value. Surrounding
// whitespace and single underscores between digits are allowed.
func ParseYearLevel(degree, key string) (int, error) {
	digits, ok := stripDigitSeparators(strings.TrimSpace(key))
	n, err := strconv.Atoi(digits)
	if !ok || err != nil {
		return 0, &SchemaError{Path: degree + "/" + key, Reason: fmt.Sprintf("year level %q is not an integer", key)}
	}
	return n, nil
}

func stripDigitSeparators(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 || strings.HasPrefix(body, "_") || strings.HasSuffix(body, "_") || strings.Contains(body, "__") {
		return "", false
	}
	return strings.ReplaceAll(s, "_", ""), true
}
