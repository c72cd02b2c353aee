package services

import "go.uber.org/zap"

// IngestMetrics counts what one ingestion run did per entity. Skipped rows
// are children of a parent that failed to insert and were never attempted.
type IngestMetrics struct {
	DegreesCreated int
	DegreesFailed  int
	CoursesCreated int
	CoursesFailed  int
	CoursesSkipped int
	UnitsCreated   int
	UnitsFailed    int
	UnitsSkipped   int
}

// TotalCreated returns the number of rows written
func (m *IngestMetrics) TotalCreated() int {
	return m.DegreesCreated + m.CoursesCreated + m.UnitsCreated
}

// TotalFailed returns the number of inserts the backend rejected
func (m *IngestMetrics) TotalFailed() int {
	return m.DegreesFailed + m.CoursesFailed + m.UnitsFailed
}

// Fields renders the metrics as log fields
func (m *IngestMetrics) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("degrees_created", m.DegreesCreated),
		zap.Int("degrees_failed", m.DegreesFailed),
		zap.Int("courses_created", m.CoursesCreated),
		zap.Int("courses_failed", m.CoursesFailed),
		zap.Int("courses_skipped", m.CoursesSkipped),
		zap.Int("units_created", m.UnitsCreated),
		zap.Int("units_failed", m.UnitsFailed),
		zap.Int("units_skipped", m.UnitsSkipped),
		zap.Int("total_created", m.TotalCreated()),
		zap.Int("total_failed", m.TotalFailed()),
	}
}

func (m *IngestMetrics) skipDegree(d levelCounter) {
	m.CoursesSkipped += d.courses
	m.UnitsSkipped += d.units
}

type levelCounter struct {
	courses int
	units   int
}
