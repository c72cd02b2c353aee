package services

import (
	"context"
	"errors"

	"github.com/natserract/curriculum/pkg/curriculum"
)

var errInjected = errors.New("injected insert failure")

// memBackend stores rows in memory and fails inserts chosen by the test.
type memBackend struct {
	degrees []curriculum.DegreeRow
	courses []curriculum.CourseRow
	units   []curriculum.UnitRow
	calls   []string
	nextID  int64

	failDegree func(curriculum.DegreeRow) bool
	failCourse func(curriculum.CourseRow) bool
	failUnit   func(curriculum.UnitRow) bool
}

func (m *memBackend) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memBackend) InsertDegree(ctx context.Context, row curriculum.DegreeRow) (interface{}, error) {
	m.calls = append(m.calls, "degree:"+row.Name)
	if m.failDegree != nil && m.failDegree(row) {
		return nil, curriculum.ErrNoRows
	}
	m.degrees = append(m.degrees, row)
	return m.id(), nil
}

func (m *memBackend) InsertCourse(ctx context.Context, row curriculum.CourseRow) (interface{}, error) {
	m.calls = append(m.calls, "course:"+row.Name)
	if m.failCourse != nil && m.failCourse(row) {
		return nil, curriculum.ErrNoRows
	}
	m.courses = append(m.courses, row)
	return m.id(), nil
}

func (m *memBackend) InsertUnit(ctx context.Context, row curriculum.UnitRow) (interface{}, error) {
	name := ""
	if row.Name != nil {
		name = *row.Name
	}
	m.calls = append(m.calls, "unit:"+name)
	if m.failUnit != nil && m.failUnit(row) {
		return nil, errInjected
	}
	m.units = append(m.units, row)
	return m.id(), nil
}

// txBackend buffers writes and applies them to the parent on success only.
type txBackend struct {
	*memBackend
}

func (t *txBackend) WithinTx(ctx context.Context, fn func(b Backend) error) error {
	staged := &memBackend{
		nextID:     t.nextID,
		failDegree: t.failDegree,
		failCourse: t.failCourse,
		failUnit:   t.failUnit,
	}
	if err := fn(staged); err != nil {
		return err
	}
	t.degrees = append(t.degrees, staged.degrees...)
	t.courses = append(t.courses, staged.courses...)
	t.units = append(t.units, staged.units...)
	t.nextID = staged.nextID
	return nil
}
