package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/natserract/curriculum/pkg/curriculum"
	"go.uber.org/zap"
)

// Console lines printed during a run.
const (
	msgStart        = "Loading curriculum data..."
	msgProcessing   = "Processing degree: %s\n"
	msgDegreeFailed = "Error inserting degree %s\n"
	msgCourseFailed = "Error inserting course %s\n"
	msgUnitFailed   = "Error inserting unit %s of course %s\n"
	msgCompleted    = "Curriculum data loaded!"
)

type Options struct {
	UnitFailurePolicy UnitFailurePolicy
	// Atomic runs the whole document in one backend transaction
	Atomic bool
	// Out receives progress and error lines; defaults to os.Stdout
	Out io.Writer
}

// Ingester writes a curriculum document to a backend, one row at a time,
// passing each generated id down to the rows that reference it.
type Ingester struct {
	backend    Backend
	out        io.Writer
	unitPolicy UnitFailurePolicy
	atomic     bool
	logger     *zap.Logger
}

// NewIngester creates an ingester writing to backend
func NewIngester(backend Backend, opts Options, logger *zap.Logger) *Ingester {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	policy := opts.UnitFailurePolicy
	if policy == "" {
		policy = UnitFailureIgnore
	}
	return &Ingester{
		backend:    backend,
		out:        out,
		unitPolicy: policy,
		atomic:     opts.Atomic,
		logger:     logger,
	}
}

// Run ingests doc. Degree and course insert failures are reported and their
// subtree skipped; a schema error in the document, an aborting unit failure
// or a cancelled context stop the run and are returned. Rows written before
// the error stay written unless the run is atomic.
func (i *Ingester) Run(ctx context.Context, doc *curriculum.Document) (*IngestMetrics, error) {
	startTime := time.Now()
	logger := i.logger.With(zap.String("run_id", uuid.NewString()))
	logger.Info("Starting ingestion",
		zap.Int("degrees", len(doc.Degrees)),
		zap.String("unit_failure_policy", string(i.unitPolicy)),
		zap.Bool("atomic", i.atomic))

	fmt.Fprintln(i.out, msgStart)

	metrics := &IngestMetrics{}
	var err error
	if i.atomic {
		tb, ok := i.backend.(Transactional)
		if !ok {
			return metrics, ErrAtomicUnsupported
		}
		err = tb.WithinTx(ctx, func(b Backend) error {
			return i.walk(ctx, b, doc, metrics, logger)
		})
		if err != nil {
			logger.Warn("Atomic ingestion rolled back", zap.Error(err))
			// Nothing from this run is left in the backend
			metrics = &IngestMetrics{}
		}
	} else {
		err = i.walk(ctx, i.backend, doc, metrics, logger)
	}

	if err != nil {
		logger.Error("Ingestion stopped", append(metrics.Fields(), zap.Error(err))...)
		return metrics, err
	}

	fmt.Fprintln(i.out, msgCompleted)
	logger.Info("Completed ingestion",
		append(metrics.Fields(), zap.Duration("duration", time.Since(startTime)))...)

	return metrics, nil
}

func (i *Ingester) walk(ctx context.Context, b Backend, doc *curriculum.Document, metrics *IngestMetrics, logger *zap.Logger) error {
	for _, degree := range doc.Degrees {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(i.out, msgProcessing, degree.Name)

		degreeID, err := b.InsertDegree(ctx, curriculum.DegreeRow{Name: degree.Name})
		if err != nil {
			metrics.DegreesFailed++
			metrics.skipDegree(countDegree(degree))
			fmt.Fprintf(i.out, msgDegreeFailed, degree.Name)
			logger.Warn("Degree insert failed, skipping its courses",
				zap.String("degree", degree.Name),
				zap.Error(err))
			continue
		}
		metrics.DegreesCreated++

		if degree.Err != nil {
			return degree.Err
		}

		for _, level := range degree.Levels {
			if err := i.ingestLevel(ctx, b, degree.Name, degreeID, level, metrics, logger); err != nil {
				return err
			}
		}
	}
	return nil
}

func (i *Ingester) ingestLevel(ctx context.Context, b Backend, degreeName string, degreeID interface{}, level curriculum.YearLevel, metrics *IngestMetrics, logger *zap.Logger) error {
	yearLevel, err := curriculum.ParseYearLevel(degreeName, level.Key)
	if err != nil {
		return err
	}
	if level.Err != nil {
		return level.Err
	}

	for _, course := range level.Courses {
		if course.Err != nil {
			return course.Err
		}
		if course.Name == nil {
			return &curriculum.SchemaError{Path: course.Path, Reason: `missing required key "izena"`}
		}

		courseID, err := b.InsertCourse(ctx, curriculum.CourseRow{
			DegreeID:               degreeID,
			YearLevel:              yearLevel,
			Name:                   *course.Name,
			Type:                   course.Type,
			Credits:                course.Credits,
			OfficialReferenceCodes: course.OfficialRAs,
		})
		if err != nil {
			metrics.CoursesFailed++
			metrics.UnitsSkipped += len(course.Units)
			fmt.Fprintf(i.out, msgCourseFailed, *course.Name)
			logger.Warn("Course insert failed, skipping its units",
				zap.String("degree", degreeName),
				zap.String("course", *course.Name),
				zap.Error(err))
			continue
		}
		metrics.CoursesCreated++

		for _, unit := range course.Units {
			if unit.Err != nil {
				return unit.Err
			}
			if err := i.ingestUnit(ctx, b, *course.Name, courseID, unit, metrics, logger); err != nil {
				return err
			}
		}
	}
	return nil
}

func (i *Ingester) ingestUnit(ctx context.Context, b Backend, courseName string, courseID interface{}, unit curriculum.UnitRecord, metrics *IngestMetrics, logger *zap.Logger) error {
	_, err := b.InsertUnit(ctx, curriculum.UnitRow{
		CourseID: courseID,
		UnitID:   unit.UnitID,
		Name:     unit.Name,
		Contents: unit.Contents,
		Date:     unit.Date,
	})
	if err == nil {
		metrics.UnitsCreated++
		return nil
	}

	metrics.UnitsFailed++
	switch i.unitPolicy {
	case UnitFailureReport:
		fmt.Fprintf(i.out, msgUnitFailed, unit.NameOrEmpty(), courseName)
		logger.Warn("Unit insert failed",
			zap.String("course", courseName),
			zap.String("unit", unit.NameOrEmpty()),
			zap.Error(err))
	case UnitFailureAbort:
		return &curriculum.InsertFailure{Entity: curriculum.EntityUnit, Name: unit.NameOrEmpty(), Err: err}
	default:
		logger.Debug("Unit insert failed, ignored",
			zap.String("course", courseName),
			zap.String("unit", unit.NameOrEmpty()),
			zap.Error(err))
	}
	return nil
}

func countDegree(d curriculum.Degree) levelCounter {
	var c levelCounter
	for _, level := range d.Levels {
		c.courses += len(level.Courses)
		for _, course := range level.Courses {
			c.units += len(course.Units)
		}
	}
	return c
}
