package usecase

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"teammatch/internal/adapter/store"
	"teammatch/internal/adapter/vectorizer"
	"teammatch/internal/domain"
	"teammatch/internal/vector"
)

func TestEmbedSingle(t *testing.T) {
	Convey("Given a seeded store and empty indexes", t, func() {
		ctx := context.Background()
		f := newFixture(t, hashingFactory(domain.Dimension))
		f.seed(t)

		Convey("When two employees are embedded", func() {
			first, err := f.embed.EmbedEmployee(ctx, 1)
			So(err, ShouldBeNil)
			second, err := f.embed.EmbedEmployee(ctx, 2)
			So(err, ShouldBeNil)

			Convey("Then row ids are sequential from zero", func() {
				So(first, ShouldEqual, 0)
				So(second, ShouldEqual, 1)
				So(f.employees.Len(), ShouldEqual, 2)
			})

			Convey("Then the reference is stored on the record", func() {
				e, err := f.store.GetEmployee(ctx, 2)
				So(err, ShouldBeNil)
				So(e.EmbeddingRef, ShouldNotBeNil)
				So(*e.EmbeddingRef, ShouldEqual, 1)
				So(f.embed.vectorizer.EmployeeStale(e), ShouldBeFalse)
			})
		})

		Convey("When a project is embedded", func() {
			row, err := f.embed.EmbedProject(ctx, 101)
			So(err, ShouldBeNil)

			Convey("Then it lands in the project index, not the employee index", func() {
				So(row, ShouldEqual, 0)
				So(f.projects.Len(), ShouldEqual, 1)
				So(f.employees.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the employee does not exist", func() {
			_, err := f.embed.EmbedEmployee(ctx, 999)

			Convey("Then NotFound is returned and nothing is appended", func() {
				So(errors.Is(err, domain.ErrNotFound), ShouldBeTrue)
				So(f.employees.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestEmbedPending(t *testing.T) {
	Convey("Given a seeded store with nothing embedded", t, func() {
		ctx := context.Background()
		f := newFixture(t, hashingFactory(domain.Dimension))
		f.seed(t)

		Convey("When pending records are embedded", func() {
			progress := &countingProgress{}
			result, err := f.embed.EmbedPending(ctx, progress)
			So(err, ShouldBeNil)

			Convey("Then every employee and project is embedded", func() {
				So(result.EmployeesEmbedded, ShouldEqual, 4)
				So(result.ProjectsEmbedded, ShouldEqual, 2)
				So(result.Failures, ShouldBeEmpty)
				So(progress.max, ShouldEqual, 6)
				So(progress.done, ShouldEqual, 6)
				So(f.employees.Len(), ShouldEqual, 4)
				So(f.projects.Len(), ShouldEqual, 2)
			})

			Convey("Then a second run embeds nothing", func() {
				again, err := f.embed.EmbedPending(ctx, nil)
				So(err, ShouldBeNil)
				So(again.EmployeesEmbedded+again.ProjectsEmbedded, ShouldEqual, 0)
				So(again.UpToDate, ShouldEqual, 6)
				So(f.employees.Len(), ShouldEqual, 4)
			})

			Convey("Then editing a record makes only that record pending", func() {
				So(f.store.PutEmployee(ctx, domain.Employee{ID: 4, Name: "Dee", Skills: []string{"Figma", "CSS"}, Experience: 1}), ShouldBeNil)

				again, err := f.embed.EmbedPending(ctx, nil)
				So(err, ShouldBeNil)
				So(again.EmployeesEmbedded, ShouldEqual, 1)
				So(again.ProjectsEmbedded, ShouldEqual, 0)
				So(f.employees.Len(), ShouldEqual, 5)

				e, _ := f.store.GetEmployee(ctx, 4)
				So(*e.EmbeddingRef, ShouldEqual, 4)
			})
		})
	})

	Convey("Given an embedding model that cannot load", t, func() {
		ctx := context.Background()
		f := newFixture(t, failingFactory)
		f.seed(t)

		Convey("When pending records are embedded", func() {
			result, err := f.embed.EmbedPending(ctx, nil)

			Convey("Then the run succeeds with every record listed as a failure", func() {
				So(err, ShouldBeNil)
				So(result.Failures, ShouldHaveLength, 6)
				So(result.Failures[0].Class, ShouldEqual, domain.ClassEmployee)
				So(result.Failures[0].ID, ShouldEqual, 1)
				So(f.employees.Len(), ShouldEqual, 0)
			})

			Convey("Then the records stay pending", func() {
				employees, projects, fresh, err := f.embed.Pending(ctx)
				So(err, ShouldBeNil)
				So(employees, ShouldHaveLength, 4)
				So(projects, ShouldHaveLength, 2)
				So(fresh, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a model producing vectors of the wrong length", t, func() {
		ctx := context.Background()
		f := newFixture(t, hashingFactory(8))
		f.seed(t)

		Convey("When pending records are embedded", func() {
			_, err := f.embed.EmbedPending(ctx, nil)

			Convey("Then the run aborts with a dimension mismatch", func() {
				var mismatch *domain.DimensionMismatchError
				So(errors.As(err, &mismatch), ShouldBeTrue)
				So(mismatch.Expected, ShouldEqual, domain.Dimension)
				So(mismatch.Actual, ShouldEqual, 8)
				So(f.employees.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestEmbedWithDegradedIndex(t *testing.T) {
	Convey("Given an employee index whose backend is unavailable", t, func() {
		ctx := context.Background()
		f := newFixture(t, hashingFactory(domain.Dimension))
		f.seed(t)

		vec := vectorizer.New(hashingFactory(domain.Dimension), "hashing", domain.Dimension, nil)
		degraded := NewEmbedUseCase(f.store, vec, store.NewNullVectorIndex(domain.Dimension), f.projects, nil, zap.NewNop(), 2)

		Convey("When one employee is embedded", func() {
			_, err := degraded.EmbedEmployee(ctx, 1)

			Convey("Then the backend error surfaces and no reference is stored", func() {
				So(errors.Is(err, domain.ErrBackendUnavailable), ShouldBeTrue)
				e, err := f.store.GetEmployee(ctx, 1)
				So(err, ShouldBeNil)
				So(e.EmbeddingRef, ShouldBeNil)
			})
		})

		Convey("When pending records are embedded", func() {
			result, err := degraded.EmbedPending(ctx, nil)
			So(err, ShouldBeNil)

			Convey("Then employees are reported as failures and projects still embed", func() {
				So(result.EmployeesEmbedded, ShouldEqual, 0)
				So(result.ProjectsEmbedded, ShouldEqual, 2)
				So(result.Failures, ShouldHaveLength, 4)
				for _, failure := range result.Failures {
					So(errors.Is(failure.Err, domain.ErrBackendUnavailable), ShouldBeTrue)
				}
			})

			Convey("Then after the backend recovers the employees are still pending", func() {
				employees, projects, _, err := f.embed.Pending(ctx)
				So(err, ShouldBeNil)
				So(employees, ShouldHaveLength, 4)
				So(projects, ShouldBeEmpty)

				recovered, err := f.embed.EmbedPending(ctx, nil)
				So(err, ShouldBeNil)
				So(recovered.EmployeesEmbedded, ShouldEqual, 4)

				e, err := f.store.GetEmployee(ctx, 2)
				So(err, ShouldBeNil)
				So(e.EmbeddingRef, ShouldNotBeNil)
				stored, ok := f.employees.Get(*e.EmbeddingRef)
				So(ok, ShouldBeTrue)
				want, _, err := vec.EmbedEmployee(ctx, e)
				So(err, ShouldBeNil)
				So(vector.Dot(stored, want), ShouldAlmostEqual, 1.0, 1e-5)
			})
		})
	})
}
