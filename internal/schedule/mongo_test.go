package schedule

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const mockNS = "bunker_baba.weekly_schedules"

func TestMongoGetSchedule(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		src := NewMongoSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch, bson.D{
			{Key: "department", Value: "4IT"},
			{Key: "courses", Value: bson.A{
				bson.D{{Key: "course", Value: "IT355"}, {Key: "lectures", Value: 3}, {Key: "labs", Value: 2}},
				bson.D{{Key: "course", Value: "CE263"}, {Key: "lectures", Value: 2}, {Key: "labs", Value: 0}},
			}},
		}))

		got, err := src.GetSchedule(context.Background(), "4IT")
		if err != nil {
			mt.Fatalf("get schedule: %v", err)
		}
		want := Schedule{Department: "4IT", Courses: []CourseLoad{
			{CourseKey: "IT355", LecturesPerWeek: 3, LabsPerWeek: 2},
			{CourseKey: "CE263", LecturesPerWeek: 2, LabsPerWeek: 0},
		}}
		if !reflect.DeepEqual(got, want) {
			mt.Fatalf("expected %+v, got %+v", want, got)
		}
	})

	mt.Run("missing department", func(mt *mtest.T) {
		src := NewMongoSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch))

		_, err := src.GetSchedule(context.Background(), "9XX")
		if !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.Department != "9XX" {
			mt.Fatalf("expected NotFoundError for 9XX, got %v", err)
		}
	})

	mt.Run("server error", func(mt *mtest.T) {
		src := NewMongoSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}))

		_, err := src.GetSchedule(context.Background(), "4IT")
		if err == nil || errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected a wrapped server error, got %v", err)
		}
	})
}

func TestMongoListDepartments(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sorted by server", func(mt *mtest.T) {
		src := NewMongoSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch,
			bson.D{{Key: "department", Value: "4CE"}},
			bson.D{{Key: "department", Value: "4IT"}},
		))

		got, err := src.ListDepartments(context.Background())
		if err != nil {
			mt.Fatalf("list: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"4CE", "4IT"}) {
			mt.Fatalf("expected [4CE 4IT], got %v", got)
		}
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		src := NewMongoSource(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNS, mtest.FirstBatch))

		got, err := src.ListDepartments(context.Background())
		if err != nil || len(got) != 0 {
			mt.Fatalf("expected no departments, got %v (%v)", got, err)
		}
	})
}

func TestMongoSeedDefaults(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upserts every default twice over", func(mt *mtest.T) {
		src := NewMongoSource(mt.DB)
		n := len(DefaultSchedules())
		for i := 0; i < 2*n; i++ {
			mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))
		}
		if err := SeedDefaults(context.Background(), src); err != nil {
			mt.Fatalf("first seed: %v", err)
		}
		if err := SeedDefaults(context.Background(), src); err != nil {
			mt.Fatalf("second seed: %v", err)
		}
	})

	mt.Run("rejects invalid schedule before writing", func(mt *mtest.T) {
		src := NewMongoSource(mt.DB)
		err := src.Upsert(context.Background(), Schedule{Department: "4IT", Courses: []CourseLoad{{CourseKey: "IT355", LecturesPerWeek: -1}}})
		if err == nil {
			mt.Fatal("expected validation error")
		}
	})

	mt.Run("write failure", func(mt *mtest.T) {
		src := NewMongoSource(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		if err := src.Upsert(context.Background(), DefaultSchedules()[0]); err == nil {
			mt.Fatal("expected upsert error")
		}
	})
}
