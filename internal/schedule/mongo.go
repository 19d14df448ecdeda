package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "weekly_schedules"

// MongoSource reads department schedules from the weekly_schedules collection.
type MongoSource struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{coll: db.Collection(collectionName), timeout: 5 * time.Second}
}

// EnsureIndexes creates the unique department index.
func (m *MongoSource) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "department", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create department index: %w", err)
	}
	return nil
}

func (m *MongoSource) GetSchedule(ctx context.Context, department string) (Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var s Schedule
	err := m.coll.FindOne(ctx, bson.M{"department": department}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Schedule{}, &NotFoundError{Department: department}
	}
	if err != nil {
		return Schedule{}, fmt.Errorf("load schedule %s: %w", department, err)
	}
	return s, nil
}

func (m *MongoSource) ListDepartments(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"department": 1}).
		SetSort(bson.D{{Key: "department", Value: 1}})
	cur, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer cur.Close(ctx)

	var docs []struct {
		Department string `bson:"department"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Department)
	}
	return out, nil
}

// Upsert replaces a department's courses.
func (m *MongoSource) Upsert(ctx context.Context, s Schedule) error {
	if err := validate(s); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.coll.UpdateOne(ctx,
		bson.M{"department": s.Department},
		bson.M{"$set": bson.M{"courses": s.Courses, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert schedule %s: %w", s.Department, err)
	}
	return nil
}

type upserter interface {
	Upsert(ctx context.Context, s Schedule) error
}

// SeedDefaults upserts DefaultSchedules. Running it twice leaves the same data.
func SeedDefaults(ctx context.Context, dst upserter) error {
	for _, s := range DefaultSchedules() {
		if err := dst.Upsert(ctx, s); err != nil {
			return err
		}
		log.Info().Str("department", s.Department).Int("courses", len(s.Courses)).Msg("seeded schedule")
	}
	return nil
}
