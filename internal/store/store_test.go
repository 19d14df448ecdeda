package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/local/attendplanner/internal/attendance"
	"github.com/local/attendplanner/internal/planner"
	"github.com/local/attendplanner/internal/schedule"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func sample() (attendance.Structured, planner.SkipPlan) {
	s := attendance.Summarize("22IT001", []attendance.Record{
		attendance.NewRecord("IT355", "IT355", attendance.Lecture, 24, 30),
		attendance.NewRecord("IT355", "IT355", attendance.Practical, 9, 10),
	})
	return s, planner.Plan(s, schedule.DefaultSchedules()[0].Courses, 75, 4)
}

func TestRecordStoreSaveAndGet(t *testing.T) {
	_, rdb := newRedis(t)
	rs := NewRecordStore(rdb, 0)
	ctx := context.Background()
	data, plan := sample()

	id, err := rs.Save(ctx, "22IT001", "4IT", data, plan)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := rs.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Department != "4IT" || got.StudentID != "22IT001" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.AttendanceData.OverallPercentage != data.OverallPercentage || len(got.AttendanceData.Records) != 2 {
		t.Fatalf("attendance not preserved: %+v", got.AttendanceData)
	}
	if got.AttendanceData.Records[1].ClassType != attendance.Practical {
		t.Fatalf("expected practical class type to survive, got %v", got.AttendanceData.Records[1].ClassType)
	}
	if got.Recommendations.Summary != plan.Summary {
		t.Fatalf("expected summary %+v, got %+v", plan.Summary, got.Recommendations.Summary)
	}
	if got.Recommendations.Recommendations[0].Recommendation != plan.Recommendations[0].Recommendation {
		t.Fatalf("recommendation not preserved")
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestRecordStoreGetMissing(t *testing.T) {
	_, rdb := newRedis(t)
	rs := NewRecordStore(rdb, 0)
	if _, err := rs.Get(context.Background(), "nope"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordStoreListLatestFirst(t *testing.T) {
	_, rdb := newRedis(t)
	rs := NewRecordStore(rdb, 0)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	rs.now = func() time.Time { n++; return base.Add(time.Duration(n) * time.Minute) }
	ctx := context.Background()
	data, plan := sample()

	var ids []string
	for _, dept := range []string{"4IT", "4CE", "4IT"} {
		id, err := rs.Save(ctx, "22IT001", dept, data, plan)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		ids = append(ids, id)
	}
	if _, err := rs.Save(ctx, "other", "4IT", data, plan); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := rs.ListByStudent(ctx, "22IT001", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Fatalf("expected latest two records first, got %d", len(got))
	}

	all, _ := rs.ListByStudent(ctx, "22IT001", 0)
	if len(all) != 3 {
		t.Fatalf("expected default limit to return all 3, got %d", len(all))
	}
}

func TestRecordStoreListSkipsExpired(t *testing.T) {
	mr, rdb := newRedis(t)
	rs := NewRecordStore(rdb, time.Hour)
	ctx := context.Background()
	data, plan := sample()

	if _, err := rs.Save(ctx, "s1", "4IT", data, plan); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	fresh, err := rs.Save(ctx, "s1", "4IT", data, plan)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := rs.ListByStudent(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != fresh {
		t.Fatalf("expected only the fresh record, got %d", len(got))
	}
}

func TestTextCache(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewTextCache(rdb, time.Minute)
	ctx := context.Background()
	key := ContentKey([]byte("png bytes"))

	if len(key) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(key))
	}
	if key == ContentKey([]byte("other bytes")) {
		t.Fatalf("expected different keys for different content")
	}
	if _, ok, err := c.Get(ctx, key); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, key, "IT101 24/30"); err != nil {
		t.Fatalf("set: %v", err)
	}
	text, ok, err := c.Get(ctx, key)
	if err != nil || !ok || text != "IT101 24/30" {
		t.Fatalf("expected cached text, got %q ok=%v err=%v", text, ok, err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, key); ok {
		t.Fatalf("expected entry to expire")
	}
}
