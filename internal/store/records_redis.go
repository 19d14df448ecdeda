package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/local/attendplanner/internal/attendance"
	"github.com/local/attendplanner/internal/planner"
)

const DefaultListLimit = 10

var ErrRecordNotFound = errors.New("record not found")

// Record is one saved analysis: the structured attendance and the plan built from it.
type Record struct {
	ID              string                `json:"id"`
	StudentID       string                `json:"student_id"`
	Department      string                `json:"department"`
	AttendanceData  attendance.Structured `json:"attendance_data"`
	Recommendations planner.SkipPlan      `json:"recommendations"`
	CreatedAt       time.Time             `json:"created_at"`
}

// RecordStore keeps records as hashes and indexes them per student in a sorted set.
type RecordStore struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
	now    func() time.Time
}

// NewRecordStore uses ttl for record expiry; 0 keeps records forever.
func NewRecordStore(client *redis.Client, ttl time.Duration) *RecordStore {
	return &RecordStore{client: client, keyNS: "attendance", ttl: ttl, now: time.Now}
}

func (s *RecordStore) recordKey(id string) string { return fmt.Sprintf("%s:record:%s", s.keyNS, id) }
func (s *RecordStore) studentKey(studentID string) string {
	return fmt.Sprintf("%s:student:%s:records", s.keyNS, studentID)
}

// Save stores a record and returns its id.
func (s *RecordStore) Save(ctx context.Context, studentID, department string, data attendance.Structured, plan planner.SkipPlan) (string, error) {
	id := uuid.NewString()
	created := s.now().UTC()

	att, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode attendance: %w", err)
	}
	pl, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("encode plan: %w", err)
	}

	key := s.recordKey(id)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"student_id":      studentID,
		"department":      department,
		"attendance_data": string(att),
		"recommendations": string(pl),
		"created_at":      created.Format(time.RFC3339Nano),
	})
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	pipe.ZAdd(ctx, s.studentKey(studentID), redis.Z{Score: float64(created.UnixNano()), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("save record: %w", err)
	}
	return id, nil
}

// Get returns ErrRecordNotFound when the id is unknown or expired.
func (s *RecordStore) Get(ctx context.Context, id string) (Record, error) {
	res, err := s.client.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return Record{}, err
	}
	if len(res) == 0 {
		return Record{}, ErrRecordNotFound
	}
	r := Record{ID: id, StudentID: res["student_id"], Department: res["department"]}
	if v := res["created_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			r.CreatedAt = t
		}
	}
	if err := json.Unmarshal([]byte(res["attendance_data"]), &r.AttendanceData); err != nil {
		return Record{}, fmt.Errorf("decode attendance of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(res["recommendations"]), &r.Recommendations); err != nil {
		return Record{}, fmt.Errorf("decode plan of %s: %w", id, err)
	}
	return r, nil
}

// ListByStudent returns the latest records first. Index entries whose record
// has expired are dropped from the index.
func (s *RecordStore) ListByStudent(ctx context.Context, studentID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	idx := s.studentKey(studentID)
	out := make([]Record, 0, limit)
	var start int64
	for len(out) < limit {
		ids, err := s.client.ZRevRange(ctx, idx, start, start+int64(limit)-1).Result()
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}
		start += int64(len(ids))
		for _, id := range ids {
			r, err := s.Get(ctx, id)
			if errors.Is(err, ErrRecordNotFound) {
				s.client.ZRem(ctx, idx, id)
				start--
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
