package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.Append(context.Background(), Event{Message: "x"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestService_StampsIDAndTime(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	fixed := time.Unix(1700000000, 0)
	svc.clock = func() time.Time { return fixed }

	if err := svc.Append(context.Background(), Event{Type: EventSessionCleared, IPAddress: "1.2.3.4"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].ID == "" {
		t.Fatalf("expected generated id")
	}
	if !evs[0].CreatedAt.Equal(fixed) {
		t.Fatalf("expected clock time, got %s", evs[0].CreatedAt)
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
}

func TestService_RecordOnNilServiceIsNoop(t *testing.T) {
	var svc *Service
	svc.Record(context.Background(), Event{Type: EventAccessDenied})
}

type failingRepo struct{}

func (failingRepo) Append(context.Context, Event) error { return errors.New("down") }

func TestService_RecordSwallowsRepoErrors(t *testing.T) {
	svc := NewService(failingRepo{})
	svc.Record(context.Background(), Event{Type: EventAccessDenied})
}

func TestLogRepo_WritesEvent(t *testing.T) {
	var buf bytes.Buffer
	repo := NewLogRepo(slog.New(slog.NewJSONHandler(&buf, nil)))
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventMediaTokenIssued, Identity: "alice", Room: "r1"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"type":"media_token_issued"`) || !strings.Contains(out, `"identity":"alice"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestRedisRepo_AppendsToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	svc := NewService(NewRedisRepo(rdb, ""))
	ctx := context.Background()
	if err := svc.Append(ctx, Event{Type: EventEmailVerified, RequestID: "rid"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := rdb.XRange(ctx, DefaultStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(msgs))
	}
	if msgs[0].Values["type"] != "email_verified" || msgs[0].Values["request_id"] != "rid" {
		t.Fatalf("unexpected entry: %v", msgs[0].Values)
	}
}
