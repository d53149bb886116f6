package anonid

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var (
	idPattern   = regexp.MustCompile(`^[1-9][0-9]{7}$`)
	namePattern = regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+[0-9]{2,3}$`)
)

func TestUserIDIsStable(t *testing.T) {
	g := New(NewMemoryStorage())
	ctx := context.Background()

	first, err := g.UserID(ctx)
	if err != nil {
		t.Fatalf("UserID failed: %v", err)
	}
	if !idPattern.MatchString(first) {
		t.Errorf("UserID = %q, want 8 digits", first)
	}
	second, err := g.UserID(ctx)
	if err != nil {
		t.Fatalf("UserID failed: %v", err)
	}
	if first != second {
		t.Errorf("UserID not stable: %q then %q", first, second)
	}
}

func TestUserNameIsStable(t *testing.T) {
	g := New(NewMemoryStorage())
	ctx := context.Background()

	first, _ := g.UserName(ctx)
	second, _ := g.UserName(ctx)
	if first != second {
		t.Errorf("UserName not stable: %q then %q", first, second)
	}
	if !namePattern.MatchString(first) {
		t.Errorf("UserName = %q, want AdjectiveNounNumber", first)
	}
}

func TestGeneratedValueBounds(t *testing.T) {
	tests := []struct {
		name   string
		pick   int
		wantID string
	}{
		{name: "lowest", pick: 0, wantID: "10000000"},
		{name: "highest", pick: 89_999_999, wantID: "99999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(NewMemoryStorage())
			g.intN = func(n int) int {
				if tt.pick >= n {
					return n - 1
				}
				return tt.pick
			}
			id, err := g.UserID(context.Background())
			if err != nil {
				t.Fatalf("UserID failed: %v", err)
			}
			if id != tt.wantID {
				t.Errorf("UserID = %q, want %q", id, tt.wantID)
			}
			name, err := g.UserName(context.Background())
			if err != nil {
				t.Fatalf("UserName failed: %v", err)
			}
			if !namePattern.MatchString(name) {
				t.Errorf("UserName = %q out of shape", name)
			}
		})
	}
}

func TestWordListSizes(t *testing.T) {
	if len(adjectives) < 140 || len(nouns) < 140 {
		t.Errorf("word lists too small: %d adjectives, %d nouns", len(adjectives), len(nouns))
	}
	seen := make(map[string]bool)
	for _, w := range adjectives {
		if seen[w] {
			t.Errorf("duplicate adjective %q", w)
		}
		seen[w] = true
	}
}

func TestMemoryStorageFactoryScopesDevices(t *testing.T) {
	factory := NewMemoryStorageFactory()
	ctx := context.Background()

	a1, _ := New(factory("device-a")).UserID(ctx)
	a2, _ := New(factory("device-a")).UserID(ctx)
	if a1 != a2 {
		t.Errorf("same device got %q and %q", a1, a2)
	}

	if _, ok, _ := factory("device-b").Get(ctx, KeyUserID); ok {
		t.Error("device-b sees device-a's identity")
	}
}

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage down")
}
func (failingStorage) Set(context.Context, string, string) error { return errors.New("storage down") }

func TestStorageErrorsPropagate(t *testing.T) {
	if _, err := New(failingStorage{}).Identity(context.Background()); err == nil {
		t.Fatal("expected error from failing storage")
	}
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, s
}

func TestRedisStorageIdentityIsStable(t *testing.T) {
	client, s := setupRedis(t)
	ctx := context.Background()
	factory := NewRedisStorageFactory(client, time.Hour)

	first, err := New(factory("dev-1")).Identity(ctx)
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	second, err := New(factory("dev-1")).Identity(ctx)
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	if first != second {
		t.Errorf("identity changed: %+v then %+v", first, second)
	}

	if got, _ := s.Get("anon:dev-1:" + KeyUserID); got != first.ID {
		t.Errorf("redis holds %q, want %q", got, first.ID)
	}
	if ttl := s.TTL("anon:dev-1:" + KeyUserName); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}
}

func TestRedisStorageFirstWriteWins(t *testing.T) {
	client, _ := setupRedis(t)
	ctx := context.Background()
	st := NewRedisStorage(client, "dev-2", time.Hour)

	if err := st.Set(ctx, KeyUserID, "11111111"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set(ctx, KeyUserID, "22222222"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := New(st).UserID(ctx)
	if err != nil {
		t.Fatalf("UserID failed: %v", err)
	}
	if got != "11111111" {
		t.Errorf("UserID = %q, want first write", got)
	}
}

func TestRedisStorageExpiry(t *testing.T) {
	client, s := setupRedis(t)
	ctx := context.Background()
	st := NewRedisStorage(client, "dev-3", time.Minute)

	first, _ := New(st).UserID(ctx)
	s.FastForward(2 * time.Minute)
	if _, ok, _ := st.Get(ctx, KeyUserID); ok {
		t.Fatal("identity survived its TTL")
	}
	second, _ := New(st).UserID(ctx)
	if second == "" || !idPattern.MatchString(second) {
		t.Errorf("re-minted id %q invalid (previous %q)", second, first)
	}
}
