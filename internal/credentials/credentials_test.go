package credentials_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danhigham/cometcharm/internal/credentials"
	"github.com/danhigham/cometcharm/internal/domain"
	"github.com/danhigham/cometcharm/internal/storage"
)

func newStore(t *testing.T) (*credentials.Store, *storage.Store) {
	t.Helper()
	kv, err := storage.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("storage.Open() error: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return credentials.NewStore(kv), kv
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	want := domain.Credentials{AppID: "A", AuthKey: "K", Region: "R"}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestStore_SaveTrims(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, domain.Credentials{AppID: " A ", AuthKey: "K\n", Region: "\tR"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	raw, err := kv.Get(ctx, credentials.Key)
	if err != nil {
		t.Fatal(err)
	}
	if raw != `{"appId":"A","authKey":"K","region":"R"}` {
		t.Errorf("stored JSON = %s", raw)
	}
}

func TestStore_SaveRejectsBlankFields(t *testing.T) {
	s, _ := newStore(t)

	err := s.Save(context.Background(), domain.Credentials{AppID: "A", AuthKey: "  ", Region: ""})
	var missing *credentials.MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("Save() error = %v, want MissingFieldsError", err)
	}
	if len(missing.Fields) != 2 || missing.Fields[0] != "Auth Key" || missing.Fields[1] != "Region" {
		t.Errorf("Fields = %v, want [Auth Key Region]", missing.Fields)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s, _ := newStore(t)

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got != (domain.Credentials{}) {
		t.Errorf("Load() = %+v, want empty", got)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()

	if err := kv.Set(ctx, credentials.Key, "{not json"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx)
	if !errors.Is(err, credentials.ErrCorrupt) {
		t.Errorf("Load() error = %v, want ErrCorrupt", err)
	}
	if got != (domain.Credentials{}) {
		t.Errorf("Load() = %+v, want empty", got)
	}
}

func TestStore_Clear(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, domain.Credentials{AppID: "A", AuthKey: "K", Region: "R"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil || got != (domain.Credentials{}) {
		t.Errorf("Load() after Clear = %+v, %v", got, err)
	}
}

func TestResolve(t *testing.T) {
	defaults := domain.Credentials{AppID: "dA", AuthKey: "dK", Region: "dR"}

	tests := []struct {
		name   string
		stored domain.Credentials
		want   domain.Credentials
	}{
		{"empty stored", domain.Credentials{}, defaults},
		{"all stored", domain.Credentials{AppID: "A", AuthKey: "K", Region: "R"}, domain.Credentials{AppID: "A", AuthKey: "K", Region: "R"}},
		{"partial stored", domain.Credentials{AppID: "A"}, domain.Credentials{AppID: "A", AuthKey: "dK", Region: "dR"}},
		{"whitespace stored", domain.Credentials{AppID: "  ", Region: "R"}, domain.Credentials{AppID: "dA", AuthKey: "dK", Region: "R"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := credentials.Resolve(tt.stored, defaults); got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	if credentials.Valid(domain.Credentials{AppID: "A", AuthKey: "K"}) {
		t.Error("Valid() = true with empty region")
	}
	if credentials.Valid(domain.Credentials{AppID: "A", AuthKey: "K", Region: " "}) {
		t.Error("Valid() = true with blank region")
	}
	if !credentials.Valid(domain.Credentials{AppID: "A", AuthKey: "K", Region: "R"}) {
		t.Error("Valid() = false for complete credentials")
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"abc":       "***",
		"abcdefgh":  "****efgh",
		"secretkey": "*****tkey",
	}
	for in, want := range tests {
		if got := credentials.Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
