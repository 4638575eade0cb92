// Package credentials persists the app credentials entered on the settings
// screen and resolves them against the configured defaults.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/danhigham/cometcharm/internal/domain"
	"github.com/danhigham/cometcharm/internal/storage"
)

// Key is the storage key holding the JSON-encoded credentials.
const Key = "appCredentials"

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldLabels maps struct fields to the labels shown on the settings form.
var fieldLabels = map[string]string{
	"AppID":   "App ID",
	"AuthKey": "Auth Key",
	"Region":  "Region",
}

// MissingFieldsError lists the credential fields that were empty after trimming.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing " + strings.Join(e.Fields, ", ")
}

// Validate trims c and reports the fields that are empty.
func Validate(c domain.Credentials) error {
	err := validate.Struct(c.Trimmed())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		label, ok := fieldLabels[fe.Field()]
		if !ok {
			label = fe.Field()
		}
		fields = append(fields, label)
	}
	sort.Strings(fields)
	return &MissingFieldsError{Fields: fields}
}

// Valid reports whether every field is non-empty after trimming.
func Valid(c domain.Credentials) bool {
	return Validate(c) == nil
}

// Resolve picks each stored field when non-empty, else the default.
func Resolve(stored, defaults domain.Credentials) domain.Credentials {
	stored = stored.Trimmed()
	defaults = defaults.Trimmed()
	out := defaults
	if stored.AppID != "" {
		out.AppID = stored.AppID
	}
	if stored.AuthKey != "" {
		out.AuthKey = stored.AuthKey
	}
	if stored.Region != "" {
		out.Region = stored.Region
	}
	return out
}

// KV is the subset of the durable store the credential store needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store reads and writes credentials under Key.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Load returns the stored credentials. A missing key yields empty
// credentials and no error; corrupt JSON yields empty credentials and
// ErrCorrupt so callers can log it.
func (s *Store) Load(ctx context.Context) (domain.Credentials, error) {
	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Credentials{}, nil
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("credentials: load: %w", err)
	}

	var c domain.Credentials
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return domain.Credentials{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return c, nil
}

// ErrCorrupt marks stored credentials that could not be decoded.
var ErrCorrupt = errors.New("credentials: stored value is corrupt")

// Save trims and validates c before writing it.
func (s *Store) Save(ctx context.Context, c domain.Credentials) error {
	c = c.Trimmed()
	if err := Validate(c); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("credentials: encode: %w", err)
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("credentials: save: %w", err)
	}
	return nil
}

// Clear removes the stored credentials.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, Key); err != nil {
		return fmt.Errorf("credentials: clear: %w", err)
	}
	return nil
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	r := []rune(secret)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
