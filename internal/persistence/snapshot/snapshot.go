package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cmenning/asu-calculator/internal/inventory"
)

//go:embed inventory.schema.json
var schemaJSON string

const schemaURL = "inventory.schema.json"

var schema = jsonschema.MustCompileString(schemaURL, schemaJSON)

// BackupSuffix is appended to the previous snapshot on save.
const BackupSuffix = ".backup"

// Store reads and writes one inventory snapshot file.
type Store struct {
	path   string
	fields []inventory.Field
	log    *log.Logger
}

func NewStore(path string, fields []inventory.Field, logger *log.Logger) *Store {
	return &Store{path: path, fields: fields, log: logger}
}

func (s *Store) Path() string { return s.path }

func (s *Store) BackupPath() string { return s.path + BackupSuffix }

// Load returns the stored inventory. A missing file yields an all-zero
// inventory; an unreadable or malformed one is logged and also yields the
// default. Values the schema rejects are logged and coerced.
func (s *Store) Load() (*inventory.Inventory, error) {
	inv, found, err := s.load()
	if err == nil && found {
		s.log.Printf("loaded inventory from %s", s.path)
	}
	return inv, err
}

// Peek is Load without the success log line, for readers that poll.
func (s *Store) Peek() (*inventory.Inventory, error) {
	inv, _, err := s.load()
	return inv, err
}

func (s *Store) load() (*inventory.Inventory, bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return inventory.New(s.fields), false, nil
		}
		return nil, false, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		s.log.Printf("error loading %s, creating new inventory: %v", s.path, err)
		return inventory.New(s.fields), false, nil
	}
	if _, ok := doc.(map[string]any); !ok {
		s.log.Printf("error loading %s, creating new inventory: not a json object", s.path)
		return inventory.New(s.fields), false, nil
	}
	if err := schema.Validate(doc); err != nil {
		s.log.Printf("%s: invalid values reset to defaults: %s", s.path, flattenValidation(err))
	}

	inv, err := inventory.Decode(raw, s.fields)
	if err != nil {
		s.log.Printf("error loading %s, creating new inventory: %v", s.path, err)
		return inventory.New(s.fields), false, nil
	}
	return inv, true, nil
}

// Save stamps last_updated, moves the previous file to the backup path and
// writes inv in full. The two steps are not atomic: a crash between them
// leaves only the backup behind.
func (s *Store) Save(inv *inventory.Inventory, now time.Time) error {
	inv.LastUpdated = &now

	b, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.BackupPath()); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
	}
	if err := os.WriteFile(s.path, append(b, '\n'), 0o644); err != nil {
		return err
	}
	s.log.Printf("inventory saved to %s", s.path)
	return nil
}

// ModTime reports the snapshot file's modification time (zero if missing).
func (s *Store) ModTime() time.Time {
	fi, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

func flattenValidation(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
