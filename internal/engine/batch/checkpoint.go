package batch

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rshade/apreboot/internal/logging"
)

// Checkpoint format versioning.
const (
	// CheckpointFormatVersion is written into every checkpoint.
	CheckpointFormatVersion = "1.0.0"

	// SupportedCheckpointVersions is the semver range accepted on load.
	SupportedCheckpointVersions = "^1"

	checkpointFilePrefix = ".checkpoint_"
	checkpointFileExt    = ".json"
	checkpointSchemaName = "checkpoint.schema.json"
)

// Checkpoint decoding errors.
var (
	ErrCheckpointInvalid     = errors.New("checkpoint does not match schema")
	ErrCheckpointUnsupported = errors.New("unsupported checkpoint format version")
)

//go:embed checkpoint.schema.json
var checkpointSchemaJSON []byte

//nolint:gochecknoglobals // Compiled once on first use.
var (
	checkpointSchema    *jsonschema.Schema
	checkpointSchemaErr error
	compileSchemaOnce   sync.Once
	supportedConstraint *semver.Constraints
)

// Checkpoint is the persisted progress of one task list.
// LastProcessedIndex is the 0-based index of the next unprocessed task.
type Checkpoint struct {
	FormatVersion      string          `json:"format_version"`
	LastProcessedIndex int             `json:"last_processed_index"`
	Success            int             `json:"success"`
	Failed             int             `json:"failed"`
	FailedTasks        []FailedTask    `json:"failed_tasks"`
	Skipped            int             `json:"skipped"`
	SkippedTasks       []SkippedTask   `json:"skipped_tasks"`
	SuccessTasks       []SucceededTask `json:"success_tasks"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CheckpointStore persists checkpoints by task-source key. It never returns
// errors: a missing or unreadable checkpoint loads as absent and failed
// writes are logged.
type CheckpointStore interface {
	Load(ctx context.Context, key string) (Checkpoint, bool)
	Save(ctx context.Context, key string, cp Checkpoint)
	Delete(ctx context.Context, key string)
}

// CheckpointKey derives the checkpoint key of a task file: its name without
// directory or extension.
func CheckpointKey(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func compileCheckpointSchema() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(checkpointSchemaJSON))
		if err != nil {
			checkpointSchemaErr = fmt.Errorf("unmarshal checkpoint schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err = compiler.AddResource(checkpointSchemaName, doc); err != nil {
			checkpointSchemaErr = fmt.Errorf("add checkpoint schema resource: %w", err)
			return
		}

		checkpointSchema, checkpointSchemaErr = compiler.Compile(checkpointSchemaName)
		if checkpointSchemaErr != nil {
			return
		}

		supportedConstraint, checkpointSchemaErr = semver.NewConstraint(SupportedCheckpointVersions)
	})
	return checkpointSchema, checkpointSchemaErr
}

// DecodeCheckpoint validates data against the checkpoint schema and the
// supported format versions, then decodes it.
func DecodeCheckpoint(data []byte) (Checkpoint, error) {
	schema, err := compileCheckpointSchema()
	if err != nil {
		return Checkpoint{}, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %w", ErrCheckpointInvalid, err)
	}
	if err = schema.Validate(doc); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %w", ErrCheckpointInvalid, err)
	}

	var cp Checkpoint
	if err = json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %w", ErrCheckpointInvalid, err)
	}

	version, err := semver.NewVersion(cp.FormatVersion)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w %q: %w", ErrCheckpointUnsupported, cp.FormatVersion, err)
	}
	if !supportedConstraint.Check(version) {
		return Checkpoint{}, fmt.Errorf("%w %q (supported %s)",
			ErrCheckpointUnsupported, cp.FormatVersion, SupportedCheckpointVersions)
	}
	return cp, nil
}

// FileCheckpointStore keeps each checkpoint in .checkpoint_<key>.json inside
// a directory.
type FileCheckpointStore struct {
	dir string
	now func() time.Time
}

// NewFileCheckpointStore returns a store rooted at dir ("" means the working
// directory).
func NewFileCheckpointStore(dir string) *FileCheckpointStore {
	return &FileCheckpointStore{dir: dir, now: time.Now}
}

// Path returns the checkpoint file for key.
func (s *FileCheckpointStore) Path(key string) string {
	return filepath.Join(s.dir, checkpointFilePrefix+key+checkpointFileExt)
}

// Read loads and validates the checkpoint for key. A missing file returns an
// error satisfying errors.Is(err, os.ErrNotExist).
func (s *FileCheckpointStore) Read(key string) (Checkpoint, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return Checkpoint{}, err
	}
	return DecodeCheckpoint(data)
}

// Load implements CheckpointStore.
func (s *FileCheckpointStore) Load(ctx context.Context, key string) (Checkpoint, bool) {
	log := logging.FromContext(ctx)
	path := s.Path(key)

	cp, err := s.Read(key)
	switch {
	case err == nil:
		log.Debug().Ctx(ctx).Str("path", path).Int("index", cp.LastProcessedIndex).Msg("loaded checkpoint")
		return cp, true
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Ctx(ctx).Str("path", path).Msg("no checkpoint found")
	default:
		log.Warn().Ctx(ctx).Err(err).Str("path", path).Msg("could not load checkpoint, starting from the beginning")
	}
	return Checkpoint{}, false
}

// Save implements CheckpointStore. The file is replaced atomically.
func (s *FileCheckpointStore) Save(ctx context.Context, key string, cp Checkpoint) {
	log := logging.FromContext(ctx)
	path := s.Path(key)

	if err := s.write(path, cp); err != nil {
		log.Error().Ctx(ctx).Err(err).Str("path", path).Msg("could not save checkpoint")
		return
	}
	log.Debug().Ctx(ctx).Str("path", path).Int("index", cp.LastProcessedIndex).Msg("checkpoint saved")
}

func (s *FileCheckpointStore) write(path string, cp Checkpoint) error {
	if cp.FormatVersion == "" {
		cp.FormatVersion = CheckpointFormatVersion
	}
	cp.UpdatedAt = s.now().UTC()
	if cp.SuccessTasks == nil {
		cp.SuccessTasks = []SucceededTask{}
	}
	if cp.SkippedTasks == nil {
		cp.SkippedTasks = []SkippedTask{}
	}
	if cp.FailedTasks == nil {
		cp.FailedTasks = []FailedTask{}
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	if s.dir != "" {
		if err = os.MkdirAll(s.dir, 0o750); err != nil {
			return fmt.Errorf("create checkpoint directory: %w", err)
		}
	}

	tempPath := path + ".tmp"
	if err = os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err = os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// Delete implements CheckpointStore. A missing file is not an error.
func (s *FileCheckpointStore) Delete(ctx context.Context, key string) {
	path := s.Path(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.FromContext(ctx).Error().Ctx(ctx).Err(err).Str("path", path).Msg("could not delete checkpoint")
	}
}
