package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"

	"zentimer/internal/core/model"
	"zentimer/internal/logging"
)

// Snapshot is everything persisted about one document.
type Snapshot struct {
	Records  []model.TimerRecord
	Index    model.LineIndex
	Document string
	// HasDocument is false on a first run, before any document was saved.
	HasDocument bool
}

var recordValidator = validator.New(validator.WithRequiredStructEnabled())

// SaveSnapshot writes the records, the line index and the document.
func SaveSnapshot(ctx context.Context, store Store, snapshot Snapshot) error {
	records := make(map[string]model.TimerRecord, len(snapshot.Records))
	for _, record := range snapshot.Records {
		records[record.ID] = record
	}
	index := snapshot.Index
	if index == nil {
		index = model.LineIndex{}
	}

	values := []struct {
		key   string
		value any
	}{
		{key: KeyTimerRecords, value: records},
		{key: KeyLineIndex, value: index},
		{key: KeyDocument, value: snapshot.Document},
	}
	for _, item := range values {
		data, err := json.Marshal(item.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", item.key, err)
		}
		if err := store.Put(ctx, item.key, data); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot reads what SaveSnapshot wrote. Missing keys load as empty.
// A record that fails to decode or validate is dropped on its own; the
// rest of the store still loads. Only a failing store returns an error.
func LoadSnapshot(ctx context.Context, store Store, logger *log.Logger) (Snapshot, error) {
	logger = logging.OrNop(logger)
	var snapshot Snapshot

	data, found, err := get(ctx, store, KeyTimerRecords)
	if err != nil {
		return snapshot, err
	}
	if found {
		snapshot.Records = decodeRecords(data, logger)
	}

	data, found, err = get(ctx, store, KeyLineIndex)
	if err != nil {
		return snapshot, err
	}
	if found {
		if err := json.Unmarshal(data, &snapshot.Index); err != nil {
			logger.Warn().Err(err).Msg("discarding unreadable line index")
			snapshot.Index = nil
		}
	}

	data, found, err = get(ctx, store, KeyDocument)
	if err != nil {
		return snapshot, err
	}
	if found {
		if err := json.Unmarshal(data, &snapshot.Document); err != nil {
			logger.Warn().Err(err).Msg("discarding unreadable document")
		} else {
			snapshot.HasDocument = true
		}
	}

	return snapshot, nil
}

func get(ctx context.Context, store Store, key string) ([]byte, bool, error) {
	data, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	return data, true, nil
}

func decodeRecords(data []byte, logger *log.Logger) []model.TimerRecord {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn().Err(err).Msg("discarding unreadable timer records")
		return nil
	}

	records := make([]model.TimerRecord, 0, len(raw))
	for id, message := range raw {
		var record model.TimerRecord
		if err := json.Unmarshal(message, &record); err != nil {
			logger.Warn().Err(err).Str("id", id).Msg("discarding unreadable timer record")
			continue
		}
		if err := ValidateRecord(record); err != nil {
			logger.Warn().Err(err).Str("id", id).Msg("discarding invalid timer record")
			continue
		}
		if record.ID != id {
			logger.Warn().Str("id", id).Str("record_id", record.ID).Msg("discarding mismatched timer record")
			continue
		}
		records = append(records, record)
	}
	return records
}

// ValidateRecord checks a loaded record against the TimerRecord invariants.
func ValidateRecord(record model.TimerRecord) error {
	if err := recordValidator.Struct(record); err != nil {
		return fmt.Errorf("validate record: %w", err)
	}
	if record.Status == model.StatusRunning && record.StartEpochMs == 0 {
		return errors.New("validate record: running without anchor")
	}
	return nil
}
