// internal/savegame/store.go
package savegame

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"go-gameframe/internal/savegame/migrations"
	"go-gameframe/internal/state"
)

var (
	// ErrNotFound - в слоте нет сохранения.
	ErrNotFound = errors.New("savegame: slot not found")
	// ErrEmptySlot - операция без имени слота.
	ErrEmptySlot = errors.New("savegame: slot is required")
)

// Record - одна сохраненная машина: ее вид и доска.
type Record struct {
	Slot       string
	Owner      string
	Kind       state.Kind
	Blackboard map[string]any
	SavedAt    time.Time
}

// FromSnapshot строит запись для slot из снимка машины.
func FromSnapshot(slot, owner string, s state.Snapshot, at time.Time) Record {
	return Record{
		Slot:       slot,
		Owner:      owner,
		Kind:       s.Kind,
		Blackboard: s.Data,
		SavedAt:    at,
	}
}

// Snapshot превращает запись обратно в снимок машины.
func (r Record) Snapshot() state.Snapshot {
	data := make(map[string]any, len(r.Blackboard))
	for k, v := range r.Blackboard {
		data[k] = v
	}
	return state.Snapshot{Kind: r.Kind, Data: data}
}

// Store хранит сохранения в SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open открывает хранилище SQLite и применяет встроенные миграции.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close закрывает соединение SQLite.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// Save пишет rec, заменяя содержимое слота.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	slot := strings.TrimSpace(rec.Slot)
	if slot == "" {
		return ErrEmptySlot
	}
	board, err := EncodeBlackboard(rec.Blackboard)
	if err != nil {
		return err
	}
	savedAt := rec.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO saves (slot, owner, kind, blackboard, saved_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		   owner = excluded.owner,
		   kind = excluded.kind,
		   blackboard = excluded.blackboard,
		   saved_at = excluded.saved_at`,
		slot,
		rec.Owner,
		string(rec.Kind),
		string(board),
		toMillis(savedAt),
	)
	if err != nil {
		return fmt.Errorf("save slot %q: %w", slot, err)
	}
	return nil
}

// Load читает запись из slot.
func (s *Store) Load(ctx context.Context, slot string) (Record, error) {
	if err := s.ready(ctx); err != nil {
		return Record{}, err
	}
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return Record{}, ErrEmptySlot
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT owner, kind, blackboard, saved_at FROM saves WHERE slot = ?`,
		slot,
	)
	var (
		rec     = Record{Slot: slot}
		kind    string
		board   string
		savedAt int64
	)
	if err := row.Scan(&rec.Owner, &kind, &board, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("%w: %q", ErrNotFound, slot)
		}
		return Record{}, fmt.Errorf("load slot %q: %w", slot, err)
	}
	data, err := DecodeBlackboard([]byte(board))
	if err != nil {
		return Record{}, fmt.Errorf("load slot %q: %w", slot, err)
	}
	rec.Kind = state.Kind(kind)
	rec.Blackboard = data
	rec.SavedAt = fromMillis(savedAt)
	return rec, nil
}

// Delete удаляет slot. Удаление пустого слота не ошибка.
func (s *Store) Delete(ctx context.Context, slot string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, strings.TrimSpace(slot)); err != nil {
		return fmt.Errorf("delete slot %q: %w", slot, err)
	}
	return nil
}

// List возвращает имена слотов, свежие первыми.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT slot FROM saves ORDER BY saved_at DESC, slot ASC`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("scan save slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saves: %w", err)
	}
	return slots, nil
}
