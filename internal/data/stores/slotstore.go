package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colonyops/ans/internal/core/slot"
	"github.com/colonyops/ans/internal/data/db"
	"github.com/jmoiron/sqlx"
)

// SlotStore implements slot.Store using SQLite.
type SlotStore struct {
	db *db.DB
}

var _ slot.Store = (*SlotStore)(nil)

// NewSlotStore creates a new SQLite-backed slot store.
func NewSlotStore(db *db.DB) *SlotStore {
	return &SlotStore{db: db}
}

type slotRow struct {
	Bundle           string         `db:"bundle"`
	UserID           int32          `db:"user_id"`
	SlotType         int32          `db:"slot_type"`
	Level            int32          `db:"level"`
	Description      string         `db:"description"`
	Sound            sql.NullString `db:"sound"`
	VibrationValues  string         `db:"vibration_values"`
	VibrationEnabled sql.NullBool   `db:"vibration_enabled"`
	BadgeFlag        bool           `db:"badge_flag"`
	BypassDnd        bool           `db:"bypass_dnd"`
	LightEnabled     bool           `db:"light_enabled"`
	LightColor       int32          `db:"light_color"`
	Enabled          bool           `db:"enabled"`
	UpdatedAt        int64          `db:"updated_at"`
}

const slotColumns = `bundle, user_id, slot_type, level, description, sound, vibration_values,
	vibration_enabled, badge_flag, bypass_dnd, light_enabled, light_color, enabled, updated_at`

const upsertSlot = `
	INSERT INTO slots (` + slotColumns + `)
	VALUES (:bundle, :user_id, :slot_type, :level, :description, :sound, :vibration_values,
		:vibration_enabled, :badge_flag, :bypass_dnd, :light_enabled, :light_color, :enabled, :updated_at)
	ON CONFLICT (bundle, user_id, slot_type) DO UPDATE SET
		level = excluded.level,
		description = excluded.description,
		sound = excluded.sound,
		vibration_values = excluded.vibration_values,
		vibration_enabled = excluded.vibration_enabled,
		badge_flag = excluded.badge_flag,
		bypass_dnd = excluded.bypass_dnd,
		light_enabled = excluded.light_enabled,
		light_color = excluded.light_color,
		enabled = excluded.enabled,
		updated_at = excluded.updated_at`

// Save inserts or replaces the slot for (owner, s.Type).
func (s *SlotStore) Save(ctx context.Context, owner slot.Owner, sl slot.Slot) error {
	row, err := slotToRow(owner, sl)
	if err != nil {
		return err
	}
	if _, err := s.db.X().NamedExecContext(ctx, upsertSlot, row); err != nil {
		return fmt.Errorf("save slot %s: %w", sl.Type, err)
	}
	return nil
}

// SaveAll saves every slot in one transaction.
func (s *SlotStore) SaveAll(ctx context.Context, owner slot.Owner, slots []slot.Slot) error {
	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, sl := range slots {
			row, err := slotToRow(owner, sl)
			if err != nil {
				return err
			}
			if _, err := tx.NamedExecContext(ctx, upsertSlot, row); err != nil {
				return fmt.Errorf("save slot %s: %w", sl.Type, err)
			}
		}
		return nil
	})
}

// Get returns slot.ErrNotFound when the slot does not exist.
func (s *SlotStore) Get(ctx context.Context, owner slot.Owner, t slot.Type) (slot.Slot, error) {
	var row slotRow
	err := s.db.X().GetContext(ctx, &row,
		`SELECT `+slotColumns+` FROM slots WHERE bundle = ? AND user_id = ? AND slot_type = ?`,
		owner.Bundle, owner.UserID, int32(t))
	if IsNotFoundError(err) {
		return slot.Slot{}, slot.ErrNotFound
	}
	if err != nil {
		return slot.Slot{}, fmt.Errorf("get slot %s: %w", t, err)
	}
	return rowToSlot(row)
}

// List returns the owner's slots ordered by type.
func (s *SlotStore) List(ctx context.Context, owner slot.Owner) ([]slot.Slot, error) {
	var rows []slotRow
	err := s.db.X().SelectContext(ctx, &rows,
		`SELECT `+slotColumns+` FROM slots WHERE bundle = ? AND user_id = ? ORDER BY slot_type`,
		owner.Bundle, owner.UserID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	out := make([]slot.Slot, 0, len(rows))
	for _, row := range rows {
		sl, err := rowToSlot(row)
		if err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, nil
}

// Count returns the number of slots the owner has.
func (s *SlotStore) Count(ctx context.Context, owner slot.Owner) (int, error) {
	var n int
	err := s.db.X().GetContext(ctx, &n,
		`SELECT COUNT(*) FROM slots WHERE bundle = ? AND user_id = ?`, owner.Bundle, owner.UserID)
	if err != nil {
		return 0, fmt.Errorf("count slots: %w", err)
	}
	return n, nil
}

// Delete returns slot.ErrNotFound when the slot does not exist.
func (s *SlotStore) Delete(ctx context.Context, owner slot.Owner, t slot.Type) error {
	res, err := s.db.X().ExecContext(ctx,
		`DELETE FROM slots WHERE bundle = ? AND user_id = ? AND slot_type = ?`,
		owner.Bundle, owner.UserID, int32(t))
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", t, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", t, err)
	}
	if n == 0 {
		return slot.ErrNotFound
	}
	return nil
}

// DeleteAll removes every slot of the owner.
func (s *SlotStore) DeleteAll(ctx context.Context, owner slot.Owner) error {
	_, err := s.db.X().ExecContext(ctx,
		`DELETE FROM slots WHERE bundle = ? AND user_id = ?`, owner.Bundle, owner.UserID)
	if err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	return nil
}

func slotToRow(owner slot.Owner, sl slot.Slot) (slotRow, error) {
	values := sl.VibrationValues
	if values == nil {
		values = []int64{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return slotRow{}, fmt.Errorf("marshal vibration values: %w", err)
	}

	row := slotRow{
		Bundle:          owner.Bundle,
		UserID:          owner.UserID,
		SlotType:        int32(sl.Type),
		Level:           int32(sl.Level),
		Description:     sl.Description,
		VibrationValues: string(data),
		BadgeFlag:       sl.BadgeFlag,
		BypassDnd:       sl.BypassDnd,
		LightEnabled:    sl.LightEnabled,
		LightColor:      sl.LightColor,
		Enabled:         !sl.Disabled,
		UpdatedAt:       time.Now().UnixNano(),
	}
	if sl.Sound != nil {
		row.Sound = sql.NullString{String: *sl.Sound, Valid: true}
	}
	if sl.VibrationEnabled != nil {
		row.VibrationEnabled = sql.NullBool{Bool: *sl.VibrationEnabled, Valid: true}
	}
	return row, nil
}

func rowToSlot(row slotRow) (slot.Slot, error) {
	sl := slot.Slot{
		Type:         slot.Type(row.SlotType),
		Level:        slot.Level(row.Level),
		Description:  row.Description,
		BadgeFlag:    row.BadgeFlag,
		BypassDnd:    row.BypassDnd,
		LightEnabled: row.LightEnabled,
		LightColor:   row.LightColor,
		Disabled:     !row.Enabled,
	}
	if err := json.Unmarshal([]byte(row.VibrationValues), &sl.VibrationValues); err != nil {
		return slot.Slot{}, fmt.Errorf("unmarshal vibration values: %w", err)
	}
	if sl.VibrationValues == nil {
		sl.VibrationValues = []int64{}
	}
	if row.Sound.Valid {
		sound := row.Sound.String
		sl.Sound = &sound
	}
	if row.VibrationEnabled.Valid {
		enabled := row.VibrationEnabled.Bool
		sl.VibrationEnabled = &enabled
	}
	return sl, nil
}
