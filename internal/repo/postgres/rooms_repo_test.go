package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/hotel-bookings/internal/catalog"
)

var _ catalog.Source = (*RoomRepoImpl)(nil)

// ---------- Mocks ----------

type fakeRow struct {
	values []any
	err    error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	if len(dest) != len(f.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(f.values))
	}
	for i, v := range f.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *float64:
			*d = v.(float64)
		case *int:
			*d = v.(int)
		case *[]string:
			*d = v.([]string)
		case *[]time.Time:
			*d = v.([]time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}

func TestScanRoom(t *testing.T) {
	row := fakeRow{values: []any{
		"1", "Deluxe Ocean View", "deluxe", 3500.0, "THB", "Sea-facing room",
		"/img/1.jpg", []string{"/img/1.jpg", "/img/1b.jpg"}, 2, []string{"wifi", "balcony"}, "32 m²", "King",
		[]time.Time{
			time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.October, 2, 0, 0, 0, 0, time.UTC),
		},
	}}

	room, err := scanRoom(row)
	require.NoError(t, err)
	assert.Equal(t, "Deluxe Ocean View", room.Name)
	assert.Equal(t, 2, room.Capacity)
	assert.Equal(t, []string{"2026-10-01", "2026-10-02"}, room.Availability)
}

func TestScanRoom_Error(t *testing.T) {
	_, err := scanRoom(fakeRow{err: pgx.ErrNoRows})
	require.ErrorIs(t, err, pgx.ErrNoRows)
}
