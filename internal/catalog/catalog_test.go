package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/hotel-bookings/internal/catalog"
	"github.com/diagnosis/hotel-bookings/internal/domain"
)

func TestLoad_Embedded(t *testing.T) {
	c, err := catalog.Load(context.Background(), catalog.JSONSource{})
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())

	room, err := c.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "Deluxe Ocean View", room.Name)
	assert.NotEmpty(t, room.Availability)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.json")
	body := `{"rooms":[{"id":"R1","name":"Test","price":1000,"capacity":2,"availability":["2025-06-01"]}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := catalog.Load(context.Background(), catalog.JSONSource{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		rooms []domain.Room
	}{
		{"missing id", []domain.Room{{Capacity: 1}}},
		{"duplicate id", []domain.Room{{ID: "a", Capacity: 1}, {ID: "a", Capacity: 1}}},
		{"zero capacity", []domain.Room{{ID: "a"}}},
		{"bad date", []domain.Room{{ID: "a", Capacity: 1, Availability: []string{"06/01/2025"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.New(tt.rooms)
			assert.Error(t, err)
		})
	}
}

func TestGet_Unknown(t *testing.T) {
	c, err := catalog.New([]domain.Room{{ID: "a", Capacity: 1}})
	require.NoError(t, err)

	_, err = c.Get("zzz")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomsAreCopies(t *testing.T) {
	c, err := catalog.New([]domain.Room{{ID: "a", Capacity: 1, Availability: []string{"2025-06-01"}}})
	require.NoError(t, err)

	room, _ := c.Get("a")
	room.Availability[0] = "2099-01-01"

	again, _ := c.Get("a")
	assert.Equal(t, "2025-06-01", again.Availability[0])
}

func TestSearch(t *testing.T) {
	c, err := catalog.Load(context.Background(), catalog.JSONSource{})
	require.NoError(t, err)

	suites := c.Search(domain.SearchFilters{RoomType: "suite"})
	require.Len(t, suites, 2)

	big := c.Search(domain.SearchFilters{Guests: 5})
	require.Len(t, big, 1)
	assert.Equal(t, "Pool Villa", big[0].Name)
}
