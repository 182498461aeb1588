package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/diagnosis/hotel-bookings/internal/availability"
	"github.com/diagnosis/hotel-bookings/internal/domain"
)

//go:embed data/rooms.json
var embedded embed.FS

// Source supplies the room records. The Postgres room repo implements it.
type Source interface {
	Rooms(ctx context.Context) ([]domain.Room, error)
}

// JSONSource reads {"rooms": [...]} from a file, or from the built-in catalog
// when Path is empty.
type JSONSource struct {
	Path string
}

func (s JSONSource) Rooms(_ context.Context) ([]domain.Room, error) {
	var (
		raw []byte
		err error
	)
	if s.Path == "" {
		raw, err = embedded.ReadFile("data/rooms.json")
	} else {
		raw, err = os.ReadFile(s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var doc struct {
		Rooms []domain.Room `json:"rooms"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return doc.Rooms, nil
}

// Catalog is the read-only room list, loaded once.
type Catalog struct {
	rooms []domain.Room
	byID  map[string]int
}

func Load(ctx context.Context, src Source) (*Catalog, error) {
	rooms, err := src.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	return New(rooms)
}

func New(rooms []domain.Room) (*Catalog, error) {
	c := &Catalog{
		rooms: make([]domain.Room, len(rooms)),
		byID:  make(map[string]int, len(rooms)),
	}
	for i, r := range rooms {
		if r.ID == "" {
			return nil, fmt.Errorf("room at index %d has no id", i)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate room id %q", r.ID)
		}
		if r.Capacity < 1 {
			return nil, fmt.Errorf("room %q has capacity %d", r.ID, r.Capacity)
		}
		for _, d := range r.Availability {
			if _, err := domain.ParseDate(d); err != nil {
				return nil, fmt.Errorf("room %q: %w", r.ID, err)
			}
		}
		c.rooms[i] = cloneRoom(r)
		c.byID[r.ID] = i
	}
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.rooms)
}

// All returns copies so callers cannot change the catalog.
func (c *Catalog) All() []domain.Room {
	out := make([]domain.Room, len(c.rooms))
	for i, r := range c.rooms {
		out[i] = cloneRoom(r)
	}
	return out
}

func (c *Catalog) Get(id string) (domain.Room, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Room{}, fmt.Errorf("room %q: %w", id, domain.ErrRoomNotFound)
	}
	return cloneRoom(c.rooms[i]), nil
}

func (c *Catalog) Search(f domain.SearchFilters) []domain.Room {
	return availability.FilterRooms(c.All(), f)
}

func cloneRoom(r domain.Room) domain.Room {
	r.Images = slices.Clone(r.Images)
	r.Amenities = slices.Clone(r.Amenities)
	r.Availability = slices.Clone(r.Availability)
	return r
}
