package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/hotel-bookings/internal/domain"
)

// RoomRepoImpl is the postgres room catalog source.
type RoomRepoImpl struct{ pool *pgxpool.Pool }

func NewRoomRepo(pool *pgxpool.Pool) *RoomRepoImpl { return &RoomRepoImpl{pool: pool} }

const roomCols = `id, name, type, price, currency, description,
image_url, images, capacity, amenities, size, bed_type,
availability`

func (r *RoomRepoImpl) Rooms(ctx context.Context) ([]domain.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms ORDER BY id`
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func scanRoom(row pgx.Row) (domain.Room, error) {
	var (
		room  domain.Room
		dates []time.Time
	)
	err := row.Scan(
		&room.ID, &room.Name, &room.Type, &room.Price, &room.Currency, &room.Description,
		&room.ImageURL, &room.Images, &room.Capacity, &room.Amenities, &room.Size, &room.BedType,
		&dates,
	)
	if err != nil {
		return domain.Room{}, err
	}

	room.Availability = make([]string, len(dates))
	for i, d := range dates {
		room.Availability[i] = domain.FormatDate(d)
	}
	return room, nil
}
