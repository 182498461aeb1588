package availability

import (
	"slices"
	"strings"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
)

// StayNights enumerates the nights of a stay, check-in inclusive and
// check-out exclusive. It returns nil when checkOut is not after checkIn.
func StayNights(checkIn, checkOut time.Time) []string {
	from := domain.DateOf(checkIn)
	to := domain.DateOf(checkOut)
	if !to.After(from) {
		return nil
	}

	nights := make([]string, 0, int(to.Sub(from).Hours()/24))
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		nights = append(nights, domain.FormatDate(d))
	}
	return nights
}

func IsDateAvailable(room domain.Room, date time.Time) bool {
	return slices.Contains(room.Availability, domain.FormatDate(date))
}

// IsRoomAvailable is true iff every night in [checkIn, checkOut) is listed in
// the room's availability. An empty or inverted range is never available.
func IsRoomAvailable(room domain.Room, checkIn, checkOut time.Time) bool {
	nights := StayNights(checkIn, checkOut)
	if len(nights) == 0 {
		return false
	}
	return len(missing(room, nights)) == 0
}

// UnavailableNights returns the nights of the stay that are not offered.
func UnavailableNights(room domain.Room, checkIn, checkOut time.Time) []string {
	return missing(room, StayNights(checkIn, checkOut))
}

func missing(room domain.Room, nights []string) []string {
	offered := make(map[string]struct{}, len(room.Availability))
	for _, d := range room.Availability {
		offered[d] = struct{}{}
	}

	var out []string
	for _, n := range nights {
		if _, ok := offered[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// Check verifies a stay against the room's dates and capacity.
func Check(room domain.Room, checkIn, checkOut time.Time, guests int) error {
	if !domain.DateOf(checkOut).After(domain.DateOf(checkIn)) {
		return domain.ErrInvalidDateRange
	}

	unavailable := UnavailableNights(room, checkIn, checkOut)
	if len(unavailable) == 0 && guests <= room.Capacity {
		return nil
	}

	return &domain.AvailabilityError{
		RoomID:           room.ID,
		UnavailableDates: unavailable,
		Guests:           guests,
		Capacity:         room.Capacity,
	}
}

// FilterRooms applies the search filters. Zero-valued filters match every room.
func FilterRooms(rooms []domain.Room, f domain.SearchFilters) []domain.Room {
	var checkIn, checkOut time.Time
	datesSet := false
	if f.CheckIn != "" && f.CheckOut != "" {
		in, errIn := domain.ParseDate(f.CheckIn)
		out, errOut := domain.ParseDate(f.CheckOut)
		if errIn == nil && errOut == nil {
			checkIn, checkOut, datesSet = in, out, true
		}
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]domain.Room, 0, len(rooms))
	for _, room := range rooms {
		if query != "" && !strings.Contains(strings.ToLower(room.Name), query) {
			continue
		}
		if datesSet && !IsRoomAvailable(room, checkIn, checkOut) {
			continue
		}
		if f.Guests > 0 && room.Capacity < f.Guests {
			continue
		}
		if f.RoomType != "" && f.RoomType != "all" && room.Type != f.RoomType {
			continue
		}
		if f.MinPrice != nil && room.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && room.Price > *f.MaxPrice {
			continue
		}
		if !hasAll(room.Amenities, f.Amenities) {
			continue
		}
		out = append(out, room)
	}
	return out
}

func hasAll(have, want []string) bool {
	for _, a := range want {
		if !slices.Contains(have, a) {
			return false
		}
	}
	return true
}
