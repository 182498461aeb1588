package pricing

import (
	"math"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/availability"
	"github.com/diagnosis/hotel-bookings/internal/domain"
)

// CalculateNights is the whole-day difference between the calendar dates of
// checkOut and checkIn. It is negative for inverted ranges.
func CalculateNights(checkIn, checkOut time.Time) int {
	from := domain.DateOf(checkIn)
	to := domain.DateOf(checkOut)
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func TotalPrice(nightly float64, nights int) float64 {
	return nightly * float64(nights)
}

// QuoteStay prices a stay and reports its availability. Only a non-positive
// night count is an error; unavailable nights and capacity are reported in the
// quote itself.
func QuoteStay(room domain.Room, checkIn, checkOut time.Time, guests int) (domain.Quote, error) {
	nights := CalculateNights(checkIn, checkOut)
	if nights <= 0 {
		return domain.Quote{}, domain.ErrInvalidDateRange
	}

	unavailable := availability.UnavailableNights(room, checkIn, checkOut)
	return domain.Quote{
		RoomID:           room.ID,
		CheckIn:          domain.FormatDate(checkIn),
		CheckOut:         domain.FormatDate(checkOut),
		Guests:           guests,
		Nights:           nights,
		NightlyPrice:     room.Price,
		TotalPrice:       TotalPrice(room.Price, nights),
		Currency:         room.Currency,
		Available:        len(unavailable) == 0 && guests <= room.Capacity,
		UnavailableDates: unavailable,
		CapacityExceeded: guests > room.Capacity,
	}, nil
}
