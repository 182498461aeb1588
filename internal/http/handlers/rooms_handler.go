package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/internal/service"
)

type RoomsHandler struct {
	Bookings service.BookingService
}

func NewRoomsHandler(bookings service.BookingService) *RoomsHandler {
	return &RoomsHandler{Bookings: bookings}
}

func (h *RoomsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/quote", h.quote)
	return r
}

type roomsResponse struct {
	Rooms []domain.Room `json:"rooms"`
	Count int           `json:"count"`
}

func (h *RoomsHandler) list(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilters(w, r)
	if !ok {
		return
	}
	rooms := h.Bookings.ListRooms(r.Context(), f)
	if rooms == nil {
		rooms = []domain.Room{}
	}
	response.JSON(w, http.StatusOK, roomsResponse{Rooms: rooms, Count: len(rooms)})
}

func (h *RoomsHandler) get(w http.ResponseWriter, r *http.Request) {
	room, err := h.Bookings.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, room)
}

func (h *RoomsHandler) quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	guests := 1
	if g := q.Get("guests"); g != "" {
		n, err := strconv.Atoi(g)
		if err != nil {
			response.BadRequest(w, "guests must be a number")
			return
		}
		guests = n
	}

	quote, err := h.Bookings.Quote(r.Context(), chi.URLParam(r, "id"), q.Get("check_in"), q.Get("check_out"), guests)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, quote)
}

func parseFilters(w http.ResponseWriter, r *http.Request) (domain.SearchFilters, bool) {
	q := r.URL.Query()
	f := domain.SearchFilters{
		Query:    q.Get("q"),
		CheckIn:  q.Get("check_in"),
		CheckOut: q.Get("check_out"),
		RoomType: q.Get("type"),
	}

	if g := q.Get("guests"); g != "" {
		n, err := strconv.Atoi(g)
		if err != nil || n < 0 {
			response.BadRequest(w, "guests must be a positive number")
			return f, false
		}
		f.Guests = n
	}
	for _, p := range []struct {
		key string
		dst **float64
	}{{"min_price", &f.MinPrice}, {"max_price", &f.MaxPrice}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			response.BadRequest(w, p.key+" must be a number")
			return f, false
		}
		*p.dst = &n
	}
	if a := q.Get("amenities"); a != "" {
		for _, name := range strings.Split(a, ",") {
			if name = strings.TrimSpace(name); name != "" {
				f.Amenities = append(f.Amenities, name)
			}
		}
	}
	return f, true
}
