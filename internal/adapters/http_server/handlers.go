package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wleydkb/TravelProjectBackEnd/internal/app"
	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
)

// Narrow views of the app services, so handlers can be exercised with fakes.
type (
	FlightSearcher interface {
		Search(ctx context.Context, q domain.SearchQuery) ([]domain.FlightOffer, error)
	}
	Reconfirmer interface {
		Reconfirm(ctx context.Context, offerID string) (domain.PricingQuote, error)
	}
	BookingOps interface {
		CreateBooking(ctx context.Context, userID int64, offerID string, passengers int) (domain.Booking, error)
		ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
		CancelBooking(ctx context.Context, id, userID int64) (bool, error)
	}
	UserOps interface {
		Register(ctx context.Context, fullName, email, password string) (domain.User, error)
		Login(ctx context.Context, email, password string) (string, error)
		GetUser(ctx context.Context, id int64) (domain.User, error)
		UpdateUser(ctx context.Context, id int64, fullName, email string) (domain.User, error)
		DeleteUser(ctx context.Context, id int64) (bool, error)
		ListUsers(ctx context.Context, page, pageSize int) (app.UserPage, error)
	}
)

type Handlers struct {
	Flights  FlightSearcher
	Pricing  Reconfirmer
	Bookings BookingOps
	Users    UserOps
	JWTKey   []byte
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/v1/flights/search", h.searchFlights)
	s.mux.Get("/v1/flights/{offerId}/price", h.priceOffer)

	s.mux.Post("/v1/users/register", h.register)
	s.mux.Post("/v1/users/login", h.login)

	s.mux.Group(func(r chi.Router) {
		r.Use(Auth(h.JWTKey))
		r.Get("/v1/users/me", h.currentUser)
		r.Get("/v1/users", h.listUsers)
		r.Get("/v1/users/{id}", h.getUser)
		r.Put("/v1/users/{id}", h.updateUser)
		r.Delete("/v1/users/{id}", h.deleteUser)

		r.Post("/v1/bookings", h.createBooking)
		r.Get("/v1/bookings", h.listBookings)
		r.Delete("/v1/bookings/{id}", h.cancelBooking)
	})
}

// ---- problem+json rendering ----

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Everything in
// the taxonomy propagates uncaught up to here; nothing is retried.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrPriceUnavailable):
		writeProblem(w, http.StatusConflict, "Price Unavailable", err.Error())
	case errors.Is(err, domain.ErrParse):
		writeProblem(w, http.StatusBadGateway, "Provider Contract Violation", err.Error())
	case errors.Is(err, domain.ErrAuth), errors.Is(err, domain.ErrUpstream):
		writeProblem(w, http.StatusServiceUnavailable, "Provider Unavailable", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
	case errors.Is(err, domain.ErrEmailTaken):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// ---- flights ----

type offerDTO struct {
	OfferID     string          `json:"offerId"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	DepartureAt time.Time       `json:"departureAt"`
	ArrivalAt   time.Time       `json:"arrivalAt"`
	Airline     string          `json:"airline"`
	Duration    string          `json:"duration"`
	Stops       int             `json:"stops"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
}

func (h *Handlers) searchFlights(w http.ResponseWriter, r *http.Request) {
	qp := r.URL.Query()
	origin := strings.ToUpper(strings.TrimSpace(qp.Get("origin")))
	destination := strings.ToUpper(strings.TrimSpace(qp.Get("destination")))
	if len(origin) != 3 || len(destination) != 3 {
		writeProblem(w, http.StatusBadRequest, "Invalid Route", "origin and destination are required IATA codes")
		return
	}
	depDate, err := time.ParseInLocation("2006-01-02", qp.Get("date"), time.UTC)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
		return
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if depDate.Before(today) {
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "departure date must be today or later")
		return
	}

	q := domain.SearchQuery{
		Origin:        origin,
		Destination:   destination,
		DepartureDate: depDate,
		Currency:      strings.TrimSpace(qp.Get("currency")),
	}
	if rd := qp.Get("returnDate"); rd != "" {
		ret, err := time.ParseInLocation("2006-01-02", rd, time.UTC)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Date", "returnDate must be YYYY-MM-DD")
			return
		}
		q.ReturnDate = &ret
	}
	if a := qp.Get("adults"); a != "" {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			writeProblem(w, http.StatusBadRequest, "Invalid Adults", "adults must be a positive integer")
			return
		}
		q.Adults = n
	}
	if m := qp.Get("max"); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || n < 1 {
			writeProblem(w, http.StatusBadRequest, "Invalid Max", "max must be a positive integer")
			return
		}
		q.Max = n
	}

	offers, err := h.Flights.Search(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]offerDTO, 0, len(offers))
	for _, o := range offers {
		out = append(out, offerDTO{
			OfferID:     o.OfferID,
			Origin:      o.Origin,
			Destination: o.Destination,
			DepartureAt: o.DepartureAt,
			ArrivalAt:   o.ArrivalAt,
			Airline:     o.Airline,
			Duration:    o.Duration,
			Stops:       o.Stops,
			Price:       o.Price,
			Currency:    o.Currency,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type quoteDTO struct {
	OfferID       string          `json:"offerId"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Airline       string          `json:"airline"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DepartureDate string          `json:"departureDate"`
}

func (h *Handlers) priceOffer(w http.ResponseWriter, r *http.Request) {
	offerID := chi.URLParam(r, "offerId")
	quote, err := h.Pricing.Reconfirm(r.Context(), offerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteDTO{
		OfferID:       quote.OfferID,
		Total:         quote.Total,
		Currency:      quote.Currency,
		Airline:       quote.Airline,
		Origin:        quote.Origin,
		Destination:   quote.Destination,
		DepartureDate: quote.DepartureDate.Format("2006-01-02"),
	})
}

// ---- users ----

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	u, err := h.Users.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		// taxonomy routing: validation → 400, duplicate email → 409,
		// infrastructure failures → 500
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	token, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type userDTO struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserID(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	u, err := h.Users.GetUser(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	u, err := h.Users.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (h *Handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	u, err := h.Users.UpdateUser(r.Context(), id, req.FullName, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

func (h *Handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	done, err := h.Users.DeleteUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !done {
		writeProblem(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type userPageDTO struct {
	Users    []userDTO `json:"users"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Total    int       `json:"total"`
}

func (h *Handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	qp := r.URL.Query()
	page, _ := strconv.Atoi(qp.Get("page"))
	pageSize, _ := strconv.Atoi(qp.Get("pageSize"))

	pg, err := h.Users.ListUsers(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	out := userPageDTO{Users: make([]userDTO, 0, len(pg.Users)), Page: pg.Page, PageSize: pg.PageSize, Total: pg.Total}
	for _, u := range pg.Users {
		out.Users = append(out.Users, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- bookings ----

type bookingDTO struct {
	ID            int64           `json:"id"`
	OfferID       string          `json:"offerId"`
	DepartureDate string          `json:"departureDate"`
	Passengers    int             `json:"passengers"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toBookingDTO(b domain.Booking) bookingDTO {
	return bookingDTO{
		ID:            b.ID,
		OfferID:       b.OfferID,
		DepartureDate: b.DepartureDate.Format("2006-01-02"),
		Passengers:    b.Passengers,
		TotalPrice:    b.TotalPrice,
		Currency:      b.Currency,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
	}
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserID(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req struct {
		OfferID    string `json:"offerId"`
		Passengers int    `json:"passengers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.OfferID) == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "offerId is required")
		return
	}
	b, err := h.Bookings.CreateBooking(r.Context(), uid, req.OfferID, req.Passengers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingDTO(b))
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserID(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	bs, err := h.Bookings.ListBookings(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]bookingDTO, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingDTO(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserID(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	done, err := h.Bookings.CancelBooking(r.Context(), id, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	if !done {
		// not-owned is deliberately indistinguishable from absent
		writeProblem(w, http.StatusNotFound, "Not Found", "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.BookingCancelled)})
}
