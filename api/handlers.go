package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	"github.com/skysurety/skysurety-node/ledger"
)

const defaultFlightListLimit = 50

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleStatus handles GET /api/v1/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	operational, err := s.reader.IsOperational()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read operational flag")
		return
	}
	retained, err := s.reader.RetainedBalance()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read retained balance")
		return
	}

	s.writeJSON(w, http.StatusOK, StatusResponse{
		Operational:     operational,
		RetainedBalance: retained,
	})
}

// handleFlights handles GET /api/v1/flights?limit=N
func (s *Server) handleFlights(w http.ResponseWriter, r *http.Request) {
	limit := cast.ToInt(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = defaultFlightListLimit
	}

	flights, err := s.reader.Store().ListFlights(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list flights")
		return
	}

	out := make([]FlightResponse, 0, len(flights))
	for _, f := range flights {
		out = append(out, FlightResponse{
			Key:        f.Key,
			Airline:    f.Airline,
			Code:       f.Code,
			Timestamp:  f.Timestamp,
			Status:     ledger.StatusCode(f.StatusCode).String(),
			StatusCode: f.StatusCode,
			UpdatedTs:  f.UpdatedTs,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleFlight handles GET /api/v1/flights/{key}
func (s *Server) handleFlight(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	flight, err := s.reader.Flight(key)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to query flight")
		return
	}
	if flight == nil {
		s.writeError(w, http.StatusNotFound, "flight not found")
		return
	}

	s.writeJSON(w, http.StatusOK, FlightResponse{
		Key:        flight.Key,
		Airline:    flight.Airline,
		Code:       flight.Code,
		Timestamp:  flight.Timestamp,
		Status:     ledger.StatusCode(flight.StatusCode).String(),
		StatusCode: flight.StatusCode,
		UpdatedTs:  flight.UpdatedTs,
	})
}

// handleCredit handles GET /api/v1/credits/{passenger}
func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	passenger := mux.Vars(r)["passenger"]
	if passenger == "" {
		s.writeError(w, http.StatusBadRequest, "passenger is required")
		return
	}

	amount, err := s.reader.Credit(ledger.Identity(passenger))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to query credit")
		return
	}

	s.writeJSON(w, http.StatusOK, CreditResponse{
		Passenger: passenger,
		Amount:    amount,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
