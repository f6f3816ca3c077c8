package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"medibot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServerClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, zap.NewNop())
}

func writeEnvelope(w http.ResponseWriter, data any) {
	raw, _ := json.Marshal(data)
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": json.RawMessage(raw)})
}

func TestSearchDoctors(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/public/search", r.URL.Path)
		assert.Equal(t, "Cardiology", r.URL.Query().Get("keyword"))
		writeEnvelope(w, []map[string]any{
			{"doctorId": "d1", "firstName": "John", "lastName": "Smith", "specialist": "Cardiology", "experience": 12},
		})
	})

	doctors, err := client.SearchDoctors(context.Background(), "Cardiology")
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "d1", doctors[0].DoctorID)
	assert.Equal(t, "Cardiology", doctors[0].Specialty)
	assert.Equal(t, "Dr. John Smith", doctors[0].DisplayName())
}

func TestSearchDoctorsRejectsShortKeyword(t *testing.T) {
	client := NewHTTPClient("http://backend.invalid", zap.NewNop())
	_, err := client.SearchDoctors(context.Background(), " x ")
	assert.Error(t, err)
}

func TestSearchDoctorsNotFound(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.SearchDoctors(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAvailabilityMapsStatus(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/slots", r.URL.Path)
		assert.Equal(t, "d1", r.URL.Query().Get("doctorId"))
		writeEnvelope(w, []map[string]any{
			{"slotId": "s1", "slotTime": "09:00", "status": "AVAILABLE"},
			{"slotId": "s2", "slotTime": "10:00", "status": "BOOKED"},
		})
	})

	slots, err := client.GetAvailability(context.Background(), "d1", "2026-01-29")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.Equal(t, "2026-01-29", slots[0].Date)
}

func TestCreateBookingForwardsToken(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "d1", payload["doctorId"])
		assert.Equal(t, "u1", payload["userId"])
		writeEnvelope(w, map[string]string{"bookingId": "bk-42"})
	})

	req := models.BookingRequest{DoctorID: "d1", Date: "2026-01-29", Time: "15:00"}
	ref, err := client.CreateBooking(context.Background(), req, "u1", "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "bk-42", ref)
}

func TestTransientFailureRetriedOnce(t *testing.T) {
	var calls int32
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeEnvelope(w, []map[string]any{})
	})

	_, err := client.SearchDoctors(context.Background(), "Cardiology")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPersistentFailureSurfacesError(t *testing.T) {
	var calls int32
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.SearchDoctors(context.Background(), "Cardiology")
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "exactly one retry")
}

func TestGetSpecialties(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/public/getSpecialist", r.URL.Path)
		writeEnvelope(w, []map[string]string{
			{"specialist": "Cardiology"},
			{"specialist": "Dermatology"},
			{"specialist": ""},
		})
	})

	names, err := client.GetSpecialties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cardiology", "Dermatology"}, names)
}
