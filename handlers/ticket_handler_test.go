package handlers

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-storefront/models"
)

const issuedTicket = `{"id":5,"ticket_number":"TKT-0005","ticket_code":"c0ffee-5","ticket_type":1,"event":7,
	"holder_name":"Ada","holder_email":"Ada@Example.com","status":"valid"}`

func TestMyTickets(t *testing.T) {
	srv := newTestServer(t)
	srv.api.handle("GET /ticket/tickets/", http.StatusOK, `{"results":[`+issuedTicket+`]}`)

	rec := srv.do(http.MethodGet, "/api/v1/tickets?email=ada@example.com", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var tickets []models.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	require.Len(t, tickets, 1)
	assert.Equal(t, "TKT-0005", tickets[0].TicketNumber)

	list := srv.api.last(http.MethodGet, "/ticket/tickets/")
	require.NotNil(t, list)
	assert.Equal(t, "ada@example.com", list.URL.Query().Get("email"))
}

func TestMyTickets_InvalidEmail(t *testing.T) {
	srv := newTestServer(t)

	for _, target := range []string{"/api/v1/tickets", "/api/v1/tickets?email=nobody"} {
		rec := srv.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
	assert.Nil(t, srv.api.last(http.MethodGet, "/ticket/tickets/"))
}

func TestTicketQR(t *testing.T) {
	srv := newTestServer(t)
	srv.api.handle("GET /ticket/tickets/5/", http.StatusOK, issuedTicket)

	rec := srv.do(http.MethodGet, "/api/v1/tickets/5/qr?email=ada@example.com", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())
}

func TestTicketQR_OtherHolder(t *testing.T) {
	srv := newTestServer(t)
	srv.api.handle("GET /ticket/tickets/5/", http.StatusOK, issuedTicket)

	rec := srv.do(http.MethodGet, "/api/v1/tickets/5/qr?email=eve@example.com", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketQR_BadID(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/api/v1/tickets/abc/qr?email=ada@example.com", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
