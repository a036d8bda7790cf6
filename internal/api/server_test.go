package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/tuner"
)

type fakeStatus struct {
	vnic  string
	desc  chanspec.RadioDescriptor
	state tuner.State
}

func (f fakeStatus) VNIC() string                         { return f.vnic }
func (f fakeStatus) Descriptor() chanspec.RadioDescriptor { return f.desc }
func (f fakeStatus) CachedState() tuner.State             { return f.state }

type fakeEvents struct{ called bool }

func (f *fakeEvents) Subscribe(w http.ResponseWriter, r *http.Request) error {
	f.called = true
	w.WriteHeader(http.StatusOK)
	return nil
}

func TestHealthz_OK(t *testing.T) {
	s := NewServer(nil, nil, nil, 0, 0, 0)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz_RejectsNonGet(t *testing.T) {
	s := NewServer(nil, nil, nil, 0, 0, 0)
	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatus_ReturnsDescriptorAndState(t *testing.T) {
	fs := fakeStatus{vnic: "dyskt0", desc: chanspec.RadioDescriptor{NIC: "wlan0", Role: "sniffer"}, state: tuner.StateHold}
	s := NewServer(fs, nil, nil, 0, 0, 0)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dyskt0")
	assert.Contains(t, rec.Body.String(), "HOLD")
}

func TestStatus_UnavailableWithoutController(t *testing.T) {
	s := NewServer(nil, nil, nil, 0, 0, 0)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEvents_DelegatesToEventSource(t *testing.T) {
	fe := &fakeEvents{}
	s := NewServer(nil, fe, nil, 0, 0, 0)
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	assert.True(t, fe.called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetrics_ServedWithoutAuth(t *testing.T) {
	s := NewServer(nil, nil, nil, 0, 0, 0)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
