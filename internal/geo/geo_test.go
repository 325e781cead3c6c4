package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

func TestIPLocator_Locate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    models.Coordinates
		wantErr error
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"status":"success","lat":47.6062,"lon":-122.3321,"city":"Seattle"}`,
			want:   models.Coordinates{Latitude: 47.6062, Longitude: -122.3321},
		},
		{
			name:    "service reports failure",
			status:  http.StatusOK,
			body:    `{"status":"fail","message":"private range"}`,
			wantErr: ErrUnavailable,
		},
		{
			name:    "forbidden",
			status:  http.StatusForbidden,
			body:    `{}`,
			wantErr: ErrDenied,
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{}`,
			wantErr: ErrDenied,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: ErrUnavailable,
		},
		{
			name:    "malformed",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: ErrUnavailable,
		},
		{
			name:    "out of range",
			status:  http.StatusOK,
			body:    `{"status":"success","lat":123,"lon":0}`,
			wantErr: ErrUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := NewIPLocator(server.URL, time.Second).Locate(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Locate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Locate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Locate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIPLocator_HonoursContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := NewIPLocator(server.URL, 5*time.Second).Locate(ctx)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Locate() error = %v, want ErrUnavailable", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Locate() did not stop at the context deadline")
	}
}

func TestNewIPLocator_DefaultURL(t *testing.T) {
	if l := NewIPLocator("", time.Second); l.url != DefaultIPURL {
		t.Errorf("url = %q, want %q", l.url, DefaultIPURL)
	}
}

func TestStaticLocator(t *testing.T) {
	want := models.Coordinates{Latitude: 1, Longitude: 2}
	got, err := StaticLocator{Coords: want}.Locate(context.Background())
	if err != nil || got != want {
		t.Errorf("Locate() = %+v, %v", got, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (StaticLocator{Coords: want}).Locate(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Locate() on cancelled ctx error = %v, want ErrUnavailable", err)
	}
}
