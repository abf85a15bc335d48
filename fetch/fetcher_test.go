package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dexfetch/dexfetch/types"
)

func recordBody(name string, id int64) string {
	return fmt.Sprintf(`{"id":%d,"name":%q,"height":7,"weight":69,"types":[{"slot":1,"type":{"name":"grass"}}]}`, id, name)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		Endpoint: srv.URL,
		Timeout:  2 * time.Second,
		TempDir:  t.TempDir(),
	})
}

func TestGet_WritesBodyToTempFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bulbasaur" {
			t.Errorf("path = %q, want /bulbasaur", r.URL.Path)
		}
		fmt.Fprint(w, recordBody("bulbasaur", 1))
	})

	path, err := c.Get(t.Context(), "bulbasaur")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading temp file: %v", err)
	}
	if string(data) != recordBody("bulbasaur", 1) {
		t.Errorf("temp body = %q, want raw response body", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	_, err := c.Get(t.Context(), "invalidpokemon123")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if got := Reason(err); got != types.ReasonNotFound {
		t.Errorf("Reason = %q, want %q", got, types.ReasonNotFound)
	}
}

func TestGet_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Get(t.Context(), "bulbasaur")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestGet_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		fmt.Fprint(w, recordBody("bulbasaur", 1))
	})
	c.client.Timeout = 50 * time.Millisecond

	_, err := c.Get(t.Context(), "bulbasaur")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
	if got := Reason(err); got != types.ReasonTimeout {
		t.Errorf("Reason = %q, want %q", got, types.ReasonTimeout)
	}
}

func TestGet_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // port is now dead

	c := NewClient(Config{Endpoint: url, Timeout: time.Second, TempDir: t.TempDir()})
	_, err := c.Get(t.Context(), "bulbasaur")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestValidate_OK(t *testing.T) {
	rec, err := Validate([]byte(recordBody("bulbasaur", 1)), "bulbasaur")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if rec.ID != 1 || rec.Name != "bulbasaur" {
		t.Errorf("record = %+v, want bulbasaur #1", rec)
	}
}

func TestValidate_Malformed(t *testing.T) {
	_, err := Validate([]byte("<html>Service Unavailable</html>"), "bulbasaur")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	_, err := Validate([]byte(`{"name":"bulbasaur"}`), "bulbasaur")
	if !errors.Is(err, ErrMissingFields) {
		t.Errorf("error = %v, want ErrMissingFields", err)
	}
}

func TestValidate_IdentityMismatch(t *testing.T) {
	// Upstream can silently resolve an alias to a different canonical record.
	_, err := Validate([]byte(recordBody("deoxys-normal", 386)), "deoxys")
	if !errors.Is(err, ErrIdentityMismatch) {
		t.Errorf("error = %v, want ErrIdentityMismatch", err)
	}
	if got := Reason(err); got != types.ReasonIdentityMismatch {
		t.Errorf("Reason = %q, want %q", got, types.ReasonIdentityMismatch)
	}
}

func TestValidateFile(t *testing.T) {
	path := t.TempDir() + "/body.json"
	if err := os.WriteFile(path, []byte(recordBody("ivysaur", 2)), 0o644); err != nil {
		t.Fatal(err)
	}

	rec, data, err := ValidateFile(path, "ivysaur")
	if err != nil {
		t.Fatalf("ValidateFile failed: %v", err)
	}
	if rec.ID != 2 {
		t.Errorf("ID = %d, want 2", rec.ID)
	}
	if string(data) != recordBody("ivysaur", 2) {
		t.Errorf("raw bytes do not match file content")
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := NewFetchError(ErrTransport, "get", "bulbasaur", inner)

	if !errors.Is(err, ErrTransport) {
		t.Error("errors.Is(err, ErrTransport) = false, want true")
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is(err, inner) = false, want true")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatal("errors.As(*FetchError) = false, want true")
	}
	if fe.Op != "get" || fe.Item != "bulbasaur" {
		t.Errorf("FetchError fields = %q/%q, want get/bulbasaur", fe.Op, fe.Item)
	}
}
