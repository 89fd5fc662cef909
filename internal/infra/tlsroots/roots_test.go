package tlsroots

import (
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeServerCA(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewPool(t *testing.T) {
	if NewPool().Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
	if NewEmptyPool().Pool() == nil {
		t.Fatal("empty Pool() returned nil")
	}
}

func TestAddCertPEM_NoCerts(t *testing.T) {
	pool := NewEmptyPool()

	for _, data := range [][]byte{{}, []byte("not a certificate")} {
		if err := pool.AddCertPEM(data); !errors.Is(err, ErrNoCertsFound) {
			t.Errorf("AddCertPEM(%q) error = %v, want ErrNoCertsFound", data, err)
		}
	}
}

func TestAddCertPEM_SkipsOtherBlocks(t *testing.T) {
	pool := NewEmptyPool()
	data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("x")})
	if err := pool.AddCertPEM(data); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddCertPEM() error = %v, want ErrNoCertsFound", err)
	}
}

func TestAddCertPEM_InvalidCert(t *testing.T) {
	pool := NewEmptyPool()
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("invalid certificate data")})
	if err := pool.AddCertPEM(data); err == nil {
		t.Error("AddCertPEM() expected error for invalid certificate")
	}
}

func TestAddCertFile_Missing(t *testing.T) {
	if err := NewEmptyPool().AddCertFile("/nonexistent/ca.pem"); err == nil {
		t.Error("AddCertFile() expected error for missing file")
	}
}

func TestHTTPClient_Default(t *testing.T) {
	c, err := HTTPClient("")
	if err != nil {
		t.Fatal(err)
	}
	if c != http.DefaultClient {
		t.Error("HTTPClient(\"\") should return http.DefaultClient")
	}
}

func TestHTTPClient_TrustsCAFile(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// Without the CA the server certificate is rejected.
	if resp, err := http.Get(srv.URL); err == nil {
		resp.Body.Close()
		t.Fatal("request succeeded without trusting the test CA")
	}

	client, err := HTTPClient(writeServerCA(t, srv))
	if err != nil {
		t.Fatalf("HTTPClient() error = %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET with CA file: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
