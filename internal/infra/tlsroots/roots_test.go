package tlsroots

import (
	"crypto/tls"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewPool(t *testing.T) {
	pool := NewPool()
	if pool == nil || pool.Pool() == nil {
		t.Fatal("NewPool() returned an empty Pool")
	}
}

func TestAddCertPEM(t *testing.T) {
	_, _, cert1 := writeTestCert(t, t.TempDir(), 1)
	_, _, cert2 := writeTestCert(t, t.TempDir(), 2)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"single", certPEM(cert1), nil},
		{"multiple", append(certPEM(cert1), certPEM(cert2)...), nil},
		{"empty", nil, ErrNoCertsFound},
		{"not PEM", []byte("not a certificate"), ErrNoCertsFound},
		{"only a key block", pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: []byte{1}}), ErrNoCertsFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewEmptyPool().AddCertPEM(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddCertPEM() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddCertPEM_InvalidCert(t *testing.T) {
	invalid := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("garbage")})
	if err := NewEmptyPool().AddCertPEM(invalid); err == nil {
		t.Error("AddCertPEM() expected error for invalid certificate")
	}
}

func TestAddCertFile(t *testing.T) {
	certFile, _, cert := writeTestCert(t, t.TempDir(), 1)

	pool := NewEmptyPool()
	if err := pool.AddCertFile(certFile); err != nil {
		t.Fatalf("AddCertFile() error = %v", err)
	}

	if _, err := cert.Verify(x509VerifyOptions(pool)); err != nil {
		t.Errorf("certificate not trusted by pool: %v", err)
	}

	if err := pool.AddCertFile(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("AddCertFile() expected error for missing file")
	}
}

func TestClientConfig(t *testing.T) {
	pool := NewEmptyPool()
	cfg := pool.ClientConfig()
	if cfg.RootCAs != pool.Pool() {
		t.Error("ClientConfig().RootCAs != pool.Pool()")
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
}

func TestLoadClientConfig(t *testing.T) {
	cfg, err := LoadClientConfig("")
	if err != nil || cfg != nil {
		t.Errorf("LoadClientConfig(\"\") = %v, %v; want nil, nil", cfg, err)
	}

	certFile, _, _ := writeTestCert(t, t.TempDir(), 1)
	cfg, err = LoadClientConfig(certFile)
	if err != nil {
		t.Fatalf("LoadClientConfig() error = %v", err)
	}
	if cfg == nil || cfg.RootCAs == nil {
		t.Fatal("LoadClientConfig() returned no roots")
	}

	bad := filepath.Join(t.TempDir(), "bad.pem")
	if err := os.WriteFile(bad, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadClientConfig(bad); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("LoadClientConfig(bad) error = %v, want ErrNoCertsFound", err)
	}
}
