package clientcreds

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNoneHasNoBundle(t *testing.T) {
	creds, ok, err := None{}.TransportCredentials()
	if err != nil || ok || creds != nil {
		t.Fatalf("expected no bundle, got %v %v %v", creds, ok, err)
	}
}

func TestSystemTLSProvidesBundle(t *testing.T) {
	creds, ok, err := SystemTLS{ServerName: "pal.example"}.TransportCredentials()
	if err != nil || !ok {
		t.Fatalf("expected bundle, got ok=%v err=%v", ok, err)
	}
	if got := creds.Info().SecurityProtocol; got != "tls" {
		t.Fatalf("expected tls protocol, got %q", got)
	}
}

func TestFilesLoadsCABundle(t *testing.T) {
	dir := t.TempDir()
	caFile := filepath.Join(dir, "ca.pem")
	writeSelfSignedCert(t, caFile)

	_, ok, err := Files{CAFile: caFile}.TransportCredentials()
	if err != nil || !ok {
		t.Fatalf("expected bundle, got ok=%v err=%v", ok, err)
	}
}

func TestFilesRejectsBadMaterial(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.pem")
	if err := os.WriteFile(empty, []byte("not a cert"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	tests := []struct {
		name  string
		files Files
	}{
		{name: "missing ca", files: Files{CAFile: filepath.Join(dir, "missing.pem")}},
		{name: "empty ca", files: Files{CAFile: empty}},
		{name: "cert without key", files: Files{CertFile: empty}},
		{name: "bad key pair", files: Files{CertFile: empty, KeyFile: empty}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok, err := tt.files.TransportCredentials(); err == nil || ok {
				t.Fatalf("expected error, got ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestFromConfigSelection(t *testing.T) {
	if _, ok := FromConfig(Config{}, false, "").(None); !ok {
		t.Fatal("expected None for plaintext endpoint")
	}
	if _, ok := FromConfig(Config{}, true, "pal.example").(SystemTLS); !ok {
		t.Fatal("expected SystemTLS for secure endpoint")
	}
	if _, ok := FromConfig(Config{CAFile: "ca.pem"}, false, "").(Files); !ok {
		t.Fatal("expected Files when material is configured")
	}
}

func writeSelfSignedCert(t *testing.T, path string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "palacesync test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write certificate: %v", err)
	}
}
