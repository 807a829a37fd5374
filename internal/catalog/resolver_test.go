package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spqsync/spqsync/internal/errs"
	"github.com/spqsync/spqsync/internal/globalconfig"
	"github.com/spqsync/spqsync/internal/service"
)

const catalogXML = `<?xml version="1.0" encoding="utf-8"?>
<ImagePal>
  <Solutions>
    <UpdateInfo>
      <Id>sp1</Id>
      <Name>Audio Driver</Name>
      <Category>Driver - Audio</Category>
      <Version>1.0</Version>
      <Vendor>HP</Vendor>
      <ReleaseType>Routine</ReleaseType>
      <SSMCompliant>true</SSMCompliant>
      <Url>https://example.test/files/sp1.exe</Url>
      <Size>100</Size>
    </UpdateInfo>
    <UpdateInfo>
      <Id>sp2</Id>
      <Name>System BIOS</Name>
      <Category>BIOS</Category>
      <Version>F.40</Version>
      <Vendor>HP</Vendor>
      <ReleaseType>Critical</ReleaseType>
      <Url>https://example.test/files/sp2.exe</Url>
      <Size>200</Size>
    </UpdateInfo>
  </Solutions>
</ImagePal>`

const catalogPath = "/83b2/83b2_64_10.0.22H2.cab"

func newResolver(client service.HTTPClient, primary, cacheDir string) *Resolver {
	return &Resolver{
		Client:     client,
		PrimaryURL: primary,
		CacheDir:   cacheDir,
		MaxRetries: 1,
		RetryPause: time.Millisecond,
	}
}

func serveCatalog(t *testing.T, gets *atomic.Int64) *httptest.Server {
	t.Helper()
	lastMod := time.Now().UTC().Truncate(time.Second).Format(http.TimeFormat)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != catalogPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Last-Modified", lastMod)
		if r.Method == http.MethodGet && gets != nil {
			gets.Add(1)
		}
		_, _ = w.Write([]byte(catalogXML))
	}))
}

func TestResolve_ParsesCatalog(t *testing.T) {
	srv := serveCatalog(t, nil)
	defer srv.Close()

	r := newResolver(srv.Client(), srv.URL, t.TempDir())
	records, err := r.Resolve(context.Background(), "83b2", 64, "win10", "22H2", false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Id != "sp1" || !records[0].SSM {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].ReleaseType != "Critical" {
		t.Errorf("unexpected second record: %+v", records[1])
	}
}

func TestResolve_SkipsRedownloadWhenUnchanged(t *testing.T) {
	var gets atomic.Int64
	srv := serveCatalog(t, &gets)
	defer srv.Close()

	r := newResolver(srv.Client(), srv.URL, t.TempDir())
	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), "83b2", 64, "win10", "22H2", false); err != nil {
			t.Fatalf("Resolve #%d: %v", i+1, err)
		}
	}
	if n := gets.Load(); n != 1 {
		t.Errorf("expected exactly 1 catalog download, got %d", n)
	}
}

func TestResolve_ReextractsCorruptXML(t *testing.T) {
	var gets atomic.Int64
	srv := serveCatalog(t, &gets)
	defer srv.Close()

	cacheDir := t.TempDir()
	r := newResolver(srv.Client(), srv.URL, cacheDir)
	if _, err := r.Resolve(context.Background(), "83b2", 64, "win10", "22H2", false); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	xmlPath := filepath.Join(cacheDir, "83b2_64_10.0.22H2.cab.xml")
	if err := os.WriteFile(xmlPath, []byte("<broken"), 0o644); err != nil {
		t.Fatalf("corrupt xml: %v", err)
	}

	records, err := r.Resolve(context.Background(), "83b2", 64, "win10", "22H2", false)
	if err != nil {
		t.Fatalf("Resolve after corruption: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after re-extraction, got %d", len(records))
	}
	if n := gets.Load(); n != 1 {
		t.Errorf("re-extraction must not re-download, got %d downloads", n)
	}
}

func TestResolve_FallbackHost(t *testing.T) {
	primary := httptest.NewServer(http.NotFoundHandler())
	defer primary.Close()
	fallback := serveCatalog(t, nil)
	defer fallback.Close()

	r := newResolver(fallback.Client(), primary.URL, t.TempDir())
	r.FallbackURL = fallback.URL

	records, err := r.Resolve(context.Background(), "83b2", 64, "win10", "22H2", false)
	if err != nil {
		t.Fatalf("Resolve via fallback: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestNew_CustomURLDisablesFallback(t *testing.T) {
	r := New(nil, "https://mirror.internal/ref", t.TempDir(), 1, time.Millisecond)
	if r.FallbackURL != "" {
		t.Errorf("custom primary must not fall back, got %q", r.FallbackURL)
	}
	r = New(nil, globalconfig.DefaultReferenceURL, t.TempDir(), 1, time.Millisecond)
	if r.FallbackURL != globalconfig.FallbackReferenceURL {
		t.Errorf("stock primary must wire the fallback host, got %q", r.FallbackURL)
	}
}

func TestResolve_LTSCDegradesToRegular(t *testing.T) {
	// Only the regular variant exists; an LTSC preference must still
	// succeed by degrading.
	srv := serveCatalog(t, nil)
	defer srv.Close()

	r := newResolver(srv.Client(), srv.URL, t.TempDir())
	records, err := r.Resolve(context.Background(), "83b2", 64, "win10", "22H2", true)
	if err != nil {
		t.Fatalf("Resolve with LTSC preference: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestResolve_LTSCVariantPreferred(t *testing.T) {
	ltscXML := `<ImagePal><Solutions><UpdateInfo><Id>sp9</Id><Category>BIOS</Category><Url>u</Url></UpdateInfo></Solutions></ImagePal>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/83b2/83b2_64_10.0.22H2.e.cab":
			_, _ = w.Write([]byte(ltscXML))
		case catalogPath:
			_, _ = w.Write([]byte(catalogXML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := newResolver(srv.Client(), srv.URL, t.TempDir())
	records, err := r.Resolve(context.Background(), "83b2", 64, "win10", "22H2", true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(records) != 1 || records[0].Id != "sp9" {
		t.Fatalf("expected the LTSC catalog to win, got %+v", records)
	}
}

func TestResolve_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	r := newResolver(srv.Client(), srv.URL, t.TempDir())
	_, err := r.Resolve(context.Background(), "83b2", 64, "win10", "22H2", false)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errs.IsKind(err, errs.KindCatalogUnavailable) {
		t.Errorf("expected CatalogUnavailable, got %v", err)
	}
}

func TestName(t *testing.T) {
	if got := Name("83b2", 64, "win10", "22H2", false); got != "83b2_64_10.0.22H2.cab" {
		t.Errorf("Name = %q", got)
	}
	if got := Name("83b2", 64, "win11", "23H2", true); got != "83b2_64_11.0.23H2.e.cab" {
		t.Errorf("LTSC Name = %q", got)
	}
}
