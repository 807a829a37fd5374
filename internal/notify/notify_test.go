package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spqsync/spqsync/internal/errs"
	"github.com/spqsync/spqsync/internal/models"
)

func TestEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  *models.NotificationConfig
		want bool
	}{
		{"nil config", nil, false},
		{"no recipients", &models.NotificationConfig{Server: "smtp.test"}, false},
		{"no server", &models.NotificationConfig{Addresses: []string{"a@b.test"}}, false},
		{"both set", &models.NotificationConfig{Server: "smtp.test", Addresses: []string{"a@b.test"}}, true},
	}
	for _, c := range cases {
		if got := New(c.cfg).Enabled(); got != c.want {
			t.Errorf("%s: Enabled() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestNotifyFailure_NoopWhenDisabled(t *testing.T) {
	d := New(nil)
	d.send = func(context.Context, *models.NotificationConfig, string, string) error {
		t.Fatal("send must not be called when disabled")
		return nil
	}
	if err := d.NotifyFailure(context.Background(), "/repo", errors.New("boom")); err != nil {
		t.Fatalf("NotifyFailure: %v", err)
	}
}

func TestNotifyFailure_SendsStructuredDetails(t *testing.T) {
	d := New(&models.NotificationConfig{Server: "smtp.test", Addresses: []string{"ops@b.test"}})
	var gotBody string
	d.send = func(_ context.Context, _ *models.NotificationConfig, _, body string) error {
		gotBody = body
		return nil
	}

	cause := errs.ForPlatform(errs.KindCatalogUnavailable, "83b2", errors.New("all hosts failed"))
	if err := d.NotifyFailure(context.Background(), "/repo", cause); err != nil {
		t.Fatalf("NotifyFailure: %v", err)
	}
	for _, want := range []string{"CatalogUnavailable", "83b2", "/repo"} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestNotifyFailure_SendErrorIsWrappedNotFatal(t *testing.T) {
	d := New(&models.NotificationConfig{Server: "smtp.test", Addresses: []string{"ops@b.test"}})
	d.send = func(context.Context, *models.NotificationConfig, string, string) error {
		return errors.New("smtp down")
	}

	err := d.NotifyFailure(context.Background(), "/repo", errors.New("original"))
	if err == nil {
		t.Fatal("expected the send failure to be reported")
	}
	if !errs.IsKind(err, errs.KindNotificationSend) {
		t.Errorf("expected NotificationSend kind, got %v", err)
	}
}

func TestDecodePassword(t *testing.T) {
	got, err := decodePassword("c2VjcmV0")
	if err != nil || got != "secret" {
		t.Errorf("decodePassword = %q, %v", got, err)
	}
	if _, err := decodePassword("%%%"); err == nil {
		t.Error("expected an error for invalid base64")
	}
}
