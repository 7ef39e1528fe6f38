package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/payment_links?parseTime=true")
	unsetEnv(t, "PAYMENTS_LINK_VALIDITY_DAYS")
	unsetEnv(t, "PAYMENTS_WARNING_WINDOW_FROM_DAYS")
	unsetEnv(t, "PAYMENTS_WARNING_WINDOW_UNTIL_DAYS")
	unsetEnv(t, "PAYMENTS_INVOICE_POLL_ATTEMPTS")
	unsetEnv(t, "STRIPE_API_BASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Payments.LinkValidity != 5*24*time.Hour {
		t.Fatalf("unexpected link validity: %v", cfg.Payments.LinkValidity)
	}
	if cfg.Payments.WarningWindowFrom != 24*time.Hour || cfg.Payments.WarningWindowUntil != 3*24*time.Hour {
		t.Fatalf("unexpected warning window: %v to %v", cfg.Payments.WarningWindowFrom, cfg.Payments.WarningWindowUntil)
	}
	if cfg.Payments.InvoicePollAttempts != 5 || cfg.Payments.InvoicePollDelay != time.Second {
		t.Fatalf("unexpected invoice poll config: %+v", cfg.Payments)
	}
	if cfg.Stripe.APIBaseURL != "https://api.stripe.com" {
		t.Fatalf("unexpected stripe api base url: %s", cfg.Stripe.APIBaseURL)
	}
	if cfg.Jobs.SweepInterval != time.Hour {
		t.Fatalf("unexpected sweep interval: %v", cfg.Jobs.SweepInterval)
	}
	if cfg.SMTP.Port != "587" {
		t.Fatalf("unexpected smtp port: %s", cfg.SMTP.Port)
	}
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/payment_links?parseTime=true")
	setEnv(t, "APP_SERVICE_NAME", "payment-links-test")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "20")
	setEnv(t, "MYSQL_MAX_IDLE_CONNS", "8")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "PAYMENTS_LINK_VALIDITY_DAYS", "7")
	setEnv(t, "PAYMENTS_WARNING_WINDOW_FROM_DAYS", "2")
	setEnv(t, "PAYMENTS_WARNING_WINDOW_UNTIL_DAYS", "4")
	setEnv(t, "PAYMENTS_INVOICE_POLL_ATTEMPTS", "10")
	setEnv(t, "PAYMENTS_INVOICE_POLL_DELAY_SECONDS", "2")
	setEnv(t, "PAYMENTS_JOB_BATCH_SIZE", "99")
	setEnv(t, "PAYMENTS_SWEEP_INTERVAL_MINUTES", "30")
	setEnv(t, "SMTP_USER", "mailer@example.com")
	unsetEnv(t, "SMTP_FROM")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.ServiceName != "payment-links-test" {
		t.Fatalf("unexpected app service name: %s", cfg.App.ServiceName)
	}
	if cfg.HTTP.Port != "8181" {
		t.Fatalf("unexpected http port: %s", cfg.HTTP.Port)
	}
	if cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.MaxIdleConns != 8 {
		t.Fatalf("unexpected mysql pool config: %+v", cfg.MySQL)
	}
	if cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected mysql lifetime: %v", cfg.MySQL.ConnMaxLifetime)
	}
	if cfg.Payments.LinkValidity != 7*24*time.Hour {
		t.Fatalf("unexpected link validity: %v", cfg.Payments.LinkValidity)
	}
	if cfg.Payments.WarningWindowFrom != 2*24*time.Hour || cfg.Payments.WarningWindowUntil != 4*24*time.Hour {
		t.Fatalf("unexpected warning window: %v to %v", cfg.Payments.WarningWindowFrom, cfg.Payments.WarningWindowUntil)
	}
	if cfg.Payments.InvoicePollAttempts != 10 || cfg.Payments.InvoicePollDelay != 2*time.Second {
		t.Fatalf("unexpected invoice poll config: %+v", cfg.Payments)
	}
	if cfg.Payments.JobBatchSize != 99 {
		t.Fatalf("unexpected batch size: %d", cfg.Payments.JobBatchSize)
	}
	if cfg.Jobs.SweepInterval != 30*time.Minute {
		t.Fatalf("unexpected sweep interval: %v", cfg.Jobs.SweepInterval)
	}
	if cfg.SMTP.From != "mailer@example.com" {
		t.Fatalf("expected smtp from to fall back to user, got %s", cfg.SMTP.From)
	}
}
