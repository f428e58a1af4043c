package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/postbot/core/config"
	coretelegram "github.com/m3rciful/postbot/core/telegram"
)

type stubConfig struct{ core *coreconfig.Config }

func (s stubConfig) CoreConfig() *coreconfig.Config { return s.core }

type stubApp struct {
	closed bool
}

func (a *stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *stubApp) Close() error {
	a.closed = true
	return nil
}

func TestConfigPath(t *testing.T) {
	t.Setenv("POSTBOT_CONFIG", "")
	o := Options{ConfigEnvVar: "POSTBOT_CONFIG", DefaultConfigPath: "config.yaml"}
	if p, err := o.ConfigPath(); err != nil || p != "config.yaml" {
		t.Fatalf("got %q %v", p, err)
	}
	t.Setenv("POSTBOT_CONFIG", "/etc/postbot.yaml")
	if p, _ := o.ConfigPath(); p != "/etc/postbot.yaml" {
		t.Fatalf("env override ignored: %q", p)
	}
	if _, err := (Options{ConfigEnvVar: "POSTBOT_CONFIG_UNSET"}).ConfigPath(); err == nil {
		t.Fatal("expected error without any path")
	}
}

func TestRunWiresHooksAndCloses(t *testing.T) {
	app := &stubApp{}
	var started, stopped bool
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		ConfigEnvVar:      "POSTBOT_TEST_CONFIG",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return stubConfig{core: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return app, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			started = opts.OnStart(ctx, coretelegram.Runtime{}) == nil
			stopped = opts.OnStop(ctx, coretelegram.Runtime{}) == nil
			return nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !started || !stopped {
		t.Fatalf("hooks not invoked: started=%v stopped=%v", started, stopped)
	}
	if !app.closed {
		t.Fatal("app was not closed")
	}
}

func TestRunBootstrapError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		ConfigEnvVar:      "POSTBOT_TEST_CONFIG",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return stubConfig{core: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return nil, boom
		},
		ShutdownLogger: func() error { return nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}
