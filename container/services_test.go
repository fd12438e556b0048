package container_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/ngundang/container"
	"github.com/yusufsyaifudin/ngundang/internal/svc/batchsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/dispatchsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/sessionsvc"
)

func noopConfig(t *testing.T, catalogPath string) container.Config {
	t.Helper()

	cfg := container.DefaultConfig()
	cfg.Relay.Provider = container.ProviderNoop
	cfg.Catalog.Path = catalogPath
	return cfg
}

func TestSetupServices(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "courses.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Algorithms", "code": "CS101", "receivers": [{"salutation": "Dr. Rao", "email": "rao@example.edu"}]}]`), 0o600))

	svc, err := container.SetupServices(ctx, noopConfig(t, path))
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, svc.Close())
	}()

	assert.Equal(t, 1, svc.Catalog().Len())
	assert.NoError(t, svc.Catalog().Warning())
	assert.Equal(t, []string{"noop"}, svc.Senders().ListProviders(ctx))
	assert.Equal(t, "invitation", svc.Composer().DefaultTemplate())

	_, session := svc.Sessions().Create()
	require.NoError(t, session.Submit(ctx, "me@example.com", "app pass word"))

	report, err := svc.Batch().Run(ctx, session, batchsvc.InputRun{Categories: []string{"Algorithms"}})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, dispatchsvc.StatusSuccess, report.Outcomes[0].Status)
}

func TestSetupServices_MissingCatalog(t *testing.T) {
	svc, err := container.SetupServices(context.Background(), noopConfig(t, filepath.Join(t.TempDir(), "missing.json")))
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, 0, svc.Catalog().Len())
	assert.ErrorIs(t, svc.Catalog().Warning(), catalogsvc.ErrCatalogUnavailable)
}

func TestSetupServices_VerifyLogin(t *testing.T) {
	ctx := context.Background()

	cfg := noopConfig(t, filepath.Join(t.TempDir(), "missing.json"))
	cfg.Session.VerifyLogin = true

	svc, err := container.SetupServices(ctx, cfg)
	require.NoError(t, err)
	defer svc.Close()

	_, session := svc.Sessions().Create()
	require.NoError(t, session.Submit(ctx, "me@example.com", "secret"))
	assert.Equal(t, sessionsvc.StateAuthenticated, session.State())
}

func TestSetupSenders(t *testing.T) {
	ctx := context.Background()

	cfg := container.DefaultConfig()
	mux, err := container.SetupSenders(cfg.Relay)
	require.NoError(t, err)
	assert.Equal(t, []string{"noop", "smtp"}, mux.ListProviders(ctx))

	cfg.Relay.Host = ""
	_, err = container.SetupSenders(cfg.Relay)
	assert.Error(t, err)
}
