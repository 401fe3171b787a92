package services

import (
	"context"
	"testing"

	"cms0/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewPluginService(env.db)
	ctx := context.Background()

	available := svc.Available()
	require.Len(t, available, 3)
	assert.Equal(t, "analytics", available[0].Slug)

	plugin, err := svc.Install(ctx, "sitemap")
	require.NoError(t, err)
	assert.True(t, plugin.Enabled)

	settings, err := utils.JSONToStringMap(plugin.Settings)
	require.NoError(t, err)
	assert.Equal(t, "weekly", settings["changefreq"])

	again, err := svc.Install(ctx, "sitemap")
	require.NoError(t, err)
	assert.Equal(t, plugin.ID, again.ID)

	updated, err := svc.UpdateSettings(ctx, "sitemap", map[string]string{"changefreq": "daily"})
	require.NoError(t, err)
	settings, err = utils.JSONToStringMap(updated.Settings)
	require.NoError(t, err)
	assert.Equal(t, "daily", settings["changefreq"])
	assert.Equal(t, "https://example.com", settings["base_url"])

	disabled, err := svc.SetEnabled(ctx, "sitemap", false)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	installed, err := svc.Installed(ctx)
	require.NoError(t, err)
	require.Len(t, installed, 1)
	assert.False(t, installed[0].Enabled)

	require.NoError(t, svc.Uninstall(ctx, "sitemap"))
	require.NoError(t, svc.Uninstall(ctx, "sitemap"))

	installed, err = svc.Installed(ctx)
	require.NoError(t, err)
	assert.Empty(t, installed)
}

func TestPluginSettingsValidation(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewPluginService(env.db)
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, "seo", map[string]string{"noindex": "true"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Install(ctx, "seo")
	require.NoError(t, err)

	_, err = svc.UpdateSettings(ctx, "seo", map[string]string{"noindex": "maybe", "theme": "dark"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "noindex")
	assert.Contains(t, verr.Fields, "theme")

	_, err = svc.Install(ctx, "shoutbox")
	assert.ErrorIs(t, err, ErrUnknownPlugin)
}
