package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cms0/internal/events"
	"cms0/internal/models"
	"cms0/internal/utils"
	"cms0/internal/utils/logger"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// PluginSetting declares one configurable key of a plugin.
type PluginSetting struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Default string `json:"default"`
	Rule    string `json:"rule"`
}

// PluginManifest describes a plugin that can be installed.
type PluginManifest struct {
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Settings    []PluginSetting `json:"settings"`
}

// builtinPlugins is the registry of plugins shipped with the panel.
var builtinPlugins = []PluginManifest{
	{
		Slug:        "seo",
		Title:       "SEO",
		Version:     "1.2.0",
		Description: "Meta title and description defaults",
		Settings: []PluginSetting{
			{Key: "title_suffix", Label: "Title suffix", Default: "", Rule: "omitempty,max=64"},
			{Key: "description", Label: "Default description", Default: "", Rule: "omitempty,max=300"},
			{Key: "noindex", Label: "Hide from search engines", Default: "false", Rule: "required,boolean"},
		},
	},
	{
		Slug:        "sitemap",
		Title:       "Sitemap",
		Version:     "1.0.3",
		Description: "XML sitemap of active pages and news",
		Settings: []PluginSetting{
			{Key: "base_url", Label: "Site URL", Default: "https://example.com", Rule: "required,url"},
			{Key: "changefreq", Label: "Change frequency", Default: "weekly", Rule: "required,oneof=daily weekly monthly"},
		},
	},
	{
		Slug:        "analytics",
		Title:       "Analytics",
		Version:     "2.0.1",
		Description: "Tracking snippet injection",
		Settings: []PluginSetting{
			{Key: "tracking_id", Label: "Tracking ID", Default: "", Rule: "omitempty,max=32,alphanumunicode"},
		},
	},
}

// PluginService manages the install / uninstall / settings lifecycle.
type PluginService struct {
	db        *gorm.DB
	manifests map[string]PluginManifest
	validate  *validator.Validate
	logger    *logger.Logger
}

func NewPluginService(db *gorm.DB) *PluginService {
	manifests := make(map[string]PluginManifest, len(builtinPlugins))
	for _, m := range builtinPlugins {
		manifests[m.Slug] = m
	}
	return &PluginService{
		db:        db,
		manifests: manifests,
		validate:  newValidator(),
		logger:    logger.New("plugins"),
	}
}

// Available lists every known plugin sorted by slug.
func (s *PluginService) Available() []PluginManifest {
	out := make([]PluginManifest, 0, len(s.manifests))
	for _, m := range s.manifests {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func (s *PluginService) Installed(ctx context.Context) ([]models.Plugin, error) {
	var plugins []models.Plugin
	if err := s.db.WithContext(ctx).Order("slug ASC").Find(&plugins).Error; err != nil {
		return nil, fmt.Errorf("list plugins: %w", err)
	}
	return plugins, nil
}

func (s *PluginService) manifest(slug string) (PluginManifest, error) {
	m, ok := s.manifests[slug]
	if !ok {
		return PluginManifest{}, ErrUnknownPlugin
	}
	return m, nil
}

func (s *PluginService) find(ctx context.Context, slug string) (*models.Plugin, error) {
	var plugin models.Plugin
	err := s.db.WithContext(ctx).Where("slug = ?", slug).Take(&plugin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load plugin %s: %w", slug, err)
	}
	return &plugin, nil
}

// Install creates the plugin row with default settings. Installing twice
// returns the existing row.
func (s *PluginService) Install(ctx context.Context, slug string) (*models.Plugin, error) {
	m, err := s.manifest(slug)
	if err != nil {
		return nil, err
	}
	if existing, err := s.find(ctx, slug); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	defaults := make(map[string]string, len(m.Settings))
	for _, setting := range m.Settings {
		defaults[setting.Key] = setting.Default
	}
	settings, err := utils.StringMapToJSON(defaults)
	if err != nil {
		return nil, err
	}

	plugin := &models.Plugin{
		Slug:     m.Slug,
		Title:    m.Title,
		Version:  m.Version,
		Enabled:  true,
		Settings: settings,
	}
	if err := s.db.WithContext(ctx).Create(plugin).Error; err != nil {
		return nil, fmt.Errorf("install plugin %s: %w", slug, err)
	}
	s.logger.Success("Installed plugin %s %s", m.Slug, m.Version)
	return plugin, nil
}

// Uninstall removes the plugin row. Uninstalling a plugin that is not
// installed is not an error.
func (s *PluginService) Uninstall(ctx context.Context, slug string) error {
	if _, err := s.manifest(slug); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Plugin{})
	if res.Error != nil {
		return fmt.Errorf("uninstall plugin %s: %w", slug, res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("Uninstalled plugin %s", slug)
		events.Emit(events.PluginRemoved, slug)
	}
	return nil
}

// UpdateSettings validates and stores declared keys only.
func (s *PluginService) UpdateSettings(ctx context.Context, slug string, values map[string]string) (*models.Plugin, error) {
	m, err := s.manifest(slug)
	if err != nil {
		return nil, err
	}
	plugin, err := s.find(ctx, slug)
	if err != nil {
		return nil, err
	}

	current, err := utils.JSONToStringMap(plugin.Settings)
	if err != nil {
		return nil, fmt.Errorf("decode plugin %s settings: %w", slug, err)
	}

	declared := make(map[string]PluginSetting, len(m.Settings))
	for _, setting := range m.Settings {
		declared[setting.Key] = setting
	}

	verr := &ValidationError{}
	for key, value := range values {
		setting, ok := declared[key]
		if !ok {
			verr.add(key, "is not a setting of "+slug)
			continue
		}
		if err := s.validate.Var(value, setting.Rule); err != nil {
			verr.add(key, describeRule(err))
			continue
		}
		current[key] = value
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	if plugin.Settings, err = utils.StringMapToJSON(current); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(plugin).Update("settings", plugin.Settings).Error; err != nil {
		return nil, fmt.Errorf("save plugin %s settings: %w", slug, err)
	}
	return plugin, nil
}

func (s *PluginService) SetEnabled(ctx context.Context, slug string, enabled bool) (*models.Plugin, error) {
	plugin, err := s.find(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(plugin).Update("enabled", enabled).Error; err != nil {
		return nil, fmt.Errorf("toggle plugin %s: %w", slug, err)
	}
	plugin.Enabled = enabled
	return plugin, nil
}
