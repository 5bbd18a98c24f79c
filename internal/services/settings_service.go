package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raman-prints/api/internal/repositories"
)

var (
	// ErrSettingsInvalidInput signals the caller provided invalid data.
	ErrSettingsInvalidInput = errors.New("settings: invalid input")
)

// SettingsServiceDeps bundles constructor inputs for the settings service.
type SettingsServiceDeps struct {
	Settings repositories.SettingsRepository
	Clock    func() time.Time
	Sanitize func(string) string
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type settingsService struct {
	settings repositories.SettingsRepository
	clock    func() time.Time
	sanitize func(string) string
	logger   func(context.Context, string, map[string]any)
}

// NewSettingsService wires dependencies into a concrete SettingsService implementation.
func NewSettingsService(deps SettingsServiceDeps) (SettingsService, error) {
	if deps.Settings == nil {
		return nil, errors.New("settings service: settings repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	sanitize := deps.Sanitize
	if sanitize == nil {
		sanitize = strings.TrimSpace
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &settingsService{
		settings: deps.Settings,
		clock: func() time.Time {
			return clock().UTC()
		},
		sanitize: sanitize,
		logger:   logger,
	}, nil
}

func (s *settingsService) GetSettings(ctx context.Context) (Settings, error) {
	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, cmd UpdateSettingsCommand) (Settings, error) {
	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return Settings{}, err
	}

	if cmd.IsServiceAvailable != nil {
		settings.IsServiceAvailable = *cmd.IsServiceAvailable
	}
	if cmd.IsCodEnabled != nil {
		settings.IsCodEnabled = *cmd.IsCodEnabled
	}
	if cmd.AdminContactName != nil {
		name := s.sanitize(*cmd.AdminContactName)
		if name == "" {
			return Settings{}, fmt.Errorf("%w: contact name cannot be empty", ErrSettingsInvalidInput)
		}
		settings.AdminContactName = name
	}
	if cmd.AdminContactPhone != nil {
		phone := strings.TrimSpace(*cmd.AdminContactPhone)
		if phone == "" {
			return Settings{}, fmt.Errorf("%w: contact phone cannot be empty", ErrSettingsInvalidInput)
		}
		settings.AdminContactPhone = phone
	}
	if cmd.ServiceItems != nil {
		items := make([]CatalogItem, 0, len(*cmd.ServiceItems))
		for i, item := range *cmd.ServiceItems {
			active := item.IsActive
			normalized, err := s.normalizeItem(item.Name, item.Price, &active)
			if err != nil {
				return Settings{}, fmt.Errorf("%w: item %d: %v", ErrSettingsInvalidInput, i, err)
			}
			items = append(items, normalized)
		}
		settings.ServiceItems = items
	}

	return s.save(ctx, settings)
}

func (s *settingsService) AddCatalogItem(ctx context.Context, cmd CatalogItemCommand) (Settings, error) {
	if cmd.Price == nil {
		return Settings{}, fmt.Errorf("%w: service price is required", ErrSettingsInvalidInput)
	}
	item, err := s.normalizeItem(cmd.Name, *cmd.Price, cmd.IsActive)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrSettingsInvalidInput, err)
	}

	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return Settings{}, err
	}
	for _, existing := range settings.ServiceItems {
		if strings.EqualFold(existing.Name, item.Name) {
			return Settings{}, fmt.Errorf("%w: service %q already exists", ErrSettingsInvalidInput, item.Name)
		}
	}

	settings.ServiceItems = append(settings.ServiceItems, item)
	return s.save(ctx, settings)
}

func (s *settingsService) UpdateCatalogItem(ctx context.Context, index int, cmd CatalogItemCommand) (Settings, error) {
	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return Settings{}, err
	}
	if index < 0 || index >= len(settings.ServiceItems) {
		return Settings{}, fmt.Errorf("%w: service index %d out of range", ErrSettingsInvalidInput, index)
	}

	current := settings.ServiceItems[index]
	name := current.Name
	if strings.TrimSpace(cmd.Name) != "" {
		name = cmd.Name
	}
	price := current.Price
	if cmd.Price != nil {
		price = *cmd.Price
	}
	active := current.IsActive
	if cmd.IsActive != nil {
		active = *cmd.IsActive
	}
	item, err := s.normalizeItem(name, price, &active)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrSettingsInvalidInput, err)
	}

	settings.ServiceItems[index] = item
	return s.save(ctx, settings)
}

func (s *settingsService) RemoveCatalogItem(ctx context.Context, index int) (Settings, error) {
	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return Settings{}, err
	}
	if index < 0 || index >= len(settings.ServiceItems) {
		return Settings{}, fmt.Errorf("%w: service index %d out of range", ErrSettingsInvalidInput, index)
	}

	settings.ServiceItems = append(settings.ServiceItems[:index], settings.ServiceItems[index+1:]...)
	return s.save(ctx, settings)
}

func (s *settingsService) save(ctx context.Context, settings Settings) (Settings, error) {
	settings.UpdatedAt = s.clock()
	if err := s.settings.Save(ctx, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s *settingsService) normalizeItem(name string, price int64, isActive *bool) (CatalogItem, error) {
	trimmed := s.sanitize(name)
	if trimmed == "" {
		return CatalogItem{}, errors.New("service name is required")
	}
	if price < 0 {
		return CatalogItem{}, fmt.Errorf("service %q price cannot be negative", trimmed)
	}
	active := true
	if isActive != nil {
		active = *isActive
	}
	return CatalogItem{Name: trimmed, Price: price, IsActive: active}, nil
}
