package registry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/daniellittledev/ReSpacer/internal/settings"
)

// Property names stored under each page.
const (
	PropIndentStyle = "IndentStyle"
	PropTabSize     = "TabSize"
	PropIndentSize  = "IndentSize"
	PropInsertTabs  = "InsertTabs"
)

// Adapter reads and writes text editor settings held in a Registry.
type Adapter struct {
	reg *Registry
	log zerolog.Logger
}

// NewAdapter creates an adapter over reg.
func NewAdapter(reg *Registry, logger zerolog.Logger) *Adapter {
	return &Adapter{reg: reg, log: logger}
}

// Extract reads every page that has an indent style. Numeric and boolean
// values that fail to parse are treated as not captured.
func (a *Adapter) Extract(ctx context.Context) (settings.Document, error) {
	if err := ctx.Err(); err != nil {
		return settings.Document{}, err
	}

	var doc settings.Document
	for _, page := range a.reg.Pages() {
		raw, ok := a.reg.Get(Key(page, PropIndentStyle))
		if !ok {
			a.log.Debug().Str("page", page).Msg("Page has no indent style, skipping")
			continue
		}
		style, err := parseStyle(raw)
		if err != nil {
			a.log.Warn().Err(err).Str("page", page).Msg("Invalid indent style, skipping page")
			continue
		}

		tabs := settings.TabSettings{IndentStyle: style}
		tabs.TabSize = a.intValue(page, PropTabSize)
		tabs.IndentSize = a.intValue(page, PropIndentSize)
		tabs.InsertTabs = a.boolValue(page, PropInsertTabs)

		doc.Pages = append(doc.Pages, settings.PropertyPage{
			Name:     page,
			Settings: settings.EditorSettings{TabSettings: tabs},
		})
	}
	return doc, nil
}

// parseStyle accepts a style name or the host's numeric form.
func parseStyle(raw string) (settings.IndentStyle, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		style := settings.IndentStyle(n)
		if !style.Valid() {
			return 0, fmt.Errorf("indent style %d out of range", n)
		}
		return style, nil
	}
	return settings.ParseIndentStyle(raw)
}

func (a *Adapter) intValue(page, prop string) *int {
	raw, ok := a.reg.Get(Key(page, prop))
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		a.log.Debug().Str("page", page).Str("property", prop).Str("value", raw).Msg("Ignoring non-numeric value")
		return nil
	}
	return &v
}

func (a *Adapter) boolValue(page, prop string) *bool {
	raw, ok := a.reg.Get(Key(page, prop))
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		a.log.Debug().Str("page", page).Str("property", prop).Str("value", raw).Msg("Ignoring non-boolean value")
		return nil
	}
	return &v
}

// Apply writes the captured values of each known page and saves the
// registry. Unknown pages are skipped with a warning.
func (a *Adapter) Apply(ctx context.Context, doc settings.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	applied := 0
	for _, page := range doc.Pages {
		if err := a.applyPage(page); err != nil {
			a.log.Warn().Err(err).Str("page", page.Name).Msg("Skipping page")
			continue
		}
		applied++
	}

	if err := a.reg.Save(); err != nil {
		return fmt.Errorf("applying settings: %w", err)
	}
	a.log.Debug().Int("pages", applied).Msg("Settings applied")
	return nil
}

func (a *Adapter) applyPage(page settings.PropertyPage) error {
	if !a.reg.HasPage(page.Name) {
		return fmt.Errorf("%w: %s", ErrUnknownPage, page.Name)
	}

	tabs := page.Settings.TabSettings
	if err := a.reg.Set(Key(page.Name, PropIndentStyle), tabs.IndentStyle.String()); err != nil {
		return err
	}
	if tabs.TabSize != nil {
		if err := a.reg.Set(Key(page.Name, PropTabSize), strconv.Itoa(*tabs.TabSize)); err != nil {
			return err
		}
	}
	if tabs.IndentSize != nil {
		if err := a.reg.Set(Key(page.Name, PropIndentSize), strconv.Itoa(*tabs.IndentSize)); err != nil {
			return err
		}
	}
	if tabs.InsertTabs != nil {
		if err := a.reg.Set(Key(page.Name, PropInsertTabs), strconv.FormatBool(*tabs.InsertTabs)); err != nil {
			return err
		}
	}
	return nil
}
