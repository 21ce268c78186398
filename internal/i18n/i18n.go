package i18n

import (
	"embed"
	"encoding/json"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog resolves user-facing messages for a fixed UI locale.
type Catalog struct {
	bundle    *goi18n.Bundle
	localizer *goi18n.Localizer
	tag       language.Tag
}

// NewCatalog loads the embedded locale files and pins the given UI locale.
func NewCatalog(locale string) (*Catalog, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		data, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, entry.Name()); err != nil {
			return nil, err
		}
	}

	return &Catalog{
		bundle:    bundle,
		localizer: goi18n.NewLocalizer(bundle, tag.String()),
		tag:       tag,
	}, nil
}

// T returns the localized message for key, falling back to the key itself
// when no translation exists.
func (c *Catalog) T(key string, data map[string]interface{}) string {
	translated, err := c.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		return key
	}
	return translated
}

// LanguageName renders a BCP 47 code as a human-readable language name in
// the catalog's locale ("vi" -> "Vietnamese" for an English UI).
func (c *Catalog) LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	name := display.Tags(c.tag).Name(tag)
	if name == "" {
		return strings.ToUpper(code)
	}
	return name
}
