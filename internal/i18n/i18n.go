package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/hiwwer/marketbot/core/logger"
	"log/slog"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage is the fallback language for missing translations.
const DefaultLanguage = "en"

var (
	loadOnce sync.Once
	catalogs map[string]map[string]string
)

func load() {
	loadOnce.Do(func() {
		catalogs = make(map[string]map[string]string)
		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			logger.I18N.Error("locale dir unreadable", slog.String("err", err.Error()))
			return
		}
		for _, e := range entries {
			name := e.Name()
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			lang := strings.TrimSuffix(name, ".json")
			data, err := localeFS.ReadFile("locales/" + name)
			if err != nil {
				logger.I18N.Error("locale unreadable",
					slog.String("lang", lang),
					slog.String("err", err.Error()),
				)
				continue
			}
			var cat map[string]string
			if err := json.Unmarshal(data, &cat); err != nil {
				logger.I18N.Error("locale malformed",
					slog.String("lang", lang),
					slog.String("err", err.Error()),
				)
				continue
			}
			catalogs[lang] = cat
		}
	})
}

// Languages returns the embedded locale codes.
func Languages() []string {
	load()
	out := make([]string, 0, len(catalogs))
	for lang := range catalogs {
		out = append(out, lang)
	}
	return out
}

// Supported reports whether a locale for lang is embedded.
func Supported(lang string) bool {
	load()
	_, ok := catalogs[lang]
	return ok
}

// Text resolves key in the requested language with {name}-style parameter
// substitution. Total function: requested language, then the default
// language, then the raw key.
func Text(key, lang string, params map[string]string) string {
	load()

	value, ok := lookup(key, lang)
	if !ok {
		value, ok = lookup(key, DefaultLanguage)
	}
	if !ok {
		if logger.ShouldSampleDebug() {
			logger.I18N.Debug("missing translation",
				slog.String("event", "i18n.miss"),
				slog.String("key", key),
				slog.String("lang", lang),
			)
		}
		value = key
	}

	for name, val := range params {
		value = strings.ReplaceAll(value, fmt.Sprintf("{%s}", name), val)
	}
	return value
}

func lookup(key, lang string) (string, bool) {
	cat, ok := catalogs[lang]
	if !ok {
		return "", false
	}
	value, ok := cat[key]
	return value, ok
}
