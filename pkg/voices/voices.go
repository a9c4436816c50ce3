// Package voices resolves logical voice requests to concrete synthesis voices.
//
// A Directory wraps a voice catalog (device voices or a vendor voice list)
// and answers "which voice should speak Spanish?" with a deterministic
// fallback chain: exact tag, language family, English, anything. Results are
// cached per language for the life of the process.
package voices

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Quality is a provider-reported ranking of voice naturalness.
// Higher values win ties during resolution.
type Quality int

const (
	// QualityDefault is the baseline tier. Voices with a missing or
	// unrecognized quality are treated as default.
	QualityDefault Quality = iota
	QualityEnhanced
	QualityPremium
)

// ParseQuality maps a catalog quality string to a Quality tier.
func ParseQuality(s string) Quality {
	switch strings.ToLower(s) {
	case "premium":
		return QualityPremium
	case "enhanced":
		return QualityEnhanced
	default:
		return QualityDefault
	}
}

// String returns the tier name.
func (q Quality) String() string {
	switch q {
	case QualityPremium:
		return "premium"
	case QualityEnhanced:
		return "enhanced"
	default:
		return "default"
	}
}

// Voice is a selectable synthetic voice.
type Voice struct {
	// Identifier is the provider-specific voice ID.
	Identifier string `json:"identifier"`

	// Name is a human-readable voice name.
	Name string `json:"name"`

	// Language is a BCP-47-like tag (e.g. "es-ES").
	Language string `json:"language"`

	// Quality is the naturalness tier used to break ties.
	Quality Quality `json:"quality"`
}

// Source supplies the voice catalog. Implementations wrap the device voice
// list or a vendor catalog; the Directory treats the result as opaque records
// validated at the boundary.
type Source interface {
	// ListVoices returns all available voices.
	ListVoices(ctx context.Context) ([]Voice, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]Voice, error)

// ListVoices calls the function.
func (f SourceFunc) ListVoices(ctx context.Context) ([]Voice, error) {
	return f(ctx)
}

// StaticSource returns a Source serving a fixed voice list.
func StaticSource(vs []Voice) Source {
	return SourceFunc(func(context.Context) ([]Voice, error) {
		return vs, nil
	})
}

// Directory resolves (language, quality preference) requests to voices.
// It is safe for concurrent use.
type Directory struct {
	source Source
	logger *slog.Logger

	mu       sync.Mutex
	catalog  []Voice          // validated voices, catalog order preserved
	byLang   map[string]Voice // resolution cache, keyed by requested language
	loaded   bool
}

// NewDirectory creates a Directory backed by the given catalog source.
func NewDirectory(source Source) *Directory {
	return &Directory{
		source: source,
		logger: slog.Default().With("component", "voices.directory"),
		byLang: make(map[string]Voice),
	}
}

// Resolve returns the best voice for the language, or nil if the catalog is
// empty. The caller should fall back to the provider's own default voice on
// nil. Resolution never fails: a missing match relaxes through the fallback
// chain instead of returning an error.
func (d *Directory) Resolve(ctx context.Context, language string) (*Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	if v, ok := d.byLang[language]; ok {
		return &v, nil
	}

	v := d.resolveLocked(language)
	if v == nil {
		return nil, nil
	}

	d.byLang[language] = *v
	d.logger.Debug("resolved voice",
		"language", language,
		"voice", v.Identifier,
		"voice_language", v.Language,
		"quality", v.Quality.String(),
	)
	return v, nil
}

// Refresh discards the cache and re-queries the catalog source.
func (d *Directory) Refresh(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.loaded = false
	d.byLang = make(map[string]Voice)
	return d.ensureLoadedLocked(ctx)
}

// Catalog returns the validated voice list, loading it if needed.
func (d *Directory) Catalog(ctx context.Context) ([]Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]Voice, len(d.catalog))
	copy(out, d.catalog)
	return out, nil
}

// ensureLoadedLocked populates the catalog on first use.
func (d *Directory) ensureLoadedLocked(ctx context.Context) error {
	if d.loaded {
		return nil
	}

	raw, err := d.source.ListVoices(ctx)
	if err != nil {
		return err
	}

	catalog := make([]Voice, 0, len(raw))
	dropped := 0
	for _, v := range raw {
		if v.Identifier == "" || !ValidLanguageTag(v.Language) {
			dropped++
			continue
		}
		catalog = append(catalog, v)
	}

	d.catalog = catalog
	d.loaded = true

	d.logger.Info("voice catalog loaded",
		"voices", len(catalog),
		"dropped", dropped,
	)
	return nil
}

// resolveLocked walks the fallback chain. Each step is tried only if the
// previous one found nothing.
func (d *Directory) resolveLocked(language string) *Voice {
	if len(d.catalog) == 0 {
		return nil
	}

	// 1. Exact tag match, highest quality wins ties.
	if v := d.bestMatchLocked(func(c Voice) bool {
		return strings.EqualFold(c.Language, language)
	}); v != nil {
		return v
	}

	// 2. Language family: es-MX matches any es* voice.
	family := LanguageFamily(language)
	if family != "" {
		if v := d.bestMatchLocked(func(c Voice) bool {
			return LanguageFamily(c.Language) == family
		}); v != nil {
			return v
		}
	}

	// 3. Any English voice.
	if v := d.bestMatchLocked(func(c Voice) bool {
		return LanguageFamily(c.Language) == "en"
	}); v != nil {
		return v
	}

	// 4. Last resort: first voice in the catalog.
	v := d.catalog[0]
	return &v
}

// bestMatchLocked returns the highest-quality voice satisfying the predicate,
// preserving catalog order among equal tiers.
func (d *Directory) bestMatchLocked(match func(Voice) bool) *Voice {
	var candidates []Voice
	for _, c := range d.catalog {
		if match(c) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Quality > candidates[j].Quality
	})
	return &candidates[0]
}

// ValidLanguageTag reports whether the tag has an "xx" or "xx-YY" shape.
// Malformed tags are excluded from matching but never raise errors.
func ValidLanguageTag(tag string) bool {
	parts := strings.Split(tag, "-")
	if len(parts) < 1 || len(parts) > 2 {
		return false
	}
	if len(parts[0]) != 2 || !isAlpha(parts[0]) {
		return false
	}
	if len(parts) == 2 && (len(parts[1]) != 2 || !isAlpha(parts[1])) {
		return false
	}
	return true
}

// LanguageFamily strips the region subtag: "es-MX" becomes "es".
// Returns "" for malformed tags.
func LanguageFamily(tag string) string {
	if !ValidLanguageTag(tag) {
		return ""
	}
	return strings.ToLower(strings.SplitN(tag, "-", 2)[0])
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
