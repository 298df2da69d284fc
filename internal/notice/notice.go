// Package notice renders user-facing notification text.
//
// Messages live in an x/text catalog keyed by notification kind. Requested
// languages are matched against the supported set with a language.Matcher,
// so "ko-KR" and "en-GB" resolve to the nearest catalog and anything else
// falls back to English.
package notice

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/fingerpick/internal/interaction"
)

// Supported lists the catalog languages. The first entry is the fallback.
var Supported = []language.Tag{language.English, language.Korean}

var (
	matcher = language.NewMatcher(Supported)
	cat     = buildCatalog()
)

const (
	keyNotEnough  = "not_enough_fingers"
	keyPickFailed = "pick_failed"
	keyUnknown    = "unknown"
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	b.Set(language.English, keyNotEnough, plural.Selectf(1, "%d",
		plural.One, "Touch with at least %d finger",
		plural.Other, "Touch with at least %d fingers",
	))
	b.SetString(language.English, keyPickFailed, "Could not pick with the current settings")
	b.SetString(language.English, keyUnknown, "Something happened")

	b.SetString(language.Korean, keyNotEnough, "손가락을 %d개 이상 올려 주세요")
	b.SetString(language.Korean, keyPickFailed, "현재 설정으로는 고를 수 없어요")
	b.SetString(language.Korean, keyUnknown, "알림")
	return b
}

// Match resolves a BCP-47 string to the closest supported language.
// Unparseable input falls back to English.
func Match(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return Supported[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Supported[0]
	}
	return Supported[idx]
}

// Text returns the message for kind in lang. threshold is the configured
// finger-count threshold; the message asks for one more than that.
func Text(lang string, kind interaction.NotificationKind, threshold int) string {
	p := message.NewPrinter(Match(lang), message.Catalog(cat))

	var s string
	switch kind {
	case interaction.NotificationNotEnoughFingers:
		s = p.Sprintf(keyNotEnough, threshold+1)
	case interaction.NotificationPickFailed:
		s = p.Sprintf(keyPickFailed)
	default:
		s = p.Sprintf(keyUnknown)
	}
	return norm.NFC.String(s)
}
