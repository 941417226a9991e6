// Package i18n resolves request locales and renders user-facing messages.
//
// The game ships bilingual copy (English and Russian). Error codes map to
// short user-facing sentences; the transport layer picks a printer from the
// request and renders the message for the player.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/innercity/internal/platform/errors"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

var supportedTags = []language.Tag{
	language.English,
	language.Russian,
}

var tagMatcher = language.NewMatcher(supportedTags)

// Supported returns the list of supported language tags.
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.English
}

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// ResolveTag determines the best language tag for the request, preferring an
// explicit lang query parameter over the Accept-Language header.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}

	if langValue := strings.TrimSpace(r.URL.Query().Get(LangParam)); langValue != "" {
		if parsed, err := language.Parse(langValue); err == nil {
			tag, _, _ := tagMatcher.Match(parsed)
			return canonical(tag)
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			tag, _, _ := tagMatcher.Match(tags...)
			return canonical(tag)
		}
	}

	return Default()
}

// canonical maps matcher output back to a supported base tag. The matcher may
// return refined tags such as ru-u-rg-... for regional variants.
func canonical(tag language.Tag) language.Tag {
	base, _ := tag.Base()
	for _, supported := range supportedTags {
		supportedBase, _ := supported.Base()
		if base == supportedBase {
			return supported
		}
	}
	return Default()
}

// UserMessage renders the user-facing message for a domain error code.
// Unregistered codes fall back to a generic message.
func UserMessage(tag language.Tag, code errors.Code) string {
	p := Printer(tag)
	key := messageKey(code)
	rendered := p.Sprintf(key)
	if rendered == key {
		return p.Sprintf(fallbackKey)
	}
	return rendered
}

const fallbackKey = "error.unknown"

func messageKey(code errors.Code) string {
	return "error." + strings.ToLower(string(code))
}

func init() {
	set := func(key, en, ru string) {
		_ = message.SetString(language.English, key, en)
		_ = message.SetString(language.Russian, key, ru)
	}

	set(fallbackKey, "Something went wrong.", "Что-то пошло не так.")
	set("error.district_not_found", "Unknown district.", "Квартал не найден.")
	set("error.level_not_found", "No active levels.", "Нет активных уровней.")
	set("error.tree_not_found", "Question tree not found.", "Дерево вопросов не найдено.")
	set("error.node_not_found", "Node not found or answer does not fit.", "Узел не найден или ответ не подходит.")
	set("error.branch_not_found", "Node not found or answer does not fit.", "Узел не найден или ответ не подходит.")
	set("error.path_not_found", "Path not found.", "Путь не найден.")
	set("error.card_not_found", "Card not found.", "Карта не найдена.")
	set("error.boss_not_found", "Boss not found.", "Босс не найден.")
	set("error.trajectory_not_started", "Trajectory not started.", "Траектория не запущена.")
	set("error.level_not_fork", "Level does not support path selection.", "Уровень не поддерживает выбор пути.")
	set("error.unlock_condition_unmet", "Unlock conditions are not met.", "Условия открытия не выполнены.")
	set("error.insufficient_effort", "Not enough Effort.", "Недостаточно Effort.")
	set("error.card_not_owned", "Card is not owned.", "Карта не в собственности.")
	set("error.card_not_equipped", "Card is not equipped.", "Карта не экипирована.")
	set("error.session_cooldown", "The next session is not available yet.", "Следующая сессия пока недоступна.")
	set("error.answer_invalid", "The answer cannot be interpreted.", "Ответ не удалось распознать.")
	set("error.content_invalid", "Game content is misconfigured.", "Игровой контент настроен неверно.")
	set("error.player_id_required", "Player id is required.", "Требуется идентификатор игрока.")
	set("error.not_found", "Record not found.", "Запись не найдена.")
}
