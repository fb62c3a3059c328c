// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n provides the localized message catalog for askdesk.
//
// The backend serves two audiences (Russian and Kazakh); every string a user
// can see in the transcript or the UI chrome goes through this catalog so
// that a locale switch re-renders existing chrome without a refetch.
package i18n

import (
	"golang.org/x/text/language"
)

// =============================================================================
// LOCALES
// =============================================================================

// Locale identifies a supported UI language.
type Locale string

const (
	LocaleRU Locale = "ru"
	LocaleKZ Locale = "kz"
)

// DefaultLocale is used when nothing is configured or persisted.
const DefaultLocale = LocaleRU

// String returns the wire value sent to the backend (`locale` query param).
func (l Locale) String() string {
	return string(l)
}

// IsValid reports whether the locale is one the catalog can serve.
func (l Locale) IsValid() bool {
	return l == LocaleRU || l == LocaleKZ
}

// supportedTags mirrors the catalog locales for language matching.
var supportedTags = []language.Tag{
	language.Russian, // ru
	language.Kazakh,  // kk / kz
}

var matcher = language.NewMatcher(supportedTags)

// Match resolves an arbitrary BCP 47 string ("ru-RU", "kk", "kz", ...) to a
// catalog locale. Unknown or unparsable input falls back to DefaultLocale.
func Match(raw string) Locale {
	if raw == "" {
		return DefaultLocale
	}
	// The backend historically used "kz" for Kazakh, which is not a valid
	// BCP 47 primary subtag; normalize it before matching.
	if raw == "kz" || raw == "қаз" {
		return LocaleKZ
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return DefaultLocale
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return DefaultLocale
	}
	if supportedTags[idx] == language.Kazakh {
		return LocaleKZ
	}
	return LocaleRU
}

// Toggle flips between the two supported locales.
func Toggle(l Locale) Locale {
	if l == LocaleRU {
		return LocaleKZ
	}
	return LocaleRU
}

// =============================================================================
// MESSAGE KEYS
// =============================================================================

// Key identifies a catalog entry.
type Key string

const (
	KeyGreeting            Key = "chat.greeting"
	KeyChatError           Key = "chat.error"
	KeyRequestFeedback     Key = "feedback.request"
	KeyBadFeedbackPrompt   Key = "feedback.badPrompt"
	KeyFeedbackThanks      Key = "feedback.thanks"
	KeyNewChat             Key = "sidebar.newChat"
	KeyDefaultChatTitle    Key = "sidebar.defaultTitle"
	KeyTypingIndicator     Key = "chat.typing"
	KeyInputPlaceholder    Key = "chat.inputPlaceholder"
	KeyAttachedFiles       Key = "chat.attachedFiles"
	KeyRegistrationInvalid Key = "registration.invalid"
	KeyRegistrationSent    Key = "registration.sent"
)

// =============================================================================
// CATALOG
// =============================================================================

var catalog = map[Locale]map[Key]string{
	LocaleRU: {
		KeyGreeting:            "Здравствуйте! Я виртуальный помощник. Выберите категорию или задайте вопрос.",
		KeyChatError:           "Произошла ошибка при обработке запроса. Попробуйте ещё раз позже.",
		KeyRequestFeedback:     "Оцените, пожалуйста, ответ.",
		KeyBadFeedbackPrompt:   "Для регистрации обращения заполните форму ниже.",
		KeyFeedbackThanks:      "Спасибо за вашу оценку!",
		KeyNewChat:             "Новый чат",
		KeyDefaultChatTitle:    "Текущий диалог",
		KeyTypingIndicator:     "Помощник печатает…",
		KeyInputPlaceholder:    "Введите сообщение…",
		KeyAttachedFiles:       "Прикреплённые документы:",
		KeyRegistrationInvalid: "Проверьте правильность заполнения полей.",
		KeyRegistrationSent:    "Обращение зарегистрировано.",
	},
	LocaleKZ: {
		KeyGreeting:            "Сәлеметсіз бе! Мен виртуалды көмекшімін. Санатты таңдаңыз немесе сұрақ қойыңыз.",
		KeyChatError:           "Сұрауды өңдеу кезінде қате шықты. Кейінірек қайталап көріңіз.",
		KeyRequestFeedback:     "Жауапты бағалаңыз.",
		KeyBadFeedbackPrompt:   "Өтінішті тіркеу үшін төмендегі форманы толтырыңыз.",
		KeyFeedbackThanks:      "Бағаңызға рахмет!",
		KeyNewChat:             "Жаңа чат",
		KeyDefaultChatTitle:    "Ағымдағы диалог",
		KeyTypingIndicator:     "Көмекші жазып жатыр…",
		KeyInputPlaceholder:    "Хабарлама енгізіңіз…",
		KeyAttachedFiles:       "Тіркелген құжаттар:",
		KeyRegistrationInvalid: "Өрістердің дұрыс толтырылғанын тексеріңіз.",
		KeyRegistrationSent:    "Өтініш тіркелді.",
	},
}

// T returns the catalog entry for the key in the given locale.
// Missing entries fall back to Russian, then to the key itself so a
// translation gap never renders as an empty message.
func T(l Locale, k Key) string {
	if msgs, ok := catalog[l]; ok {
		if s, ok := msgs[k]; ok {
			return s
		}
	}
	if s, ok := catalog[LocaleRU][k]; ok {
		return s
	}
	return string(k)
}

// Translate localizes a server-provided label (category names, FAQ
// questions) using the translation table shipped with the category payload.
// The backend stores canonical Russian names; the table maps them to Kazakh.
func Translate(l Locale, label string, table map[string]string) string {
	if l == LocaleRU || len(table) == 0 {
		return label
	}
	if tr, ok := table[label]; ok && tr != "" {
		return tr
	}
	return label
}
