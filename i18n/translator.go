package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for validation keywords.
// data provides the keyword parameters to embed in the message (for example,
// "limit", "type" or "pattern"). Unknown codes are returned unchanged.
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"type":                 "should be {type}",
		"required":             "is a required property",
		"enum":                 "should be equal to one of the allowed values",
		"const":                "should be equal to constant",
		"pattern":              `should match pattern "{pattern}"`,
		"format":               `should match format "{format}"`,
		"minLength":            "should NOT be shorter than {limit} characters",
		"maxLength":            "should NOT be longer than {limit} characters",
		"minimum":              "should be >= {limit}",
		"maximum":              "should be <= {limit}",
		"exclusiveMinimum":     "should be > {limit}",
		"exclusiveMaximum":     "should be < {limit}",
		"multipleOf":           "should be multiple of {limit}",
		"minItems":             "should NOT have fewer than {limit} items",
		"maxItems":             "should NOT have more than {limit} items",
		"uniqueItems":          "should NOT have duplicate items",
		"minProperties":        "should NOT have fewer than {limit} properties",
		"maxProperties":        "should NOT have more than {limit} properties",
		"additionalProperties": "should NOT have additional properties",
		"dependencies":         "should have property {property} when property {dependency} is present",
		"oneOf":                "should match exactly one schema in oneOf",
		"anyOf":                "should match some schema in anyOf",
		"not":                  "should NOT be valid",
		"contains":             "should contain a valid item",
		"propertyNames":        "property name is invalid",
		"false":                "boolean schema is false",
	},
	"ja": {
		"type":                 "{type} 型である必要があります",
		"required":             "必須プロパティです",
		"enum":                 "許可された値のいずれかである必要があります",
		"const":                "定数と一致する必要があります",
		"pattern":              "パターン \"{pattern}\" に一致する必要があります",
		"format":               "形式 \"{format}\" に一致する必要があります",
		"minLength":            "{limit} 文字以上である必要があります",
		"maxLength":            "{limit} 文字以下である必要があります",
		"minimum":              "{limit} 以上である必要があります",
		"maximum":              "{limit} 以下である必要があります",
		"exclusiveMinimum":     "{limit} より大きい必要があります",
		"exclusiveMaximum":     "{limit} より小さい必要があります",
		"multipleOf":           "{limit} の倍数である必要があります",
		"minItems":             "{limit} 個以上の要素が必要です",
		"maxItems":             "{limit} 個以下の要素である必要があります",
		"uniqueItems":          "要素が重複しています",
		"minProperties":        "{limit} 個以上のプロパティが必要です",
		"maxProperties":        "{limit} 個以下のプロパティである必要があります",
		"additionalProperties": "追加のプロパティは許可されていません",
		"dependencies":         "プロパティ {dependency} がある場合はプロパティ {property} が必要です",
		"oneOf":                "oneOf のスキーマのいずれか一つだけに一致する必要があります",
		"anyOf":                "anyOf のスキーマのいずれかに一致する必要があります",
		"not":                  "有効であってはいけません",
		"contains":             "有効な要素を含む必要があります",
		"propertyNames":        "プロパティ名が不正です",
		"false":                "false スキーマです",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := catalogs[t.lang][code]
	if !ok {
		return code
	}
	return Format(tmpl, data)
}

// Format replaces {name} placeholders in tmpl with values from data.
// Placeholders without a value are left as they are.
func Format(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// Dictionary returns the built-in Translator for lang ("en"/"ja").
func Dictionary(lang string) Translator {
	if _, ok := catalogs[lang]; !ok {
		lang = "en"
	}
	return dictTranslator{lang: lang}
}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) { SetTranslator(Dictionary(lang)) }

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// Current returns the Translator installed by SetLanguage or SetTranslator.
func Current() Translator {
	mu.RLock()
	defer mu.RUnlock()
	return currentTranslator
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return Current().Message(code, data) }
