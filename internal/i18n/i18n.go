package i18n

import (
	"fmt"
	"strings"

	"github.com/hostara-cloud/internal/constants"

	"github.com/gin-gonic/gin"
)

// DefaultLocale 回退语言
const DefaultLocale = constants.LocaleEnUS

// ResolveLocale 解析请求语言：优先 lang 查询参数，其次 Accept-Language 头，最后回退默认语言。
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := normalize(c.Query("lang")); lang != "" {
		return lang
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang := normalize(tag); lang != "" {
			return lang
		}
	}
	return DefaultLocale
}

// normalize 将语言标签归一到支持的语言，未命中返回空串。
func normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	for _, locale := range constants.SupportedLocales {
		if strings.EqualFold(tag, locale) {
			return locale
		}
	}
	// 只带主语言子标签时按前缀匹配（如 en → en-US）
	primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
	for _, locale := range constants.SupportedLocales {
		if strings.ToLower(strings.SplitN(locale, "-", 2)[0]) == primary {
			return locale
		}
	}
	return ""
}

// T 按语言查找文案，逐级回退：请求语言 → 默认语言 → key 本身。
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if locale != DefaultLocale {
		if msg, ok := messages[DefaultLocale][key]; ok {
			return msg
		}
	}
	return key
}

// Sprintf 查找文案模板并格式化参数。
func Sprintf(locale, key string, args ...interface{}) string {
	template := T(locale, key)
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}
