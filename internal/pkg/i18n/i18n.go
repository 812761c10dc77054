package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/ctxkey"
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"
)

var (
	// DefaultLanguage 未协商到语言时使用中文
	DefaultLanguage = language.Chinese

	SupportedLanguages = []language.Tag{
		language.Chinese,
		language.English,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

// WithLanguage 在 context 中设置语言偏好
func WithLanguage(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, ctxkey.Language, lang)
}

// GetLanguage 从 context 中获取语言偏好
func GetLanguage(ctx context.Context) language.Tag {
	if lang, ok := ctx.Value(ctxkey.Language).(language.Tag); ok {
		return lang
	}
	return DefaultLanguage
}

// FromRequest 协商请求语言：?lang= 优先，其次 Accept-Language
// 实时通道只在握手时协商一次，之后整条连接沿用
func FromRequest(r *http.Request) language.Tag {
	if code := r.URL.Query().Get("lang"); code != "" {
		return ParseLanguageCode(code)
	}
	return ParseAcceptLanguage(r.Header.Get("Accept-Language"))
}

// ParseAcceptLanguage 解析 Accept-Language，例如 "zh-CN,zh;q=0.9,en;q=0.8"
func ParseAcceptLanguage(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	return match(tags...)
}

// ParseLanguageCode 解析 "zh" / "zh-CN" / "en-US" 等语言代码
func ParseLanguageCode(code string) language.Tag {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return DefaultLanguage
	}
	tag, err := language.Parse(code)
	if err != nil {
		return DefaultLanguage
	}
	return match(tag)
}

// match 返回支持列表中的基础语言，去掉 matcher 附带的 -u-rg 扩展
func match(tags ...language.Tag) language.Tag {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return SupportedLanguages[idx]
}

// GetLanguageCode 获取语言代码 (zh, en)
func GetLanguageCode(lang language.Tag) string {
	base, _ := lang.Base()
	return base.String()
}

// Message 按 context 语言返回错误码的提示语
func Message(ctx context.Context, code xerrors.ErrorCode) string {
	return GetErrorMessage(code, GetLanguage(ctx))
}
