package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldViolation 单个字段的校验失败
type FieldViolation struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

var fieldLabels = map[string]string{
	"StageID":      "关卡ID",
	"CharacterID":  "角色ID",
	"CompanionIDs": "出战宠物",
	"BattleID":     "战斗ID",
	"Turn":         "回合数",
	"Actions":      "行动列表",
	"ActorID":      "行动单位",
	"ActionType":   "行动类型",
	"TargetID":     "目标单位",
	"SkillID":      "技能ID",
	"ItemID":       "道具ID",
}

// 第一个 %s 是字段名，第二个是规则参数
var tagMessages = map[string]string{
	"required":      "%s不能为空",
	"gte":           "%s必须大于或等于%s",
	"lte":           "%s必须小于或等于%s",
	"gt":            "%s必须大于%s",
	"lt":            "%s必须小于%s",
	"len":           "%s长度必须为%s",
	"uuid":          "%s不是有效的UUID",
	"oneof":         "%s必须是以下之一: %s",
	"unique":        "%s中包含重复的值",
	"battle_action": "%s必须是 attack/defend/capture/flee/wait/skill 之一",
}

// TranslateValidationErrors 把校验错误展开成逐字段的中文说明
func TranslateValidationErrors(err error) []FieldViolation {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []FieldViolation{{Field: "request", Tag: "unknown", Message: err.Error()}}
	}

	out := make([]FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldViolation{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: describe(fe),
			Value:   clip(fe.Value()),
		})
	}
	return out
}

func describe(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch tag := fe.Tag(); tag {
	case "min", "max":
		if fe.Kind().String() == "string" || fe.Kind().String() == "slice" {
			if tag == "min" {
				return fmt.Sprintf("%s长度不能少于%s", label, fe.Param())
			}
			return fmt.Sprintf("%s长度不能超过%s", label, fe.Param())
		}
		if tag == "min" {
			return fmt.Sprintf("%s不能小于%s", label, fe.Param())
		}
		return fmt.Sprintf("%s不能大于%s", label, fe.Param())
	default:
		tmpl, ok := tagMessages[tag]
		if !ok {
			return fmt.Sprintf("%s校验失败: %s", label, tag)
		}
		if strings.Count(tmpl, "%s") == 2 {
			return fmt.Sprintf(tmpl, label, fe.Param())
		}
		return fmt.Sprintf(tmpl, label)
	}
}

// clip 截断过长的取值，按 rune 计数
func clip(v any) string {
	if v == nil {
		return ""
	}
	s := []rune(fmt.Sprint(v))
	if len(s) > 50 {
		return string(s[:50]) + "..."
	}
	return string(s)
}
