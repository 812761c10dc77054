package xerrors

import (
	"fmt"
	"net/http"
)

// ErrorCode 业务错误码，按首位数字分段：1 通用，2 认证，3 权限，6 业务，7 依赖服务，8 游戏
type ErrorCode int

func (c ErrorCode) String() string {
	if info, ok := codeTable[c]; ok {
		return fmt.Sprintf("%d (%s)", c, info.message)
	}
	return fmt.Sprintf("%d (未定义的错误码)", c)
}

// ToInt 响应体中的数值错误码
func (c ErrorCode) ToInt() int {
	return int(c)
}

const (
	CodeSuccess          ErrorCode = 100000
	CodeInternalError    ErrorCode = 100001
	CodeInvalidParams    ErrorCode = 100002
	CodeInvalidRequest   ErrorCode = 100003
	CodeResourceNotFound ErrorCode = 100404

	CodeAuthenticationFailed ErrorCode = 200001
	CodeInvalidToken         ErrorCode = 200002
	CodeTokenExpired         ErrorCode = 200003

	CodePermissionDenied ErrorCode = 300001

	CodeDataIntegrityError ErrorCode = 600002 // 模板/关卡配置不一致
	CodeResourceLocked     ErrorCode = 600004 // 战斗结算锁被占用

	CodeExternalServiceError ErrorCode = 700001
	CodeDatabaseError        ErrorCode = 700003
	CodeCacheError           ErrorCode = 700004

	// 80xxxx 角色/宠物
	CodeCharacterNotFound ErrorCode = 800001
	CodeCompanionNotFound ErrorCode = 800002

	// 82xxxx 模板
	CodeStageNotFound   ErrorCode = 820001
	CodeSpeciesNotFound ErrorCode = 820002

	// 83xxxx 战斗
	CodeBattleNotFound       ErrorCode = 830001
	CodeBattleNotParticipant ErrorCode = 830002
	CodeBattleNotOwner       ErrorCode = 830003
	CodeBattleAlreadyEnded   ErrorCode = 830004
	CodeBattleInvalidAction  ErrorCode = 830005
	CodeBattleTurnResolved   ErrorCode = 830006
)

type codeInfo struct {
	message   string
	status    int
	level     ErrorLevel
	retryable bool
}

var codeTable = map[ErrorCode]codeInfo{
	CodeSuccess:          {"操作成功", http.StatusOK, LevelInfo, false},
	CodeInternalError:    {"内部服务错误", http.StatusInternalServerError, LevelError, true},
	CodeInvalidParams:    {"参数错误", http.StatusBadRequest, LevelWarn, false},
	CodeInvalidRequest:   {"请求格式错误", http.StatusBadRequest, LevelWarn, false},
	CodeResourceNotFound: {"资源不存在", http.StatusNotFound, LevelWarn, false},

	CodeAuthenticationFailed: {"认证失败", http.StatusUnauthorized, LevelWarn, false},
	CodeInvalidToken:         {"无效令牌", http.StatusUnauthorized, LevelWarn, false},
	CodeTokenExpired:         {"令牌过期", http.StatusUnauthorized, LevelWarn, false},

	CodePermissionDenied: {"权限不足", http.StatusForbidden, LevelWarn, false},

	CodeDataIntegrityError: {"数据完整性错误", http.StatusBadRequest, LevelError, false},
	CodeResourceLocked:     {"资源被锁定", http.StatusConflict, LevelWarn, true},

	CodeExternalServiceError: {"外部服务错误", http.StatusServiceUnavailable, LevelCritical, true},
	CodeDatabaseError:        {"数据库错误", http.StatusServiceUnavailable, LevelCritical, true},
	CodeCacheError:           {"缓存服务错误", http.StatusServiceUnavailable, LevelCritical, true},

	CodeCharacterNotFound: {"角色不存在", http.StatusNotFound, LevelWarn, false},
	CodeCompanionNotFound: {"宠物不存在", http.StatusNotFound, LevelWarn, false},
	CodeStageNotFound:     {"关卡不存在", http.StatusNotFound, LevelWarn, false},
	CodeSpeciesNotFound:   {"怪物种族不存在", http.StatusNotFound, LevelWarn, false},

	CodeBattleNotFound:       {"战斗不存在或已过期", http.StatusNotFound, LevelWarn, false},
	CodeBattleNotParticipant: {"你不是该战斗的参与者", http.StatusForbidden, LevelWarn, false},
	CodeBattleNotOwner:       {"你不能控制该单位", http.StatusForbidden, LevelWarn, false},
	CodeBattleAlreadyEnded:   {"战斗已结束", http.StatusConflict, LevelWarn, false},
	CodeBattleInvalidAction:  {"行动无效", http.StatusBadRequest, LevelWarn, false},
	CodeBattleTurnResolved:   {"回合已结算", http.StatusConflict, LevelWarn, false},
}

// 未登记的错误码按内部错误处理
func lookup(code ErrorCode) codeInfo {
	if info, ok := codeTable[code]; ok {
		return info
	}
	return codeTable[CodeInternalError]
}

// GetHTTPStatus 业务错误码对应的 HTTP 状态码
func GetHTTPStatus(code ErrorCode) int {
	return lookup(code).status
}

func categoryOf(code ErrorCode) string {
	switch code / 100000 {
	case 1:
		return "system"
	case 2:
		return "authentication"
	case 3:
		return "authorization"
	case 6:
		return "business"
	case 7:
		return "external"
	case 8:
		if code/10000 == 83 {
			return "battle"
		}
		return "game"
	default:
		return "unknown"
	}
}

// Known 错误码是否已登记
func (c ErrorCode) Known() bool {
	_, ok := codeTable[c]
	return ok
}

// Message 错误码的默认中文消息
func (c ErrorCode) Message() string {
	if info, ok := codeTable[c]; ok {
		return info.message
	}
	return "未知错误"
}
