package i18n

import (
	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/xerrors"

	"golang.org/x/text/language"
)

// 中文消息直接取 xerrors 的默认消息，这里只维护英文
var englishMessages = map[xerrors.ErrorCode]string{
	xerrors.CodeSuccess:          "Operation successful",
	xerrors.CodeInternalError:    "Internal server error",
	xerrors.CodeInvalidParams:    "Invalid parameters",
	xerrors.CodeInvalidRequest:   "Invalid request format",
	xerrors.CodeResourceNotFound: "Resource not found",

	xerrors.CodeAuthenticationFailed: "Authentication failed",
	xerrors.CodeInvalidToken:         "Invalid token",
	xerrors.CodeTokenExpired:         "Token expired",
	xerrors.CodePermissionDenied:     "Permission denied",

	xerrors.CodeDataIntegrityError: "Stage or template data is inconsistent",
	xerrors.CodeResourceLocked:     "Battle is being resolved, retry shortly",

	xerrors.CodeExternalServiceError: "Dependent service unavailable",
	xerrors.CodeDatabaseError:        "Database error",
	xerrors.CodeCacheError:           "Battle store unavailable",

	xerrors.CodeCharacterNotFound: "Character not found",
	xerrors.CodeCompanionNotFound: "Companion not found",
	xerrors.CodeStageNotFound:     "Stage not found",
	xerrors.CodeSpeciesNotFound:   "Monster species not found",

	xerrors.CodeBattleNotFound:       "Battle not found or expired",
	xerrors.CodeBattleNotParticipant: "You are not a participant of this battle",
	xerrors.CodeBattleNotOwner:       "You do not control this unit",
	xerrors.CodeBattleAlreadyEnded:   "Battle already ended",
	xerrors.CodeBattleInvalidAction:  "Invalid action",
	xerrors.CodeBattleTurnResolved:   "Turn already resolved",
}

// GetErrorMessage 错误码在指定语言下的消息，缺少英文时退回中文
func GetErrorMessage(code xerrors.ErrorCode, lang language.Tag) string {
	if lang == language.English {
		if msg, ok := englishMessages[code]; ok {
			return msg
		}
		if !code.Known() {
			return "Unknown error"
		}
	}
	return code.Message()
}
