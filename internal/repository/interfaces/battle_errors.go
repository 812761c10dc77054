package interfaces

import "errors"

var (
	// ErrBattleStateNotFound 战斗状态不存在或已过期
	ErrBattleStateNotFound = errors.New("battle state not found")
	// ErrBattleLocked 战斗正在被其他实例结算
	ErrBattleLocked = errors.New("battle is locked")
	// ErrTemplateNotFound 模板不存在
	ErrTemplateNotFound = errors.New("template not found")
	// ErrCharacterNotFound 角色不存在或不属于该控制者
	ErrCharacterNotFound = errors.New("character not found")
	// ErrCompanionNotFound 宠物不存在或不属于该控制者
	ErrCompanionNotFound = errors.New("companion not found")
)
