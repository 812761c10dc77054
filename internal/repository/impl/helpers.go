package impl

import (
	"encoding/json"
	"fmt"
)

// decodeJSONColumn 解析 JSONB 列，空值保持零值
func decodeJSONColumn(raw []byte, out any, column string) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", column, err)
	}
	return nil
}
