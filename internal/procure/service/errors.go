package service

import (
	"errors"
	"fmt"
	"strings"
)

// IncompleteAssignmentError 分派未覆盖全部行项时推进PR被拒。
// 带未分派行项ID，调用方据此补齐。
type IncompleteAssignmentError struct {
	PRID              string
	UnassignedItemIDs []string
}

func (e *IncompleteAssignmentError) Error() string {
	return fmt.Sprintf("assignment for PR %s is incomplete, unassigned items: %s",
		e.PRID, strings.Join(e.UnassignedItemIDs, ", "))
}

// IsIncompleteAssignment 判断是否分派未完成错误
func IsIncompleteAssignment(err error) bool {
	var ia *IncompleteAssignmentError
	return errors.As(err, &ia)
}

// DataIntegrityError 数据完整性被破坏（如选中的报价不属于该PR的询价单）。
// 属于调用方或协作方的bug，响应为失败并大声记日志，不重试。
type DataIntegrityError struct {
	Detail string
}

func (e *DataIntegrityError) Error() string {
	return "data integrity violation: " + e.Detail
}

// IsDataIntegrity 判断是否数据完整性错误
func IsDataIntegrity(err error) bool {
	var di *DataIntegrityError
	return errors.As(err, &di)
}
