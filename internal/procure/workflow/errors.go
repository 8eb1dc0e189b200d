package workflow

import (
	"errors"
	"fmt"
)

// TransitionError的原因
const (
	ReasonNoSuchTransition = "no_such_transition"
	ReasonRoleNotPermitted = "role_not_permitted"
)

// TransitionError 非法流转：表中没有该(状态,动作)，或角色不在允许集中
type TransitionError struct {
	Status string
	Action string
	Role   string
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason == ReasonRoleNotPermitted {
		return fmt.Sprintf("role %s is not permitted to %s a PR in status %s", e.Role, e.Action, e.Status)
	}
	return fmt.Sprintf("action %s is not allowed in status %s", e.Action, e.Status)
}

// IsInvalidTransition 判断是否非法流转错误
func IsInvalidTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

// ErrConcurrentModification 乐观并发检查失败：读到写之间状态被其他请求改过。
// 可恢复，调用方重新读取后重试即可。
var ErrConcurrentModification = errors.New("purchase request was modified concurrently, reload and retry")
