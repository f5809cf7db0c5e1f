package memorial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anoixa/mozaiek/internal/access"
)

// Kind 错误分类, HTTP 层据此选择状态码
type Kind int

const (
	KindUnknown Kind = iota
	InvalidInput
	NotFound
	Unauthorized
	StorageFailure
	ProcessingFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case NotFound:
		return "not found"
	case Unauthorized:
		return "unauthorized"
	case StorageFailure:
		return "storage failure"
	case ProcessingFailure:
		return "processing failure"
	default:
		return "unknown error"
	}
}

// Error 服务层错误
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 只比较 Kind, 使 errors.Is(err, ErrNotFound) 成立
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// 分类哨兵, 仅用于 errors.Is
var (
	ErrInvalidInput      = &Error{Kind: InvalidInput}
	ErrNotFound          = &Error{Kind: NotFound}
	ErrUnauthorized      = &Error{Kind: Unauthorized}
	ErrStorageFailure    = &Error{Kind: StorageFailure}
	ErrProcessingFailure = &Error{Kind: ProcessingFailure}
)

// ErrNotOwner 调用方不是纪念馆所有者
var ErrNotOwner = errors.New("caller does not own this memorial")

// LockedError 访问被锁定, 携带原因
type LockedError struct {
	Reason access.Reason
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("memorial is locked (%s)", e.Reason)
}

// KindOf 返回错误分类, 非服务层错误为 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func invalid(op, msg string) *Error {
	return newError(InvalidInput, op, msg, nil)
}
