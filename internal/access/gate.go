// Package access 决定访客能否查看或写入一个纪念馆
package access

import (
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/anoixa/mozaiek/database/models"
)

// DefaultCost 默认 bcrypt 强度
const DefaultCost = 12

// MaxPasswordBytes bcrypt 只使用前 72 字节
const MaxPasswordBytes = 72

var (
	ErrPasswordEmpty   = errors.New("password must not be empty")
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

// State 访问判定状态
type State int

const (
	Public State = iota
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case Public:
		return "public"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Reason 锁定原因, 仅在 Locked 时有意义
type Reason int

const (
	ReasonNone Reason = iota
	CredentialRequired
	CredentialInvalid
)

func (r Reason) String() string {
	switch r {
	case CredentialRequired:
		return "credential_required"
	case CredentialInvalid:
		return "credential_invalid"
	default:
		return ""
	}
}

// Decision 一次访问判定
type Decision struct {
	State  State
	Reason Reason
}

// Allowed 是否可以查看内容
func (d Decision) Allowed() bool {
	return d.State != Locked
}

// Gate 无状态的访问控制, 每个请求自带凭据
type Gate struct {
	cost int
}

// NewGate 创建访问控制, cost 超出 bcrypt 范围时使用默认值
func NewGate(cost int) *Gate {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Gate{cost: cost}
}

// HashPassword 生成 bcrypt 哈希
func (g *Gate) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordEmpty
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Check 判定访问, 公开纪念馆从不校验凭据
func (g *Gate) Check(m *models.Memorial, credential string) Decision {
	if m.IsPublic {
		return Decision{State: Public}
	}
	if !m.HasPassword() {
		return Decision{State: Unlocked}
	}
	if credential == "" {
		return Decision{State: Locked, Reason: CredentialRequired}
	}

	err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(credential))
	if err == nil {
		return Decision{State: Unlocked}
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		log.Printf("[Access] password check failed for memorial %s: %v", m.ID, err)
	}
	return Decision{State: Locked, Reason: CredentialInvalid}
}
