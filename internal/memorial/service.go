// Package memorial 纪念馆与回忆的业务编排
package memorial

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/anoixa/mozaiek/cache"
	"github.com/anoixa/mozaiek/database/models"
	"github.com/anoixa/mozaiek/database/repo/memorials"
	"github.com/anoixa/mozaiek/internal/access"
	"github.com/anoixa/mozaiek/internal/imaging"
	"github.com/anoixa/mozaiek/internal/reveal"
	"github.com/anoixa/mozaiek/storage"
	"github.com/anoixa/mozaiek/utils"
	"github.com/anoixa/mozaiek/utils/sanitize"
)

const (
	MaxNameRunes        = 100
	MaxDescriptionRunes = 2000
	MaxMessageRunes     = 2000

	defaultCacheTTL = 10 * time.Minute
	cleanupTimeout  = 30 * time.Second
)

var tracer = otel.Tracer("github.com/anoixa/mozaiek/internal/memorial")

// Service 纪念馆服务
type Service struct {
	repo       *memorials.Repository
	normalizer *imaging.Normalizer
	storage    storage.Provider
	gate       *access.Gate
	profiles   imaging.Profiles

	cache    cache.Provider
	cacheTTL time.Duration
	keys     *cache.KeyBuilder

	pending sync.WaitGroup
}

// Option 服务选项
type Option func(*Service)

// WithCache 缓存纪念馆头信息
func WithCache(p cache.Provider, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = p
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithProfiles 替换图片规格
func WithProfiles(p imaging.Profiles) Option {
	return func(s *Service) {
		s.profiles = p
	}
}

// NewService 创建纪念馆服务
func NewService(repo *memorials.Repository, normalizer *imaging.Normalizer, gate *access.Gate, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		normalizer: normalizer,
		storage:    normalizer.Storage(),
		gate:       gate,
		profiles:   imaging.DefaultProfiles(),
		cacheTTL:   defaultCacheTTL,
		keys:       cache.NewKeyBuilder(cache.PrefixMemorial),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Wait 等待后台清理任务完成, 关闭前调用
func (s *Service) Wait() {
	s.pending.Wait()
}

// CreateMemorial 先存图后写库, 写库失败时在后台删除已存的图片
func (s *Service) CreateMemorial(ctx context.Context, ownerID uint, in CreateMemorialInput, upload imaging.Upload) (*models.Memorial, error) {
	const op = "memorial.CreateMemorial"
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("memorial.owner_id", int64(ownerID))))
	defer span.End()

	// X-Password 头会被去掉首尾空白, 保存前同样处理
	in.Password = strings.TrimSpace(in.Password)
	name, description, err := validateMemorialFields(op, in)
	if err != nil {
		return nil, err
	}
	if ownerID == 0 {
		return nil, newError(Unauthorized, op, "owner is required", nil)
	}
	if _, err := s.normalizer.Validate(upload); err != nil {
		return nil, fromImaging(op, err)
	}

	var passwordHash string
	if !in.IsPublic && in.Password != "" {
		passwordHash, err = s.gate.HashPassword(in.Password)
		if err != nil {
			if errors.Is(err, access.ErrPasswordTooLong) || errors.Is(err, access.ErrPasswordEmpty) {
				return nil, newError(InvalidInput, op, "invalid password", err)
			}
			return nil, newError(ProcessingFailure, op, "hash password", err)
		}
	}

	img, err := s.normalizer.Normalize(ctx, s.profiles.Base, upload)
	if err != nil {
		return nil, fail(span, fromImaging(op, err))
	}
	stored, err := s.normalizer.Store(ctx, img)
	if err != nil {
		return nil, fail(span, fromImaging(op, err))
	}

	m := &models.Memorial{
		OwnerID:      ownerID,
		Name:         name,
		Description:  description,
		IsPublic:     in.IsPublic,
		PasswordHash: passwordHash,
		BaseImageKey: stored.Key,
		BaseImageURL: stored.URL,
		ColorSummary: stored.ColorSummary,
	}
	if err := s.repo.CreateMemorial(ctx, m); err != nil {
		s.discard(stored.Key)
		return nil, fail(span, newError(StorageFailure, op, "insert memorial", err))
	}

	span.SetAttributes(attribute.String("memorial.id", m.ID))
	log.Printf("[Memorial] Created memorial %s for owner %d (public=%t)", m.ID, ownerID, m.IsPublic)
	return m, nil
}

// FetchMemorial 读取纪念馆, 锁定时不返回任何内容
func (s *Service) FetchMemorial(ctx context.Context, id, credential string) (*FetchResult, error) {
	const op = "memorial.FetchMemorial"
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.String("memorial.id", id)))
	defer span.End()

	h, err := s.loadHeader(ctx, op, id)
	if err != nil {
		return nil, fail(span, err)
	}

	decision := s.gate.Check(h.memorial(), credential)
	span.SetAttributes(attribute.String("access.state", decision.State.String()))
	if !decision.Allowed() {
		return &FetchResult{Decision: decision}, nil
	}

	memories, err := s.repo.ListMemories(ctx, id)
	if err != nil {
		return nil, fail(span, newError(StorageFailure, op, "list memories", err))
	}
	if memories == nil {
		memories = []models.Memory{}
	}

	return &FetchResult{
		Decision: decision,
		View: &MemorialView{
			ID:           h.ID,
			Name:         h.Name,
			Description:  h.Description,
			IsPublic:     h.IsPublic,
			HasPassword:  h.memorial().HasPassword(),
			OwnerID:      h.OwnerID,
			OwnerName:    h.OwnerName,
			BaseImageURL: h.BaseImageURL,
			ColorSummary: h.ColorSummary,
			CreatedAt:    h.CreatedAt,
			Memories:     memories,
			MemoryCount:  len(memories),
			RevealRatio:  reveal.Ratio(len(memories)),
		},
	}, nil
}

// AddMemory 访客留下回忆, 访问控制先于任何图片处理
func (s *Service) AddMemory(ctx context.Context, memorialID, credential string, in AddMemoryInput, upload imaging.Upload) (*models.Memory, error) {
	const op = "memorial.AddMemory"
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.String("memorial.id", memorialID)))
	defer span.End()

	visitor, message, err := validateMemoryFields(op, in)
	if err != nil {
		return nil, err
	}

	h, err := s.loadHeader(ctx, op, memorialID)
	if err != nil {
		return nil, fail(span, err)
	}
	if decision := s.gate.Check(h.memorial(), credential); !decision.Allowed() {
		return nil, newError(Unauthorized, op, "", &LockedError{Reason: decision.Reason})
	}

	stored, err := s.normalizer.Ingest(ctx, s.profiles.Memory, upload)
	if err != nil {
		return nil, fail(span, fromImaging(op, err))
	}

	memory := &models.Memory{
		MemorialID:   memorialID,
		VisitorName:  visitor,
		Message:      message,
		ImageKey:     stored.Key,
		ImageURL:     stored.URL,
		ColorSummary: stored.ColorSummary,
	}
	if err := s.repo.CreateMemory(ctx, memory); err != nil {
		s.discard(stored.Key)
		if memorials.IsNotFound(err) {
			s.forget(memorialID)
			return nil, newError(NotFound, op, "memorial "+memorialID, err)
		}
		return nil, fail(span, newError(StorageFailure, op, "insert memory", err))
	}

	utils.LogIfDevf("[Memorial] %s added memory %s to %s", utils.SanitizeLogUsername(sanitize.Truncate(visitor, 32)), memory.ID, memorialID)
	return memory, nil
}

// DeleteMemory 删除回忆, mayDelete 由调用方根据所有权计算
func (s *Service) DeleteMemory(ctx context.Context, memoryID string, mayDelete bool) error {
	const op = "memorial.DeleteMemory"
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.String("memory.id", memoryID)))
	defer span.End()

	if _, err := s.repo.GetMemoryByID(ctx, memoryID); err != nil {
		return fail(span, notFoundOr(op, "memory "+memoryID, err))
	}
	if !mayDelete {
		return newError(Unauthorized, op, "", ErrNotOwner)
	}

	memory, err := s.repo.DeleteMemory(ctx, memoryID)
	if err != nil {
		return fail(span, notFoundOr(op, "memory "+memoryID, err))
	}

	s.discard(memory.ImageKey)
	log.Printf("[Memorial] Deleted memory %s from %s", memory.ID, memory.MemorialID)
	return nil
}

// MemoryOwner 返回回忆所属纪念馆的所有者
func (s *Service) MemoryOwner(ctx context.Context, memoryID string) (uint, error) {
	const op = "memorial.MemoryOwner"
	memory, err := s.repo.GetMemoryByID(ctx, memoryID)
	if err != nil {
		return 0, notFoundOr(op, "memory "+memoryID, err)
	}
	h, err := s.loadHeader(ctx, op, memory.MemorialID)
	if err != nil {
		return 0, err
	}
	return h.OwnerID, nil
}

// MemorialOwner 返回纪念馆所有者
func (s *Service) MemorialOwner(ctx context.Context, memorialID string) (uint, error) {
	h, err := s.loadHeader(ctx, "memorial.MemorialOwner", memorialID)
	if err != nil {
		return 0, err
	}
	return h.OwnerID, nil
}

// ListOwnerMemorials 所有者的纪念馆, 按创建时间倒序
func (s *Service) ListOwnerMemorials(ctx context.Context, ownerID uint) ([]OwnerMemorial, error) {
	const op = "memorial.ListOwnerMemorials"
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, newError(StorageFailure, op, "list memorials", err)
	}

	result := make([]OwnerMemorial, len(rows))
	for i, row := range rows {
		count := int(row.MemoryCount)
		result[i] = OwnerMemorial{
			ID:           row.ID,
			Name:         row.Name,
			Description:  row.Description,
			IsPublic:     row.IsPublic,
			HasPassword:  row.HasPassword(),
			BaseImageURL: row.BaseImageURL,
			ColorSummary: row.ColorSummary,
			CreatedAt:    row.CreatedAt,
			MemoryCount:  count,
			RevealRatio:  reveal.Ratio(count),
		}
	}
	return result, nil
}

// DeleteMemorial 在一个事务中删除纪念馆及其回忆, 存储对象在后台删除
func (s *Service) DeleteMemorial(ctx context.Context, memorialID string, mayDelete bool) error {
	const op = "memorial.DeleteMemorial"
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.String("memorial.id", memorialID)))
	defer span.End()

	if _, err := s.loadHeader(ctx, op, memorialID); err != nil {
		return fail(span, err)
	}
	if !mayDelete {
		return newError(Unauthorized, op, "", ErrNotOwner)
	}

	m, memories, err := s.repo.DeleteMemorial(ctx, memorialID)
	if err != nil {
		return fail(span, notFoundOr(op, "memorial "+memorialID, err))
	}
	s.forget(memorialID)

	keys := make([]string, 0, len(memories)+1)
	keys = append(keys, m.BaseImageKey)
	for _, memory := range memories {
		keys = append(keys, memory.ImageKey)
	}
	s.discard(keys...)

	log.Printf("[Memorial] Deleted memorial %s with %d memories", memorialID, len(memories))
	return nil
}

// loadHeader 先查缓存, 未命中时读库并回填
func (s *Service) loadHeader(ctx context.Context, op, id string) (*header, error) {
	key := s.keys.Header(id)

	if s.cache != nil {
		var h header
		err := s.cache.Get(ctx, key, &h)
		if err == nil {
			return &h, nil
		}
		if !cache.IsCacheMiss(err) {
			log.Printf("[Memorial] cache read failed for %s: %v", key, err)
		}
	}

	m, err := s.repo.GetMemorialByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "memorial "+id, err)
	}

	h := headerOf(m)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, h, s.cacheTTL); err != nil {
			log.Printf("[Memorial] cache write failed for %s: %v", key, err)
		}
	}
	return h, nil
}

// forget 删除缓存的头信息
func (s *Service) forget(id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(context.Background(), s.keys.Header(id)); err != nil {
		log.Printf("[Memorial] cache delete failed for %s: %v", id, err)
	}
}

// discard 后台尽力删除存储对象, 失败只记录日志, 残留由 clean 命令回收
func (s *Service) discard(keys ...string) {
	if len(keys) == 0 {
		return
	}
	s.pending.Add(1)
	utils.SafeGo("discard", func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		for _, key := range keys {
			if key == "" {
				continue
			}
			if err := s.storage.DeleteWithContext(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
				log.Printf("[Memorial] failed to delete object %s: %v", key, err)
			}
		}
	})
}

func validateMemorialFields(op string, in CreateMemorialInput) (string, string, error) {
	name := sanitize.Text(in.Name)
	description := sanitize.Text(in.Description)

	switch {
	case name == "":
		return "", "", invalid(op, "name is required")
	case utf8.RuneCountInString(name) > MaxNameRunes:
		return "", "", invalid(op, fmt.Sprintf("name must be at most %d characters", MaxNameRunes))
	case utf8.RuneCountInString(description) > MaxDescriptionRunes:
		return "", "", invalid(op, fmt.Sprintf("description must be at most %d characters", MaxDescriptionRunes))
	case !in.IsPublic && len(in.Password) > access.MaxPasswordBytes:
		return "", "", invalid(op, fmt.Sprintf("password must be at most %d bytes", access.MaxPasswordBytes))
	}
	return name, description, nil
}

func validateMemoryFields(op string, in AddMemoryInput) (string, string, error) {
	visitor := sanitize.Text(in.VisitorName)
	message := sanitize.Text(in.Message)

	switch {
	case visitor == "":
		return "", "", invalid(op, "visitor name is required")
	case utf8.RuneCountInString(visitor) > MaxNameRunes:
		return "", "", invalid(op, fmt.Sprintf("visitor name must be at most %d characters", MaxNameRunes))
	case message == "":
		return "", "", invalid(op, "message is required")
	case utf8.RuneCountInString(message) > MaxMessageRunes:
		return "", "", invalid(op, fmt.Sprintf("message must be at most %d characters", MaxMessageRunes))
	}
	return visitor, message, nil
}

// fromImaging 将图片层错误转换为服务层分类
func fromImaging(op string, err error) error {
	switch {
	case utils.IsContextCanceled(err):
		return err
	case errors.Is(err, imaging.ErrInvalidUpload):
		return newError(InvalidInput, op, "invalid photo", err)
	case errors.Is(err, imaging.ErrStorageFailed):
		return newError(StorageFailure, op, "store photo", err)
	default:
		return newError(ProcessingFailure, op, "process photo", err)
	}
}

func notFoundOr(op, what string, err error) error {
	if memorials.IsNotFound(err) {
		return newError(NotFound, op, what, err)
	}
	return newError(StorageFailure, op, "load "+what, err)
}

func fail(span trace.Span, err error) error {
	if utils.IsContextCanceled(err) {
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
