package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/anoixa/mozaiek/database/models"
	"github.com/anoixa/mozaiek/storage"
	"github.com/anoixa/mozaiek/utils"
	"github.com/anoixa/mozaiek/utils/generator"
	"github.com/anoixa/mozaiek/utils/validator"
)

// OutputContentType 所有派生图片都是 JPEG
const OutputContentType = "image/jpeg"

var tracer = otel.Tracer("github.com/anoixa/mozaiek/internal/imaging")

// Upload 客户端上传的原始图片
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// NormalizedImage 规格化后尚未存储的图片
type NormalizedImage struct {
	Profile      Profile
	Data         []byte
	Width        int
	Height       int
	ColorSummary models.ColorSummary
}

// StoredImage 已写入对象存储的图片, 创建后不再修改
type StoredImage struct {
	Key          string              `json:"key"`
	URL          string              `json:"url"`
	Size         int64               `json:"size"`
	ContentType  string              `json:"content_type"`
	ColorSummary models.ColorSummary `json:"color_summary"`
}

// Runner 执行 CPU 密集任务的协程池
type Runner interface {
	Run(ctx context.Context, fn func() error) error
}

// Normalizer 校验, 缩放, 采色并存储上传的图片
type Normalizer struct {
	engine   Engine
	runner   Runner
	storage  storage.Provider
	keys     *generator.PathGenerator
	maxBytes int64
}

// Option 规格化器选项
type Option func(*Normalizer)

// WithRunner 在协程池中执行解码和编码
func WithRunner(r Runner) Option {
	return func(n *Normalizer) {
		n.runner = r
	}
}

// WithMaxBytes 单张上传上限
func WithMaxBytes(max int64) Option {
	return func(n *Normalizer) {
		if max > 0 {
			n.maxBytes = max
		}
	}
}

// WithKeyGenerator 替换 key 生成器
func WithKeyGenerator(pg *generator.PathGenerator) Option {
	return func(n *Normalizer) {
		n.keys = pg
	}
}

// NewNormalizer 创建规格化器
func NewNormalizer(engine Engine, provider storage.Provider, opts ...Option) *Normalizer {
	n := &Normalizer{
		engine:   engine,
		storage:  provider,
		keys:     generator.NewPathGenerator(),
		maxBytes: validator.MaxImageBytes,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Engine 返回当前引擎
func (n *Normalizer) Engine() Engine {
	return n.engine
}

// Storage 返回对象存储
func (n *Normalizer) Storage() storage.Provider {
	return n.storage
}

// Validate 解码前校验大小与类型, 返回嗅探到的 MIME
func (n *Normalizer) Validate(u Upload) (string, error) {
	mime, err := validator.CheckImageUpload(u.ContentType, u.Data, n.maxBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}
	return mime, nil
}

// Normalize 并行执行缩放与颜色采样
func (n *Normalizer) Normalize(ctx context.Context, p Profile, u Upload) (*NormalizedImage, error) {
	ctx, span := tracer.Start(ctx, "imaging.Normalize", trace.WithAttributes(
		attribute.String("imaging.profile", p.Name),
		attribute.String("imaging.engine", n.engine.Name()),
		attribute.Int("imaging.upload_bytes", len(u.Data)),
	))
	defer span.End()

	var (
		frame   *Frame
		summary models.ColorSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, s := tracer.Start(gctx, "imaging.resize")
		defer s.End()
		return n.run(gctx, func() error {
			f, err := n.engine.Render(u.Data, p)
			if err != nil {
				s.RecordError(err)
				return fmt.Errorf("%w: %s: %w", ErrProcessingFailed, p.Name, err)
			}
			frame = f
			return nil
		})
	})
	g.Go(func() error {
		_, s := tracer.Start(gctx, "imaging.summary")
		defer s.End()
		return n.run(gctx, func() error {
			summary = Summarize(n.engine, u.Data)
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		if utils.IsContextCanceled(err) {
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "normalize failed")
		if errors.Is(err, ErrProcessingFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
	}

	utils.LogIfDevf("[Imaging] %s normalized by %s: %dx%d, %d bytes", p.Name, n.engine.Name(), frame.Width, frame.Height, len(frame.Data))

	return &NormalizedImage{
		Profile:      p,
		Data:         frame.Data,
		Width:        frame.Width,
		Height:       frame.Height,
		ColorSummary: summary.OrFallback(),
	}, nil
}

// Store 写入一个新对象, 从不覆盖或删除已有对象
func (n *Normalizer) Store(ctx context.Context, img *NormalizedImage) (*StoredImage, error) {
	ctx, span := tracer.Start(ctx, "imaging.Store", trace.WithAttributes(
		attribute.String("storage.provider", n.storage.Name()),
	))
	defer span.End()

	key, err := n.keys.ObjectKey(img.Profile.Namespace, "jpg")
	if err != nil {
		return nil, fmt.Errorf("%w: generate key: %w", ErrStorageFailed, err)
	}
	span.SetAttributes(attribute.String("storage.key", key))

	size := int64(len(img.Data))
	opts := storage.SaveOptions{ContentType: OutputContentType, Size: size}
	if err := n.storage.SaveWithContext(ctx, key, bytes.NewReader(img.Data), opts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrStorageFailed, key, err)
	}

	return &StoredImage{
		Key:          key,
		URL:          n.storage.PublicURL(key),
		Size:         size,
		ContentType:  OutputContentType,
		ColorSummary: img.ColorSummary,
	}, nil
}

// Ingest 校验, 规格化并存储, 每次调用恰好写入一个对象
func (n *Normalizer) Ingest(ctx context.Context, p Profile, u Upload) (*StoredImage, error) {
	if _, err := n.Validate(u); err != nil {
		return nil, err
	}
	img, err := n.Normalize(ctx, p, u)
	if err != nil {
		return nil, err
	}
	return n.Store(ctx, img)
}

func (n *Normalizer) run(ctx context.Context, fn func() error) error {
	if n.runner == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn()
	}
	return n.runner.Run(ctx, fn)
}
