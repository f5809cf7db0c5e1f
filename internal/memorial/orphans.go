package memorial

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/anoixa/mozaiek/storage"
	"github.com/anoixa/mozaiek/utils/generator"
)

// DefaultOrphanMinAge 新写入的对象可能还在等待入库, 保留一段时间
const DefaultOrphanMinAge = time.Hour

// ErrListingUnsupported 存储不支持枚举
var ErrListingUnsupported = errors.New("storage provider cannot list objects")

// SweepOptions 孤儿清理选项
type SweepOptions struct {
	DryRun bool
	MinAge time.Duration
	Now    func() time.Time
}

// SweepReport 孤儿清理结果
type SweepReport struct {
	Scanned int
	Orphans []string
	// ByNamespace 按命名空间统计孤儿数量
	ByNamespace map[string]int
	Deleted     int
	Skipped     int // 太新, 暂不处理
	Errors      []string
}

// SweepOrphans 删除没有任何记录引用的照片对象
// 先枚举存储再读取引用, 枚举之后才入库的对象不会被误删
func (s *Service) SweepOrphans(ctx context.Context, opts SweepOptions) (*SweepReport, error) {
	lister, ok := s.storage.(storage.Lister)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrListingUnsupported, s.storage.Name())
	}
	if opts.MinAge <= 0 {
		opts.MinAge = DefaultOrphanMinAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cutoff := opts.Now().Add(-opts.MinAge)

	report := &SweepReport{ByNamespace: map[string]int{}}
	var candidates []string
	for _, ns := range []string{s.profiles.Base.Namespace, s.profiles.Memory.Namespace} {
		err := lister.List(ctx, ns+"/", func(key string) error {
			report.Scanned++
			candidates = append(candidates, key)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", ns, err)
		}
	}

	referenced, err := s.repo.ReferencedKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load referenced keys: %w", err)
	}

	for _, key := range candidates {
		if _, ok := referenced[key]; ok {
			continue
		}
		if created, ok := generator.CreatedAt(key); !ok || created.After(cutoff) {
			report.Skipped++
			continue
		}
		report.Orphans = append(report.Orphans, key)
		report.ByNamespace[generator.Namespace(key)]++
		if opts.DryRun {
			continue
		}
		if err := s.storage.DeleteWithContext(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", key, err))
			continue
		}
		report.Deleted++
	}

	log.Printf("[Memorial] Orphan sweep: scanned=%d orphans=%d deleted=%d skipped=%d dry_run=%v",
		report.Scanned, len(report.Orphans), report.Deleted, report.Skipped, opts.DryRun)
	return report, nil
}
