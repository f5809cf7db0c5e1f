package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

// ErrPoolStopped 协程池已停止
var ErrPoolStopped = errors.New("worker pool stopped")

// ErrTaskPanicked 任务执行中发生 panic
var ErrTaskPanicked = errors.New("task panicked")

// Pool 固定大小的协程池, 用于限制图片编解码的并发
type Pool struct {
	workers int
	queue   chan func()
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	submitted atomic.Uint64
	executed  atomic.Uint64
	failed    atomic.Uint64
}

// Stats 协程池统计信息
type Stats struct {
	WorkerCount int    `json:"worker_count"`
	QueueLen    int    `json:"queue_len"`
	QueueCap    int    `json:"queue_cap"`
	Submitted   uint64 `json:"submitted"`
	Executed    uint64 `json:"executed"`
	Failed      uint64 `json:"failed"`
}

// NewPool 创建并启动协程池
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 2 {
			workers = 2
		}
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	p := &Pool{
		workers: workers,
		queue:   make(chan func(), queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	log.Printf("Worker pool started with %d workers (queue %d)", workers, queueSize)
	return p
}

// Stop 优雅停止: 拒绝新任务, 等待队列中已有任务执行完毕
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	log.Println("Worker pool stopped")
}

// Run 阻塞提交 fn 并等待其结果
// 队列满时等待空位而不是丢弃; ctx 取消时尚未开始的任务不会被执行
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	task := func() {
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrTaskPanicked, r)
				panic(r)
			}
		}()
		done <- fn()
	}

	if err := p.enqueue(ctx, task); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) enqueue(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.queue <- task:
		p.submitted.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetStats 获取统计信息
func (p *Pool) GetStats() Stats {
	return Stats{
		WorkerCount: p.workers,
		QueueLen:    len(p.queue),
		QueueCap:    cap(p.queue),
		Submitted:   p.submitted.Load(),
		Executed:    p.executed.Load(),
		Failed:      p.failed.Load(),
	}
}

// worker 工作协程, 队列关闭后退出
func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		if task == nil {
			continue
		}
		p.execute(task)
	}
}

// execute 执行任务并捕获 panic
func (p *Pool) execute(task func()) {
	defer func() {
		p.executed.Inc()
		if r := recover(); r != nil {
			p.failed.Inc()
			log.Printf("Panic recovered in worker task: %v", r)
		}
	}()
	task()
}
