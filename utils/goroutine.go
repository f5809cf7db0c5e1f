package utils

import (
	"log"
	"runtime/debug"
)

// SafeGo 启动 goroutine, panic 只记录日志不影响进程
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[SafeGo] %s panic recovered: %v\n%s", name, err, debug.Stack())
			}
		}()
		fn()
	}()
}
