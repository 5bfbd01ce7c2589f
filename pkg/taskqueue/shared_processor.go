package taskqueue

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	sharedProcessor     *CallbackProcessor
	sharedProcessorOnce sync.Once
)

// GetSharedCallbackProcessor 返回进程级单例的回调处理器
// HTTP回调入口和队列工作者共用同一个实例，保证处理函数只注册一次
func GetSharedCallbackProcessor(queue Queue, logger *logrus.Logger) *CallbackProcessor {
	sharedProcessorOnce.Do(func() {
		sharedProcessor = NewCallbackProcessor(queue, logger)
	})
	return sharedProcessor
}
