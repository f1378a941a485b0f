package service

import (
	"log"
	"time"
)

// SchedulerService 定时任务服务
type SchedulerService struct {
	queue *QueueService

	ProcessInterval time.Duration // 队列扫描间隔
	PurgeInterval   time.Duration // 清理间隔
}

// NewSchedulerService 创建定时任务服务
func NewSchedulerService(queue *QueueService) *SchedulerService {
	return &SchedulerService{
		queue:           queue,
		ProcessInterval: time.Minute,
		PurgeInterval:   time.Hour,
	}
}

// Start 启动定时任务
func (s *SchedulerService) Start() {
	// 周期扫描重试队列
	go s.runEvery(s.ProcessInterval, func() {
		s.queue.ProcessDue()
	})

	// 周期清理过期的已处理记录
	go s.runEvery(s.PurgeInterval, func() {
		if _, err := s.queue.PurgeProcessed(); err != nil {
			log.Printf("[调度] 清理已处理记录失败: %v", err)
		}
	})

	log.Println("定时任务服务已启动")
}

// runEvery 固定间隔执行
func (s *SchedulerService) runEvery(interval time.Duration, task func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		task()
	}
}
