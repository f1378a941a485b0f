package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"order-gateway/internal/config"
	"order-gateway/internal/handler"
	"order-gateway/internal/model"
	"order-gateway/internal/platform"
	"order-gateway/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	migrate := flag.Bool("migrate", false, "是否执行数据库迁移")
	initAdmin := flag.Bool("init-admin", false, "初始化运营账号和示例组织")
	processQueue := flag.Bool("process-queue", false, "处理一轮重试队列后退出（供外部 cron 使用）")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	if err := model.InitDB(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	log.Println("数据库连接成功")

	// 自动执行数据库迁移（确保表结构是最新的）
	log.Println("检查数据库表结构...")
	if err := model.AutoMigrate(); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 数据库迁移（仅迁移模式）
	if *migrate {
		log.Println("数据库迁移完成")
		os.Exit(0)
	}

	// 单轮队列处理模式
	if *processQueue {
		receiver := service.NewReceiver(model.DB, platform.Default(), nil)
		queue := service.NewQueueService(model.DB, receiver, nil)
		queue.ApplyConfig(&cfg.Queue)

		succeeded, failed := queue.ProcessDue()
		if _, err := queue.PurgeProcessed(); err != nil {
			log.Printf("清理已处理记录失败: %v", err)
		}
		log.Printf("队列处理完成: 成功 %d, 失败 %d", succeeded, failed)
		os.Exit(0)
	}

	// 初始化运营账号和示例组织
	if *initAdmin {
		initAdminAccount()
		os.Exit(0)
	}

	// 启动队列调度
	receiver := service.NewReceiver(model.DB, platform.Default(), nil)
	queue := service.NewQueueService(model.DB, receiver, nil)
	queue.ApplyConfig(&cfg.Queue)
	scheduler := service.NewSchedulerService(queue)
	if cfg.Queue.ProcessIntervalSec > 0 {
		scheduler.ProcessInterval = time.Duration(cfg.Queue.ProcessIntervalSec) * time.Second
	}
	scheduler.Start()

	// 创建 Gin 引擎
	r := gin.New()

	// 设置路由
	handler.SetupRouter(r)

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("服务器启动在 http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
}

// initAdminAccount 创建默认运营账号和示例组织
func initAdminAccount() {
	log.Println("初始化运营账号...")

	adminEmail := "admin@example.com"
	adminPassword := "admin123"

	// 检查是否已存在
	var existing model.Operator
	if err := model.DB.Where("email = ?", adminEmail).First(&existing).Error; err == nil {
		log.Println("运营账号已存在")
		return
	}

	// 开始事务
	tx := model.DB.Begin()

	// 创建示例组织和默认门店
	org := model.Organization{
		Name:   "示例餐厅",
		Slug:   "demo",
		Status: model.OrgStatusActive,
	}
	if err := tx.Create(&org).Error; err != nil {
		tx.Rollback()
		log.Fatalf("创建示例组织失败: %v", err)
	}

	branch := model.Branch{
		OrgID:     org.ID,
		Name:      "总店",
		IsDefault: true,
		Active:    true,
	}
	if err := tx.Create(&branch).Error; err != nil {
		tx.Rollback()
		log.Fatalf("创建默认门店失败: %v", err)
	}

	// 创建运营账号
	admin := model.Operator{
		Email: adminEmail,
		Name:  "管理员",
		Role:  "admin",
	}
	if err := admin.SetPassword(adminPassword); err != nil {
		tx.Rollback()
		log.Fatalf("密码加密失败: %v", err)
	}
	if err := tx.Create(&admin).Error; err != nil {
		tx.Rollback()
		log.Fatalf("创建运营账号失败: %v", err)
	}

	tx.Commit()

	log.Println("运营账号创建成功!")
	log.Println("邮箱: admin@example.com")
	log.Println("密码: admin123")
	log.Println("")
	log.Println("【重要提示】请登录后立即修改默认密码！")
	log.Printf("示例组织: %s (org_id=%s)", org.Name, org.ID)
}
