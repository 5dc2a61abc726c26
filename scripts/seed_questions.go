// 手动导入题库脚本
//
// 把 YAML 题目文件写入 MySQL 的 questions 表，已存在的题目按 ID 覆盖。
// image_url 为 file://<路径> 的图片先上传到配置的对象存储，再写入存储引用。
//
// 用法: go run scripts/seed_questions.go -file configs/seed_questions.yaml

package main

import (
	"context"
	"flag"
	"log"

	"studycollab_backend/internal/config"
	"studycollab_backend/internal/repository"
	"studycollab_backend/internal/service"
	"studycollab_backend/pkg/database"
	"studycollab_backend/pkg/logger"
)

func main() {
	file := flag.String("file", "configs/seed_questions.yaml", "题目 YAML 文件")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug", true)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	ctx := context.Background()
	qs, err := repository.LoadSeedFile(*file)
	if err != nil {
		log.Fatalf("读取题目文件失败: %v", err)
	}

	images, err := service.NewStorageService(cfg).ImportImages(ctx, qs)
	if err != nil {
		log.Fatalf("上传题目图片失败: %v", err)
	}

	n, err := repository.SeedQuestions(ctx, repository.NewQuestionRepository(db), qs)
	if err != nil {
		log.Fatalf("导入失败: %v", err)
	}
	log.Printf("已导入 %d 道题目，上传 %d 张图片", n, images)
}
