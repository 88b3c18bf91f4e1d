package main

import (
	"os"
	"strings"

	"StudyRoom/internal/model"
	"StudyRoom/internal/pkg"
	"StudyRoom/internal/repository/mysql"
	"StudyRoom/internal/repository/redis"
	"StudyRoom/internal/router"

	"github.com/sirupsen/logrus"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	dsn := envOr("MYSQL_DSN", "user:password@tcp(127.0.0.1:3306)/studyroom?charset=utf8mb4&parseTime=True")
	if err := mysql.InitDB(dsn); err != nil {
		logrus.WithError(err).Fatal("mysql init failed")
	}

	// 连接redis：在线状态、邀请码镜像、登录token
	if err := redis.Init(envOr("REDIS_ADDR", "127.0.0.1:6379"), os.Getenv("REDIS_PASSWORD"), 0); err != nil {
		logrus.WithError(err).Fatal("redis init failed")
	}
	defer redis.Close()

	// 自动建表（开发阶段 OK）
	if err := mysql.DB.AutoMigrate(
		&model.User{},
		&model.Room{},
		&model.RoomMember{},
		&model.InviteCode{},
	); err != nil {
		logrus.WithError(err).Fatal("auto migrate failed")
	}

	// kafka可选：没配broker就不发事件
	var producer *pkg.KafkaProducer
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		p, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   envOr("KAFKA_TOPIC", "room-events"),
		})
		if err != nil {
			logrus.WithError(err).Fatal("kafka init failed")
		}
		producer = p
		defer producer.Close()
	}

	// Gin
	r := router.InitRouter(producer)
	if err := r.Run(envOr("LISTEN_ADDR", ":8080")); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}
