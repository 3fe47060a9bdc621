package db

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskboard/pkg/config"
	"taskboard/pkg/models"
)

type Store struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

func NewStore(cfg *config.Config) (*Store, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DbUser, cfg.DbPassword, cfg.DbHost, cfg.DbPort, cfg.DbName)
	gdb, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	return &Store{DB: gdb, Rdb: rdb}, nil
}

func (s *Store) Migrate() error {
	return s.DB.AutoMigrate(&models.User{}, &models.Task{}, &models.SubTask{})
}
