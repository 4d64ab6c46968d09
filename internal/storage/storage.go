// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	ListUserTasks(ctx context.Context, userID int64) ([]model.Task, error)
	ListActiveTasks(ctx context.Context) ([]model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	SetTaskActive(ctx context.Context, id int64, active bool) error
	DeleteTask(ctx context.Context, id, userID int64) error

	RecordDelivery(ctx context.Context, rec *model.DeliveryRecord) error
	ListRecentDeliveries(ctx context.Context, taskID int64, limit int) ([]model.DeliveryRecord, error)
	PurgeDeliveriesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	UpsertUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	SetUserBanned(ctx context.Context, userID int64, banned bool, reason string) error
	SetUserPremium(ctx context.Context, userID int64, premium bool, expires *time.Time) error

	Close() error
}
