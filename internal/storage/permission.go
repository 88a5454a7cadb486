package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/mindsync/internal/notify"
)

const permissionSettingKey = "notify.permission"

// PermissionDecisions persists the notification permission answer in the
// settings table so a denial survives restarts.
type PermissionDecisions struct {
	repo Repository
}

func NewPermissionDecisions(repo Repository) *PermissionDecisions {
	return &PermissionDecisions{repo: repo}
}

func (p *PermissionDecisions) LoadDecision(ctx context.Context) (string, error) {
	setting, err := p.repo.GetSetting(ctx, permissionSettingKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", notify.ErrNoDecision
		}
		return "", err
	}
	return setting.Value, nil
}

func (p *PermissionDecisions) SaveDecision(ctx context.Context, decision string) error {
	return p.repo.PutSetting(ctx, Setting{
		Key:       permissionSettingKey,
		Value:     decision,
		UpdatedAt: time.Now(),
	})
}
