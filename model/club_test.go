package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestCycleState 三段状态由字段推导
func TestCycleState(t *testing.T) {
	club := &Club{}
	assert.Equal(t, CycleStateNoDraw, club.CycleState())

	reader := uuid.New()
	club.CurrentReaderID = &reader
	assert.Equal(t, CycleStateDrawn, club.CycleState())

	title := "Dune"
	club.BookTitle = &title
	assert.Equal(t, CycleStateIndicated, club.CycleState())
}

// TestRemainingDays 剩余天数向上取整，过期后不出负数
func TestRemainingDays(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	club := &Club{}
	assert.Equal(t, 0, club.RemainingDays(now), "未设置截止时间时剩余 0 天")

	// 恰好 3 天
	ends := now.Add(3 * 24 * time.Hour)
	club.CycleEndsAt = &ends
	assert.Equal(t, 3, club.RemainingDays(now))

	// 2 天半向上取整为 3
	ends = now.Add(60 * time.Hour)
	club.CycleEndsAt = &ends
	assert.Equal(t, 3, club.RemainingDays(now))

	// 不足 1 天算 1 天
	ends = now.Add(time.Hour)
	club.CycleEndsAt = &ends
	assert.Equal(t, 1, club.RemainingDays(now))

	// 已过期
	ends = now.Add(-time.Hour)
	club.CycleEndsAt = &ends
	assert.Equal(t, 0, club.RemainingDays(now))
}

// TestCycleEnded 到期纯靠读取时推导
func TestCycleEnded(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	club := &Club{}
	assert.False(t, club.CycleEnded(now), "没有截止时间的周期永不结束")

	ends := now.Add(48 * time.Hour)
	club.CycleEndsAt = &ends
	assert.False(t, club.CycleEnded(now))

	ends = now.Add(-time.Minute)
	club.CycleEndsAt = &ends
	assert.True(t, club.CycleEnded(now))
}
