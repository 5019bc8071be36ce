package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 測試打字標記: Set 後看得到, Clear 後消失
func TestTypingBoard_SetClear(t *testing.T) {
	board := NewTypingBoard(0)

	board.Set("general", "alice")
	board.Set("general", "bob")
	assert.Equal(t, []string{"alice", "bob"}, board.Typing("general"))

	board.Clear("general", "alice")
	assert.Equal(t, []string{"bob"}, board.Typing("general"))

	// 清不存在的人不會炸
	board.Clear("general", "nobody")
	board.Clear("empty-room", "alice")
	assert.Nil(t, board.Typing("empty-room"))
}

// 測試 TTL: 過期的標記在讀取時被掃掉
func TestTypingBoard_Expiry(t *testing.T) {
	board := NewTypingBoard(5 * time.Second)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	board.now = func() time.Time { return clock }

	board.Set("general", "alice")
	assert.Equal(t, []string{"alice"}, board.Typing("general"))

	// 還沒到期
	clock = clock.Add(4 * time.Second)
	assert.Equal(t, []string{"alice"}, board.Typing("general"))

	// 重設延長到期
	board.Set("general", "alice")
	clock = clock.Add(4 * time.Second)
	assert.Equal(t, []string{"alice"}, board.Typing("general"))

	// 超過 TTL 就消失
	clock = clock.Add(2 * time.Second)
	assert.Empty(t, board.Typing("general"))
}

// 測試 TTL: 同房間只有過期的人消失
func TestTypingBoard_PartialExpiry(t *testing.T) {
	board := NewTypingBoard(5 * time.Second)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	board.now = func() time.Time { return clock }

	board.Set("general", "alice")
	clock = clock.Add(3 * time.Second)
	board.Set("general", "bob")
	clock = clock.Add(3 * time.Second)

	// alice 到期, bob 還在
	assert.Equal(t, []string{"bob"}, board.Typing("general"))
}
