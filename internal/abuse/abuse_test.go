package abuse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLimiterBlocksAfterFourFailures(t *testing.T) {
	l := NewLoginLimiter(4, 60*time.Second, 60*time.Second)
	now := time.Unix(1700000000, 0)

	for i := 0; i < 3; i++ {
		require.True(t, l.Allowed("1.2.3.4", now))
		l.RecordFailure("1.2.3.4", now)
	}
	require.True(t, l.Allowed("1.2.3.4", now), "third failure should not yet block")

	l.RecordFailure("1.2.3.4", now)
	assert.False(t, l.Allowed("1.2.3.4", now), "fourth failure should block the fifth attempt")
}

func TestLoginLimiterUnblocksAfterWindow(t *testing.T) {
	l := NewLoginLimiter(4, 60*time.Second, 60*time.Second)
	now := time.Unix(1700000000, 0)
	for i := 0; i < 4; i++ {
		l.RecordFailure("5.6.7.8", now)
	}
	require.False(t, l.Allowed("5.6.7.8", now))

	later := now.Add(61 * time.Second)
	assert.True(t, l.Allowed("5.6.7.8", later))
}

func TestLoginLimiterRecordSuccessClearsHistory(t *testing.T) {
	l := NewLoginLimiter(4, 60*time.Second, 60*time.Second)
	now := time.Unix(1700000000, 0)
	for i := 0; i < 3; i++ {
		l.RecordFailure("9.9.9.9", now)
	}
	l.RecordSuccess("9.9.9.9")
	l.RecordFailure("9.9.9.9", now)
	assert.True(t, l.Allowed("9.9.9.9", now))
}

func TestConnectionCapEnforcesMaxExceptLoopback(t *testing.T) {
	cc := NewConnectionCap(2)

	require.True(t, cc.TryAdmit("10.0.0.1"))
	require.True(t, cc.TryAdmit("10.0.0.1"))
	assert.False(t, cc.TryAdmit("10.0.0.1"), "third connection from the same address exceeds the cap")

	cc.Release("10.0.0.1")
	assert.True(t, cc.TryAdmit("10.0.0.1"), "releasing one slot frees capacity")

	for i := 0; i < 10; i++ {
		assert.True(t, cc.TryAdmit("127.0.0.1"), "loopback is exempt from the cap")
	}
}

func TestChallengesVerifyIsSingleUse(t *testing.T) {
	c := NewChallenges()
	id := c.New("1.1.1.1", "42")

	assert.False(t, c.Verify("1.1.1.1", id, "wrong"))
	assert.False(t, c.Verify("1.1.1.1", id, "42"), "the wrong attempt above already consumed the challenge")

	id2 := c.New("1.1.1.1", "7")
	assert.True(t, c.Verify("1.1.1.1", id2, "7"))
}

func TestBlockListMissingFileIsEmpty(t *testing.T) {
	bl, err := LoadBlockList("/nonexistent/blocked.json")
	require.NoError(t, err)
	assert.False(t, bl.Blocked("1.2.3.4"))
}
