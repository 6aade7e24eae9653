package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketBoundaries(t *testing.T) {
	cases := []struct {
		score  string
		bucket RiskBucket
	}{
		{"0", BucketLow},
		{"39.99", BucketLow},
		{"40", BucketMedium},
		{"40.01", BucketMedium},
		{"70", BucketMedium},
		{"70.1", BucketHigh},
		{"100", BucketHigh},
	}
	for _, tc := range cases {
		score := decimal.RequireFromString(tc.score)
		assert.Equal(t, tc.bucket, BucketOf(score), "score %s", tc.score)
	}
}

func TestComputeScoreBaseline(t *testing.T) {
	score := ComputeScore(RiskFactors{})
	assert.True(t, score.Equal(decimal.NewFromInt(10)), "got %s", score)
}

func TestComputeScoreWeights(t *testing.T) {
	// 10 + 15.5 + 7.25*2 + 5 = 45
	score := ComputeScore(RiskFactors{
		Returns:         1,
		Reuploads:       2,
		MissingOptional: 1,
	})
	assert.True(t, score.Equal(decimal.RequireFromString("45")), "got %s", score)
	assert.Equal(t, BucketMedium, BucketOf(score))
}

func TestComputeScoreCappedAtHundred(t *testing.T) {
	score := ComputeScore(RiskFactors{
		Returns:    5,
		Rejections: 3,
	})
	assert.True(t, score.Equal(decimal.NewFromInt(100)), "got %s", score)
	assert.Equal(t, BucketHigh, BucketOf(score))
}

func TestComputeScoreStaleDaysGrace(t *testing.T) {
	within := ComputeScore(RiskFactors{StaleDays: 7})
	assert.True(t, within.Equal(decimal.NewFromInt(10)), "got %s", within)

	// 宽限期后每天 1.5：10 + 1.5*3 = 14.5
	beyond := ComputeScore(RiskFactors{StaleDays: 10})
	assert.True(t, beyond.Equal(decimal.RequireFromString("14.5")), "got %s", beyond)
}

func TestRecompute(t *testing.T) {
	score := NewRiskScore(100)
	require.Equal(t, BucketLow, score.Bucket)

	score.Rejections = 2
	score.Recompute()
	assert.True(t, score.Score.Equal(decimal.NewFromInt(90)), "got %s", score.Score)
	assert.Equal(t, BucketHigh, score.Bucket)
}

func TestEnterStageResetsStaleClock(t *testing.T) {
	score := NewRiskScore(100)
	score.StageEnteredAt = time.Now().AddDate(0, 0, -30)
	score.Recompute()
	require.Equal(t, BucketMedium, score.Bucket)

	score.EnterStage(time.Now())
	score.Recompute()
	assert.Equal(t, BucketLow, score.Bucket)
}
