// Package domain 风险评估服务的领域模型：风险评分与审计轨迹读模型
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RiskBucket 风险分档
type RiskBucket string

const (
	// BucketLow 低风险
	BucketLow RiskBucket = "LOW"
	// BucketMedium 中风险
	BucketMedium RiskBucket = "MEDIUM"
	// BucketHigh 高风险
	BucketHigh RiskBucket = "HIGH"
)

// 分档边界。40 与 70 都落在 MEDIUM，严格大于 70 才是 HIGH。
var (
	mediumThreshold = decimal.NewFromInt(40)
	highThreshold   = decimal.NewFromInt(70)
)

// BucketOf 按评分分档：score > 70 为 HIGH，40 <= score <= 70 为 MEDIUM，其余 LOW
func BucketOf(score decimal.Decimal) RiskBucket {
	if score.GreaterThan(highThreshold) {
		return BucketHigh
	}
	if score.GreaterThanOrEqual(mediumThreshold) {
		return BucketMedium
	}
	return BucketLow
}

// RiskFactors 参与评分的行为计数，全部来自工作流事件
type RiskFactors struct {
	// Returns 被退回补正的次数
	Returns int `json:"returns"`
	// Reuploads 材料重新上传的次数
	Reuploads int `json:"reuploads"`
	// Rejections 被驳回的次数
	Rejections int `json:"rejections"`
	// MissingOptional 选交材料缺失数
	MissingOptional int `json:"missing_optional"`
	// StaleDays 在当前状态停留的整天数，超过宽限期后开始计分
	StaleDays int `json:"stale_days"`
}

// 评分权重
var (
	baseScore        = decimal.NewFromInt(10)
	returnWeight     = decimal.RequireFromString("15.5")
	reuploadWeight   = decimal.RequireFromString("7.25")
	rejectionWeight  = decimal.NewFromInt(40)
	missingOptWeight = decimal.NewFromInt(5)
	staleDayWeight   = decimal.RequireFromString("1.5")
	maxScore         = decimal.NewFromInt(100)
)

// 停留计分的宽限天数
const staleGraceDays = 7

// ComputeScore 由行为计数计算 0-100 的风险评分，确定性且可重算
func ComputeScore(factors RiskFactors) decimal.Decimal {
	score := baseScore.
		Add(returnWeight.Mul(decimal.NewFromInt(int64(factors.Returns)))).
		Add(reuploadWeight.Mul(decimal.NewFromInt(int64(factors.Reuploads)))).
		Add(rejectionWeight.Mul(decimal.NewFromInt(int64(factors.Rejections)))).
		Add(missingOptWeight.Mul(decimal.NewFromInt(int64(factors.MissingOptional))))

	if factors.StaleDays > staleGraceDays {
		score = score.Add(staleDayWeight.Mul(decimal.NewFromInt(int64(factors.StaleDays - staleGraceDays))))
	}

	if score.GreaterThan(maxScore) {
		return maxScore
	}
	return score
}

// RiskScore 申请的风险评分
type RiskScore struct {
	gorm.Model
	ApplicationID   int64           `gorm:"uniqueIndex;not null;comment:业务申请ID" json:"application_id"`
	Score           decimal.Decimal `gorm:"type:decimal(5,2);not null;comment:风险评分" json:"score"`
	Bucket          RiskBucket      `gorm:"type:varchar(16);index;not null;comment:风险分档" json:"bucket"`
	Returns         int             `gorm:"not null;default:0" json:"returns"`
	Reuploads       int             `gorm:"not null;default:0" json:"reuploads"`
	Rejections      int             `gorm:"not null;default:0" json:"rejections"`
	MissingOptional int             `gorm:"not null;default:0" json:"missing_optional"`
	StageEnteredAt  time.Time       `gorm:"not null;comment:进入当前状态时间" json:"stage_entered_at"`
	ComputedAt      time.Time       `gorm:"not null;comment:计算时间" json:"computed_at"`
}

// TableName 指定表名
func (RiskScore) TableName() string {
	return "risk_scores"
}

// NewRiskScore 新申请的初始评分
func NewRiskScore(applicationID int64) *RiskScore {
	score := &RiskScore{
		ApplicationID:  applicationID,
		StageEnteredAt: time.Now(),
	}
	score.Recompute()
	return score
}

// Factors 当前行为计数，停留天数按 StageEnteredAt 实时推算
func (s *RiskScore) Factors() RiskFactors {
	staleDays := 0
	if !s.StageEnteredAt.IsZero() {
		staleDays = int(time.Since(s.StageEnteredAt).Hours() / 24)
	}
	return RiskFactors{
		Returns:         s.Returns,
		Reuploads:       s.Reuploads,
		Rejections:      s.Rejections,
		MissingOptional: s.MissingOptional,
		StaleDays:       staleDays,
	}
}

// EnterStage 状态发生变化，停留计时重新开始
func (s *RiskScore) EnterStage(at time.Time) {
	s.StageEnteredAt = at
}

// Recompute 按当前计数重算评分与分档
func (s *RiskScore) Recompute() {
	s.Score = ComputeScore(s.Factors())
	s.Bucket = BucketOf(s.Score)
	s.ComputedAt = time.Now()
}
