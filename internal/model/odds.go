package model

// TierOdds 单个奖项的中奖概率与期望值
type TierOdds struct {
	Label         string   `json:"label"`
	Kind          TierKind `json:"kind"`
	Value         float64  `json:"value"`
	Winners       int      `json:"winners"`
	Probability   float64  `json:"probability"`    // 百分比 0-100
	ExpectedValue float64  `json:"expected_value"` // probability/100 * value * 1
}

// OddsResult 给定票数下的概率计算结果
type OddsResult struct {
	Tickets             int        `json:"tickets"`
	UnitPrice           float64    `json:"unit_price"`
	SurvivalRate        float64    `json:"survival_rate"`     // 单张票熬过全部轮次的概率（0-1）
	MakesFinalRound     float64    `json:"makes_final_round"` // 至少一张进入决赛的概率（百分比）
	GrandPrize          float64    `json:"grand_prize"`
	Top10Prize          float64    `json:"top10_prize"`
	LuckyLoser          float64    `json:"lucky_loser"`
	Tiers               []TierOdds `json:"tiers"`
	ExpectedValue       float64    `json:"expected_value"`
	TotalCost           float64    `json:"total_cost"`
	Recommendation      string     `json:"recommendation"`
	RecommendationLevel string     `json:"recommendation_level"`
}

// RoundOdds 按轮次的存活情况
type RoundOdds struct {
	Round             int     `json:"round"`
	TicketSurvival    float64 `json:"ticket_survival"`    // 单张票存活到本轮结束的概率（0-1）
	ExpectedRemaining float64 `json:"expected_remaining"` // 持有票期望剩余张数
	AnyRemaining      float64 `json:"any_remaining"`      // 至少一张存活的概率（百分比）
}
