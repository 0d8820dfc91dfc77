package model

// TierKind 奖项的概率计算口径
type TierKind string

const (
	// TierSurvivorDraw 从最终幸存者池中抽取（如 Rolex 大奖）
	TierSurvivorDraw TierKind = "survivor_draw"
	// TierPoolShare 按全部公开票池比例分配（不以存活为条件）
	TierPoolShare TierKind = "pool_share"
	// TierEliminatedDraw 从被淘汰的票中抽取（Lucky Loser）
	TierEliminatedDraw TierKind = "eliminated_draw"
)

// PrizeTier 单个奖项定义
type PrizeTier struct {
	Label   string   `json:"label"`
	Kind    TierKind `json:"kind"`
	Value   float64  `json:"value"`   // 单个奖品价值（USD）
	Winners int      `json:"winners"` // 中奖名额
}

// Breakpoint 推荐语分档。UpTo 为该档上限（含），0 表示无上限的兜底档
type Breakpoint struct {
	UpTo    int    `json:"up_to"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// RaffleConstants 抽奖的固定玩法参数，进程启动时加载一次，之后只读
type RaffleConstants struct {
	TotalSupply     int
	DevReserved     int
	Rounds          int
	EliminationRate float64
	FinalSurvivors  int
	Prizes          []PrizeTier
	Breakpoints     []Breakpoint
	MinMint         int
	MaxMint         int
}

// PublicAllocation 公开发售的票数 = 总量 - 预留
func (c RaffleConstants) PublicAllocation() int {
	return c.TotalSupply - c.DevReserved
}

// DefaultPrizeTiers CHOP 奖池结构
func DefaultPrizeTiers() []PrizeTier {
	return []PrizeTier{
		{Label: "grand_prize", Kind: TierSurvivorDraw, Value: 75000, Winners: 1},
		{Label: "top10", Kind: TierPoolShare, Value: 500, Winners: 10},
		{Label: "lucky_loser_cartier", Kind: TierEliminatedDraw, Value: 1500, Winners: 1},
		{Label: "lucky_loser_1000", Kind: TierEliminatedDraw, Value: 1000, Winners: 5},
		{Label: "lucky_loser_100", Kind: TierEliminatedDraw, Value: 100, Winners: 5},
	}
}

// DefaultBreakpoints 推荐语分档（按票数）
func DefaultBreakpoints() []Breakpoint {
	return []Breakpoint{
		{UpTo: 99, Level: "low", Message: "Low survival odds - consider more tickets for better chances"},
		{UpTo: 1000, Level: "balanced", Message: "Decent position - good balance of risk and reward"},
		{UpTo: 5000, Level: "strong", Message: "Strong position - excellent survival chances!"},
		{UpTo: 0, Level: "maximum", Message: "Whale territory - maximum survival probability!"},
	}
}

// DefaultRaffleConstants CHOP 默认玩法参数
func DefaultRaffleConstants() RaffleConstants {
	return RaffleConstants{
		TotalSupply:     250000,
		DevReserved:     6250,
		Rounds:          15,
		EliminationRate: 0.5,
		FinalSurvivors:  10,
		Prizes:          DefaultPrizeTiers(),
		Breakpoints:     DefaultBreakpoints(),
		MinMint:         2,
		MaxMint:         100,
	}
}
