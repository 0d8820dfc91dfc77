package service

import (
	"math"

	"ChopRaffle/internal/model"
)

// OddsEngine 纯计算：给定票数与单价，计算各奖项中奖概率、期望值与推荐语。无 I/O、无状态，可并发调用
//
// 概率模型按独立伯努利试验处理每张票的淘汰（实际是在缩小的票池中无放回抽样），
// 大票数时会略微高估；pool_share / eliminated_draw 两类奖项使用比例近似而非超几何分布，均为已知近似。
type OddsEngine struct {
	constants    model.RaffleConstants
	public       int
	survivalRate float64
}

// NewOddsEngine 创建计算引擎，constants 在构造时注入后只读
func NewOddsEngine(constants model.RaffleConstants) *OddsEngine {
	if len(constants.Breakpoints) == 0 {
		constants.Breakpoints = model.DefaultBreakpoints()
	}
	public := constants.PublicAllocation()
	if public < 1 {
		public = 1
	}
	return &OddsEngine{
		constants:    constants,
		public:       public,
		survivalRate: math.Pow(1-constants.EliminationRate, float64(constants.Rounds)),
	}
}

// Constants 当前玩法参数
func (e *OddsEngine) Constants() model.RaffleConstants {
	return e.constants
}

// SurvivalRate 单张票熬过全部轮次的概率 (1-f)^R
func (e *OddsEngine) SurvivalRate() float64 {
	return e.survivalRate
}

// ClampTickets 票数截断到 [1, 公开票数]
func (e *OddsEngine) ClampTickets(tickets int) int {
	if tickets < 1 {
		return 1
	}
	if tickets > e.public {
		return e.public
	}
	return tickets
}

// NormalizeTickets 处理来自 UI 的原始输入：NaN/Inf/非正数 → 1，小数向下取整，再截断
func (e *OddsEngine) NormalizeTickets(raw float64) int {
	if math.IsNaN(raw) || math.IsInf(raw, -1) || raw < 1 {
		return 1
	}
	if math.IsInf(raw, 1) || raw >= float64(e.public) {
		return e.public
	}
	return e.ClampTickets(int(math.Floor(raw)))
}

// Calculate 计算 ticketCount 张票的 OddsResult。不会失败：越界输入被截断，非法单价视为 0
func (e *OddsEngine) Calculate(ticketCount int, unitPrice float64) model.OddsResult {
	t := e.ClampTickets(ticketCount)
	if math.IsNaN(unitPrice) || math.IsInf(unitPrice, 0) || unitPrice < 0 {
		unitPrice = 0
	}

	survive := atLeastOne(e.survivalRate, t)
	makesFinal := clampPercent(survive * 100)

	tiers := make([]model.TierOdds, 0, len(e.constants.Prizes))
	var ev, grand, top, lucky float64
	seenGrand, seenTop := false, false
	for _, p := range e.constants.Prizes {
		prob := e.tierProbability(p, t, makesFinal)
		tierEV := prob / 100 * p.Value
		ev += tierEV
		tiers = append(tiers, model.TierOdds{
			Label:         p.Label,
			Kind:          p.Kind,
			Value:         p.Value,
			Winners:       p.Winners,
			Probability:   prob,
			ExpectedValue: tierEV,
		})
		switch p.Kind {
		case model.TierSurvivorDraw:
			if !seenGrand {
				grand, seenGrand = prob, true
			}
		case model.TierPoolShare:
			if !seenTop {
				top, seenTop = prob, true
			}
		case model.TierEliminatedDraw:
			lucky += prob
		}
	}

	bp := e.recommend(t)
	return model.OddsResult{
		Tickets:             t,
		UnitPrice:           unitPrice,
		SurvivalRate:        e.survivalRate,
		MakesFinalRound:     makesFinal,
		GrandPrize:          grand,
		Top10Prize:          top,
		LuckyLoser:          clampPercent(lucky),
		Tiers:               tiers,
		ExpectedValue:       math.Max(0, ev),
		TotalCost:           float64(t) * unitPrice,
		Recommendation:      bp.Message,
		RecommendationLevel: bp.Level,
	}
}

func (e *OddsEngine) tierProbability(p model.PrizeTier, tickets int, makesFinal float64) float64 {
	winners := float64(p.Winners)
	if winners <= 0 {
		return 0
	}
	switch p.Kind {
	case model.TierSurvivorDraw:
		// 进入决赛后从 finalSurvivors 中抽 winners 个
		finalists := float64(e.constants.FinalSurvivors)
		if finalists <= 0 {
			return 0
		}
		perTicket := math.Min(1, e.survivalRate*winners/finalists)
		return clampPercent(atLeastOne(perTicket, tickets) * 100)
	case model.TierPoolShare:
		return clampPercent(math.Min(100, float64(tickets)*winners/float64(e.public)*100))
	case model.TierEliminatedDraw:
		// 以全部票被淘汰为条件，按名额占公开票池比例估算（不乘票数）
		return clampPercent((1 - makesFinal/100) * winners / float64(e.public) * 100)
	default:
		return 0
	}
}

// recommend 第一个上限不小于票数的分档；都不满足时取最后一档
func (e *OddsEngine) recommend(tickets int) model.Breakpoint {
	bps := e.constants.Breakpoints
	for _, bp := range bps {
		if bp.UpTo == 0 || tickets <= bp.UpTo {
			return bp
		}
	}
	return bps[len(bps)-1]
}

// CombinedSurvival activeTickets 张票中至少一张熬过全部轮次的概率（百分比）
func (e *OddsEngine) CombinedSurvival(activeTickets int) float64 {
	if activeTickets <= 0 {
		return 0
	}
	return clampPercent(atLeastOne(e.survivalRate, activeTickets) * 100)
}

// ExpectedRemaining 持有 tickets 张票时，第 round 轮结束后的期望剩余张数
func (e *OddsEngine) ExpectedRemaining(tickets, round int) float64 {
	if tickets <= 0 {
		return 0
	}
	if round < 0 {
		round = 0
	}
	return float64(tickets) * math.Pow(1-e.constants.EliminationRate, float64(round))
}

// ExpectedSurvivors 全部公开票在最后一轮后的期望幸存数（约 7.44，实际决赛固定 FinalSurvivors 张）
func (e *OddsEngine) ExpectedSurvivors() float64 {
	return float64(e.public) * e.survivalRate
}

// RoundBreakdown 每一轮的存活情况
func (e *OddsEngine) RoundBreakdown(tickets int) []model.RoundOdds {
	t := e.ClampTickets(tickets)
	rounds := make([]model.RoundOdds, 0, e.constants.Rounds)
	for r := 1; r <= e.constants.Rounds; r++ {
		perTicket := math.Pow(1-e.constants.EliminationRate, float64(r))
		rounds = append(rounds, model.RoundOdds{
			Round:             r,
			TicketSurvival:    perTicket,
			ExpectedRemaining: float64(t) * perTicket,
			AnyRemaining:      clampPercent(atLeastOne(perTicket, t) * 100),
		})
	}
	return rounds
}

// atLeastOne 1-(1-p)^n，小 p 时用 log1p/expm1 保持精度
func atLeastOne(p float64, n int) float64 {
	if p <= 0 || n <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	return -math.Expm1(float64(n) * math.Log1p(-p))
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
