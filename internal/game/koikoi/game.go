package koikoi

import "time"

// GameStatus 对局状态
type GameStatus string

const (
	StatusWaiting    GameStatus = "WAITING"
	StatusInProgress GameStatus = "IN_PROGRESS"
	StatusFinished   GameStatus = "FINISHED"
)

// RoundEndReason 回合结束原因
type RoundEndReason string

const (
	RoundEndScored  RoundEndReason = "SCORED"  // 宣告结束并计分
	RoundEndDrawn   RoundEndReason = "DRAWN"   // 手牌打完无役, 流局
	RoundEndInstant RoundEndReason = "INSTANT" // 特殊规则即时结束
)

// Player 对局玩家
type Player struct {
	Id   string `json:"id"`
	IsAI bool   `json:"isAI"`
}

// RoundOutcome 单回合结算
type RoundOutcome struct {
	Reason   RoundEndReason     `json:"reason"`
	WinnerId string             `json:"winnerId,omitempty"`
	Yaku     []Yaku             `json:"yaku,omitempty"`
	Score    *FinalScore        `json:"score,omitempty"`
	Special  *SpecialRuleResult `json:"special,omitempty"`
}

// Game 对局聚合
// 持有至多一个进行中的 Round; 回合之间 Round 不保留, 新回合重新生成
// 不变量: 流程状态非终结时 ActivePlayerId 恰有一个且合法
type Game struct {
	Id               string         `json:"id"`
	Players          []Player       `json:"players"`
	CurrentRound     *Round         `json:"currentRound,omitempty"`
	CumulativeScores map[string]int `json:"cumulativeScores"`
	RoundsPlayed     int            `json:"roundsPlayed"`
	TotalRounds      int            `json:"totalRounds"`
	Status           GameStatus     `json:"status"`
	Rules            Ruleset        `json:"rules"`
	FirstPlayerId    string         `json:"firstPlayerId"` // 本回合先手 (亲)
	CreatedAt        time.Time      `json:"createdAt"`
}

// NewGame 创建对局
func NewGame(id string, players []Player, rules Ruleset) *Game {
	scores := make(map[string]int, len(players))
	for _, p := range players {
		scores[p.Id] = 0
	}

	return &Game{
		Id:               id,
		Players:          players,
		CumulativeScores: scores,
		TotalRounds:      rules.TotalRounds,
		Status:           StatusWaiting,
		Rules:            rules,
		FirstPlayerId:    players[0].Id,
		CreatedAt:        time.Now(),
	}
}

// PlayerIds 返回玩家ID列表
func (g *Game) PlayerIds() []string {
	ids := make([]string, len(g.Players))
	for i, p := range g.Players {
		ids[i] = p.Id
	}
	return ids
}

// HasPlayer 判断玩家是否属于本对局
func (g *Game) HasPlayer(playerId string) bool {
	for _, p := range g.Players {
		if p.Id == playerId {
			return true
		}
	}
	return false
}

// OpponentOf 返回对手ID
func (g *Game) OpponentOf(playerId string) string {
	for _, p := range g.Players {
		if p.Id != playerId {
			return p.Id
		}
	}
	return ""
}

// PlayerOf 返回玩家记录
func (g *Game) PlayerOf(playerId string) *Player {
	for i := range g.Players {
		if g.Players[i].Id == playerId {
			return &g.Players[i]
		}
	}
	return nil
}

// BeginRound 用发牌结果开启新回合
func (g *Game) BeginRound(deal *DealResult) *Round {
	round := NewRound(deal, g.PlayerIds(), g.FirstPlayerId)
	g.CurrentRound = round
	g.Status = StatusInProgress
	return round
}

// EndRound 结束当前回合并累计得分
// 胜者成为下一回合的先手; 流局时先手不变
func (g *Game) EndRound(outcome RoundOutcome) {
	if outcome.WinnerId != "" {
		points := 0
		if outcome.Score != nil {
			points = outcome.Score.Final
		} else if outcome.Special != nil {
			points = outcome.Special.AwardedPoints
		}
		g.CumulativeScores[outcome.WinnerId] += points
		g.FirstPlayerId = outcome.WinnerId
	}

	g.RoundsPlayed++
	g.CurrentRound = nil

	if g.RoundsPlayed >= g.TotalRounds {
		g.Status = StatusFinished
	}
}

// Finish 终止对局 (离开/超时判负等)
func (g *Game) Finish() {
	g.CurrentRound = nil
	g.Status = StatusFinished
}

// LeaderId 返回当前累计得分领先的玩家, 平分返回空
func (g *Game) LeaderId() string {
	best := ""
	bestScore := -1
	tied := false
	for _, p := range g.Players {
		score := g.CumulativeScores[p.Id]
		if score > bestScore {
			best = p.Id
			bestScore = score
			tied = false
		} else if score == bestScore {
			tied = true
		}
	}
	if tied {
		return ""
	}
	return best
}
