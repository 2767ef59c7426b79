package event

import "fmt"

// ReplayPayload 提取事件的回放载荷
// 回放日志存最小化载荷: 省略空捕获列表和空字段, 够重建牌局历史即可, 不存完整线协议DTO
// 类型开关全量列举事件变体, 新增事件类型时必须在这里补分支
func ReplayPayload(e Event) (map[string]any, error) {
	switch ev := e.(type) {
	case GameStarted:
		return map[string]any{
			"players":      ev.Players,
			"total_rounds": ev.TotalRounds,
		}, nil

	case RoundDealt:
		return map[string]any{
			"round":        ev.RoundNumber,
			"first_player": ev.FirstPlayerId,
			"field":        ev.Field,
			"hands":        ev.Hands,
		}, nil

	case TurnCompleted:
		payload := map[string]any{
			"player": ev.PlayerId,
			"played": ev.Move.PlayedCard,
		}
		putNonEmpty(payload, "played_captures", ev.Move.PlayedCaptures)
		putNonEmptyStr(payload, "drawn", ev.Move.DrawnCard)
		putNonEmpty(payload, "drawn_captures", ev.Move.DrawnCaptures)
		if ev.Auto {
			payload["auto"] = true
		}
		return payload, nil

	case SelectionRequired:
		return map[string]any{
			"player":  ev.PlayerId,
			"drawn":   ev.DrawnCard,
			"options": ev.Options,
		}, nil

	case TurnProgressAfterSelection:
		return map[string]any{
			"player":   ev.PlayerId,
			"captured": ev.Captured,
		}, nil

	case DecisionRequired:
		return map[string]any{
			"player":     ev.PlayerId,
			"new_yaku":   ev.NewYaku,
			"base_score": ev.BaseScore,
		}, nil

	case DecisionMade:
		payload := map[string]any{
			"player":   ev.PlayerId,
			"decision": ev.Decision,
		}
		if ev.Auto {
			payload["auto"] = true
		}
		return payload, nil

	case RoundEnded:
		payload := map[string]any{
			"reason": ev.Reason,
			"scores": ev.CumulativeScores,
		}
		putNonEmptyStr(payload, "winner", ev.WinnerId)
		if len(ev.Yaku) > 0 {
			payload["yaku"] = ev.Yaku
		}
		if ev.Score != nil {
			payload["score"] = ev.Score
		}
		if ev.Special != nil {
			payload["special"] = ev.Special
		}
		return payload, nil

	case GameFinished:
		payload := map[string]any{
			"scores": ev.CumulativeScores,
			"reason": ev.Reason,
		}
		putNonEmptyStr(payload, "winner", ev.WinnerId)
		return payload, nil

	case ContinueRequired, TurnError, GameError, GameSnapshotRestore:
		// 确认提示/校验错误/重连快照不进回放日志: 不构成牌局历史
		return nil, nil

	default:
		return nil, fmt.Errorf("unhandled event type in replay payload: %T", e)
	}
}

func putNonEmpty(payload map[string]any, key string, values []string) {
	if len(values) > 0 {
		payload[key] = values
	}
}

func putNonEmptyStr(payload map[string]any, key, value string) {
	if value != "" {
		payload[key] = value
	}
}
