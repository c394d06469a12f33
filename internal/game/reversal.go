package game

import (
	"encoding/json"
	"fmt"
)

// Wire tags for persisted history payloads. DIEM_DEN and 1VS1 are kept for
// compatibility with the log format used by existing rooms.
const (
	TagPointTarget = "DIEM_DEN"
	TagOneVsOne    = "1VS1"
	TagDiscard     = "DISCARD"
	TagStart       = "START"
	TagReset       = "RESET"
)

// Reversal is the closed set of history payload variants. Each variant
// carries exactly what its mutation recorded; the two scoring variants also
// carry what their inverse needs, so undo never recomputes anything.
type Reversal interface {
	Tag() string
}

// PlayerDelta is a single signed score adjustment.
type PlayerDelta struct {
	PlayerID int64
	Delta    int
}

// Invertible is implemented only by reversals that undo supports. Dispatch
// is structural: a variant without Inverse cannot reach the undo path.
type Invertible interface {
	Reversal
	Inverse() []PlayerDelta
}

type PointTargetDelta struct {
	CurrentPlayerID int64       `json:"currentPlayerId"`
	LoserIDs        []int64     `json:"loserIds"`
	PointsPerLoser  int         `json:"pointsPerLoser"`
	TotalEarned     int         `json:"totalEarned"`
	Events          []BallEvent `json:"events"`
}

func (PointTargetDelta) Tag() string { return TagPointTarget }

func (d PointTargetDelta) Inverse() []PlayerDelta {
	out := make([]PlayerDelta, 0, len(d.LoserIDs)+1)
	out = append(out, PlayerDelta{PlayerID: d.CurrentPlayerID, Delta: -d.TotalEarned})
	for _, id := range d.LoserIDs {
		out = append(out, PlayerDelta{PlayerID: id, Delta: d.PointsPerLoser})
	}
	return out
}

type OneVsOneDelta struct {
	WinnerID int64 `json:"winnerId"`
}

func (OneVsOneDelta) Tag() string { return TagOneVsOne }

func (d OneVsOneDelta) Inverse() []PlayerDelta {
	return []PlayerDelta{{PlayerID: d.WinnerID, Delta: -1}}
}

// Discard is recorded for audit only; removing cards is not undoable.
type Discard struct {
	PlayerID int64  `json:"playerId"`
	Cards    []Card `json:"cards"`
	Actor    string `json:"actor"`
}

func (Discard) Tag() string { return TagDiscard }

type Start struct {
	CardsPerPlayer int `json:"cardsPerPlayer"`
	PlayerCount    int `json:"playerCount"`
}

func (Start) Tag() string { return TagStart }

type Reset struct {
	Actor string `json:"actor"`
}

func (Reset) Tag() string { return TagReset }

// MarshalReversal flattens a variant into its persisted form with the tag
// inlined, e.g. {"type":"DIEM_DEN","totalEarned":4,...}.
func MarshalReversal(r Reversal) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(r.Tag())
	if err != nil {
		return nil, err
	}
	m["type"] = tag
	return json.Marshal(m)
}

// UnmarshalReversal decodes a persisted payload back into its variant.
func UnmarshalReversal(data []byte) (Reversal, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case TagPointTarget:
		var v PointTargetDelta
		return v, json.Unmarshal(data, &v)
	case TagOneVsOne:
		var v OneVsOneDelta
		return v, json.Unmarshal(data, &v)
	case TagDiscard:
		var v Discard
		return v, json.Unmarshal(data, &v)
	case TagStart:
		var v Start
		return v, json.Unmarshal(data, &v)
	case TagReset:
		var v Reset
		return v, json.Unmarshal(data, &v)
	default:
		return nil, fmt.Errorf("unknown history payload type %q", head.Type)
	}
}
