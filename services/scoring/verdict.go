package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nesivarusta/nvu_api/shared"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var ErrUnparseable = errors.New("unparseable scorer output")

// Verdict is the scorer's opinion of a piece of text.
type Verdict struct {
	Score  float64 `json:"score"`
	Status string  `json:"status"`
	Reason string  `json:"reason"`
}

type rawVerdict struct {
	Score  *float64 `json:"score"`
	Status string   `json:"status"`
	Reason string   `json:"reason"`
}

// ParseVerdict reads a {score, status, reason} object out of model output.
// Markdown code fences and text around the object are tolerated.
func ParseVerdict(output string) (*Verdict, error) {
	body := strings.TrimSpace(output)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object", ErrUnparseable)
	}

	var raw rawVerdict
	if err := shared.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if raw.Score == nil {
		return nil, fmt.Errorf("%w: missing score", ErrUnparseable)
	}
	if *raw.Score < 0 || *raw.Score > 1 {
		return nil, fmt.Errorf("%w: score %v out of range", ErrUnparseable, *raw.Score)
	}

	status := strings.ToLower(strings.TrimSpace(raw.Status))
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return nil, fmt.Errorf("%w: status %q", ErrUnparseable, raw.Status)
	}

	return &Verdict{
		Score:  *raw.Score,
		Status: status,
		Reason: strings.TrimSpace(raw.Reason),
	}, nil
}
