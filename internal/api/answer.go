package api

import (
	"context"
	"encoding/json"

	"medguide/internal/chat"
)

// The wire shape of the ask endpoint. An earlier revision of the backend
// answered with {response, cases}; the {answer, context} contract is the
// canonical one and the only shape parsed here.
type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
	// Decoded leniently: an absent or malformed context never fails
	// the call, it just yields no reference cases.
	Context json.RawMessage `json:"context"`
}

type askCase struct {
	Ask        string `json:"ask"`
	Answer     string `json:"answer"`
	Department string `json:"department"`
}

// Ask sends the question as the sole payload field and normalizes the
// response. Reference-case ids are assigned as 1-based positions in the
// returned order, regardless of any id present in the payload.
func (c *Client) Ask(ctx context.Context, question string) (chat.Answer, error) {
	var resp askResponse
	if err := c.postJSON(ctx, "/api/user/ask", askRequest{Question: question}, &resp); err != nil {
		return chat.Answer{}, err
	}
	return chat.Answer{
		Text:  resp.Answer,
		Cases: normalizeCases(resp.Context),
	}, nil
}

func normalizeCases(raw json.RawMessage) []chat.ReferenceCase {
	if len(raw) == 0 {
		return nil
	}
	var wire []askCase
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil
	}
	out := make([]chat.ReferenceCase, 0, len(wire))
	for i, c := range wire {
		out = append(out, chat.ReferenceCase{
			ID:         i + 1,
			Question:   c.Ask,
			Answer:     c.Answer,
			Department: c.Department,
		})
	}
	return out
}
