package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nhle/workhub/internal/model"
)

// Reports lists the generated reports visible to the user.
func (g *Gateway) Reports(ctx context.Context, userID int64) ([]model.Report, error) {
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))

	var out []model.Report
	if err := g.Request(ctx, "/reports/list?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
