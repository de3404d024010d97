package transfer

// Graph API shapes shared by the Instagram and Facebook adapters.

type GraphID struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

type GraphContainerStatus struct {
	ID         string `json:"id"`
	StatusCode string `json:"status_code"` // IN_PROGRESS, FINISHED, ERROR, EXPIRED, PUBLISHED
	Status     string `json:"status"`
}

type InstagramMediaFields struct {
	ID            string `json:"id"`
	Permalink     string `json:"permalink"`
	LikeCount     int64  `json:"like_count"`
	CommentsCount int64  `json:"comments_count"`
}

type GraphInsights struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

// Value returns the first value of the named insight, or zero.
func (g GraphInsights) Value(name string) int64 {
	for _, d := range g.Data {
		if d.Name == name && len(d.Values) > 0 {
			return d.Values[0].Value
		}
	}
	return 0
}

type FacebookPostFields struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink_url"`
	Reactions struct {
		Summary struct {
			TotalCount int64 `json:"total_count"`
		} `json:"summary"`
	} `json:"reactions"`
	Comments struct {
		Summary struct {
			TotalCount int64 `json:"total_count"`
		} `json:"summary"`
	} `json:"comments"`
	Shares struct {
		Count int64 `json:"count"`
	} `json:"shares"`
}

type GraphErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		ErrorUserMsg string `json:"error_user_msg"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
