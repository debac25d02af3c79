package model

type QueryLogEntry struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

type TopQuery struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type Answer struct {
	Query    string  `json:"query"`
	Answer   string  `json:"answer"`
	Source   string  `json:"source"`
	Score    float32 `json:"score"`
	LogError string  `json:"log_error,omitempty"`
}
