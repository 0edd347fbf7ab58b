package report

// GenerateRequest is the payload sent to the report generator. It carries
// everything the generator needs so it never reads live market state itself.
type GenerateRequest struct {
	Ticker         string             `json:"ticker"`
	Price          float64            `json:"price"`
	ChangePercent  float64            `json:"change_percent"`
	ReferenceClose float64            `json:"reference_close"`
	Session        string             `json:"session"`
	Signals        map[string]string  `json:"signals"`           // category -> discretized status
	Metrics        map[string]float64 `json:"metrics,omitempty"` // selected raw values
	KeyLevels      []float64          `json:"key_levels,omitempty"`
}

// GenerateResponse is the structured report returned by the generator.
type GenerateResponse struct {
	Ticker     string    `json:"ticker"`
	Direction  string    `json:"direction"`
	Summary    string    `json:"summary"`
	Support    []float64 `json:"support,omitempty"`
	Resistance []float64 `json:"resistance,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

// prevCloseResponse is the data API's previous-session bar envelope.
type prevCloseResponse struct {
	Ticker  string `json:"ticker"`
	Status  string `json:"status"`
	Results []struct {
		Close  float64 `json:"c"`
		Open   float64 `json:"o"`
		High   float64 `json:"h"`
		Low    float64 `json:"l"`
		Volume float64 `json:"v"`
	} `json:"results"`
}

// TickerSnapshot is the point-in-time view from the data API.
type TickerSnapshot struct {
	Ticker           string
	LastPrice        float64
	TodaysChange     float64
	TodaysChangePerc float64
	PrevClose        float64
}

// snapshotResponse matches the data API's snapshot envelope.
type snapshotResponse struct {
	Status string `json:"status"`
	Ticker struct {
		Ticker           string  `json:"ticker"`
		TodaysChange     float64 `json:"todaysChange"`
		TodaysChangePerc float64 `json:"todaysChangePerc"`
		LastTrade        struct {
			Price float64 `json:"p"`
		} `json:"lastTrade"`
		PrevDay struct {
			Close float64 `json:"c"`
		} `json:"prevDay"`
	} `json:"ticker"`
}
