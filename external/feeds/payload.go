package feeds

// offersEnvelope mirrors the JSON document the scraper gateway serves per
// bookmaker. League and Sport may sit on the envelope, on each offer, or
// both; the per-offer value wins.
type offersEnvelope struct {
	Source string         `json:"source"`
	League string         `json:"league"`
	Sport  string         `json:"sport"`
	Offers []offerPayload `json:"offers"`
}

type offerPayload struct {
	League     string         `json:"league"`
	Sport      string         `json:"sport"`
	Subject    subjectPayload `json:"player" validate:"required"`
	Market     string         `json:"market" validate:"required"`
	Line       float64        `json:"line"`
	OverPrice  int            `json:"over_price"`
	UnderPrice int            `json:"under_price"`
}

type subjectPayload struct {
	Name     string `json:"name" validate:"required"`
	Team     string `json:"team"`
	Position string `json:"position"`
	Jersey   string `json:"jersey"`
}
