package offer

import (
	"fmt"
	"time"
)

// PropOffer is one player-prop price reported by a bookmaker source.
// SubjectID and MarketID stay empty when resolution flagged the mention;
// the offer is stored anyway so volume metrics survive curation lag.
type PropOffer struct {
	ID          string
	Source      string
	League      string
	SubjectID   string
	MarketID    string
	SubjectName string
	MarketName  string
	Line        float64
	OverPrice   int
	UnderPrice  int
	SeenAt      time.Time
}

func (o PropOffer) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("offer id is required")
	}
	if o.Source == "" {
		return fmt.Errorf("offer source is required")
	}
	if o.SubjectName == "" {
		return fmt.Errorf("offer subject name is required")
	}
	if o.MarketName == "" {
		return fmt.Errorf("offer market name is required")
	}
	return nil
}
